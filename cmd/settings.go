package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/walletvault/walletvault/internal/crypto"
)

// SettingsGet prints the decrypted settings, or a single key of them.
func SettingsGet(ctx context.Context, key string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	password := a.passwordUnlessUnlocked()
	defer crypto.ClearBytes(password)

	value, err := a.loadSettings(ctx, password)
	if err != nil {
		HandleError(err)
	}

	if key != "" {
		obj, ok := value.(map[string]any)
		if !ok {
			HandleError(fmt.Errorf("settings are not an object"))
		}
		v, ok := obj[key]
		if !ok {
			HandleError(fmt.Errorf("settings key %q not found", key))
		}
		value = v
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		HandleError(err)
	}
	fmt.Println(string(out))
}

// SettingsSet updates one key of the settings object and re-encrypts.
// The value is parsed as JSON when possible, otherwise stored as a string.
func SettingsSet(ctx context.Context, key, rawValue string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	password := a.passwordUnlessUnlocked()
	defer crypto.ClearBytes(password)

	current, err := a.loadSettings(ctx, password)
	if err != nil {
		HandleError(err)
	}

	obj, ok := current.(map[string]any)
	if !ok {
		HandleError(fmt.Errorf("settings are not an object"))
	}

	var value any
	if err := json.Unmarshal([]byte(rawValue), &value); err != nil {
		value = rawValue
	}
	obj[key] = value

	if err := a.saveSettings(ctx, obj, password); err != nil {
		HandleError(err)
	}
	fmt.Printf("Updated %q\n", key)
}

// SettingsImport replaces the settings with the contents of a JSON file,
// previewing the change as a unified diff before overwriting.
func SettingsImport(ctx context.Context, path string, force bool) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		HandleError(fmt.Errorf("failed to read %s: %w", path, err))
	}
	var incoming any
	if err := json.Unmarshal(raw, &incoming); err != nil {
		HandleError(fmt.Errorf("%s is not valid JSON: %w", path, err))
	}

	password := a.passwordUnlessUnlocked()
	defer crypto.ClearBytes(password)

	current, err := a.loadSettings(ctx, password)
	if err != nil {
		HandleError(err)
	}

	diff := settingsDiff(current, incoming)
	if diff == "" {
		fmt.Println("No changes")
		return
	}
	fmt.Print(diff)

	if !force && !Confirm("Apply these changes?") {
		fmt.Println("Aborted")
		return
	}

	if err := a.saveSettings(ctx, incoming, password); err != nil {
		HandleError(err)
	}
	fmt.Println("Settings imported")
}

// passwordUnlessUnlocked prompts for the password when no session is
// active. Returns nil when cached session keys will be used instead.
func (a *app) passwordUnlessUnlocked() []byte {
	if a.vault.Unlocked() {
		return nil
	}
	return GetPasswordOrExit("Enter password: ")
}

// loadSettings decrypts the settings blob, in session mode when password
// is nil and direct-password mode otherwise.
func (a *app) loadSettings(ctx context.Context, password []byte) (any, error) {
	opaque, err := a.store.Blob(settingsBlob)
	if err != nil {
		return nil, err
	}
	if password == nil {
		return a.vault.DecryptSettingsSession(ctx, string(opaque))
	}
	return a.vault.DecryptSettings(ctx, string(opaque), string(password))
}

// saveSettings re-encrypts the settings value in the same mode
// loadSettings used.
func (a *app) saveSettings(ctx context.Context, value any, password []byte) error {
	var opaque string
	var err error
	if password == nil {
		opaque, err = a.vault.EncryptSettingsSession(ctx, value)
	} else {
		opaque, err = a.vault.EncryptSettings(ctx, value, string(password))
	}
	if err != nil {
		return err
	}
	return a.store.PutBlob(settingsBlob, []byte(opaque))
}

// settingsDiff renders a unified diff between two settings values.
// Returns empty when they are semantically identical.
func settingsDiff(current, incoming any) string {
	a, _ := json.MarshalIndent(current, "", "  ")
	b, _ := json.MarshalIndent(incoming, "", "  ")
	if string(a) == string(b) {
		return ""
	}

	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(string(a)+"\n", string(b)+"\n")
	diffs := dmp.DiffMain(ca, cb, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	patches := dmp.PatchMake(string(a)+"\n", diffs)
	if len(patches) == 0 {
		return ""
	}

	return "--- current\n+++ incoming\n" + dmp.PatchToText(patches)
}
