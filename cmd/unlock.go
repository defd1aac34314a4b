package cmd

import (
	"context"
	"fmt"

	"github.com/walletvault/walletvault/internal/crypto"
)

// Unlock derives the session keys and caches them in the OS keyring, so
// later commands run without re-prompting until lock.
func Unlock(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	password := GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	if err := a.vault.Unlock(ctx, string(password)); err != nil {
		HandleError(err)
	}

	// Verify against the settings envelope before declaring success; a
	// mistyped password would otherwise cache a useless key.
	opaque, err := a.store.Blob(settingsBlob)
	if err != nil {
		HandleError(err)
	}
	if _, err := a.vault.DecryptSettingsSession(ctx, string(opaque)); err != nil {
		_ = a.vault.Lock()
		HandleError(ErrWrongPassword)
	}

	fmt.Println("Vault unlocked")
}

// Lock destroys the cached session keys.
func Lock(_ context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if err := a.vault.Lock(); err != nil {
		HandleError(err)
	}
	fmt.Println("Vault locked")
}
