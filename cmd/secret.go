package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/walletvault/walletvault/internal/crypto"
	"github.com/walletvault/walletvault/internal/vault"
)

// secretPrefix namespaces secret blobs apart from settings in the store.
const secretPrefix = "secret:"

const (
	kindMnemonic   = "mnemonic"
	kindPrivateKey = "private-key"
)

// secretRecord wraps an encrypted envelope with enough metadata to know
// how to decrypt and validate it later.
type secretRecord struct {
	Kind   string `json:"kind"`
	Scheme string `json:"scheme,omitempty"`
	Data   string `json:"data"`
}

// SecretStoreMnemonic validates and encrypts a mnemonic under a name.
func SecretStoreMnemonic(ctx context.Context, name, schemeFlag string) {
	scheme, err := parseScheme(schemeFlag)
	if err != nil {
		HandleError(err)
	}

	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	mnemonic, err := ReadSecret("Enter mnemonic: ")
	if err != nil {
		HandleError(err)
	}

	var opaque string
	if a.vault.Unlocked() {
		opaque, err = a.vault.EncryptMnemonicSession(ctx, mnemonic, scheme)
	} else {
		password := GetPasswordOrExit("Enter password: ")
		opaque, err = a.vault.EncryptMnemonic(ctx, mnemonic, scheme, string(password))
		crypto.ClearBytes(password)
	}
	if err != nil {
		HandleError(err)
	}

	if err := storeSecret(a, name, secretRecord{Kind: kindMnemonic, Scheme: string(scheme), Data: opaque}); err != nil {
		HandleError(err)
	}
	fmt.Printf("Stored mnemonic %q\n", name)
}

// SecretStoreKey encrypts a private key under a name. Keys are opaque
// strings and are not validated.
func SecretStoreKey(ctx context.Context, name string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	privateKey, err := ReadSecret("Enter private key: ")
	if err != nil {
		HandleError(err)
	}

	var opaque string
	if a.vault.Unlocked() {
		opaque, err = a.vault.EncryptPrivateKeySession(ctx, privateKey)
	} else {
		password := GetPasswordOrExit("Enter password: ")
		opaque, err = a.vault.EncryptPrivateKey(ctx, privateKey, string(password))
		crypto.ClearBytes(password)
	}
	if err != nil {
		HandleError(err)
	}

	if err := storeSecret(a, name, secretRecord{Kind: kindPrivateKey, Data: opaque}); err != nil {
		HandleError(err)
	}
	fmt.Printf("Stored private key %q\n", name)
}

// SecretReveal decrypts a stored secret and prints it to stdout.
func SecretReveal(ctx context.Context, name string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	rec, err := loadSecret(a, name)
	if err != nil {
		HandleError(err)
	}

	plaintext, err := revealRecord(ctx, a, rec)
	if err != nil {
		HandleError(err)
	}
	fmt.Println(plaintext)
}

func revealRecord(ctx context.Context, a *app, rec secretRecord) (string, error) {
	if a.vault.Unlocked() {
		plaintext, err := revealSession(ctx, a, rec)
		// Legacy envelopes need the password even with a session key, and
		// a cached key can go stale after a salt rotation. Both cases fall
		// back to a prompt.
		if err == nil || !sessionFallback(err) {
			return plaintext, err
		}
	}

	password := GetPasswordOrExit("Enter password: ")
	defer crypto.ClearBytes(password)

	switch rec.Kind {
	case kindMnemonic:
		scheme, err := parseScheme(rec.Scheme)
		if err != nil {
			return "", err
		}
		return a.vault.DecryptMnemonic(ctx, rec.Data, scheme, string(password))
	default:
		return a.vault.DecryptPrivateKey(ctx, rec.Data, string(password))
	}
}

func revealSession(ctx context.Context, a *app, rec secretRecord) (string, error) {
	switch rec.Kind {
	case kindMnemonic:
		scheme, err := parseScheme(rec.Scheme)
		if err != nil {
			return "", err
		}
		return a.vault.DecryptMnemonicSession(ctx, rec.Data, scheme)
	default:
		return a.vault.DecryptPrivateKeySession(ctx, rec.Data)
	}
}

func sessionFallback(err error) bool {
	return errors.Is(err, vault.ErrLegacyNeedsPassword) ||
		errors.Is(err, crypto.ErrDecryptionFailed)
}

func storeSecret(a *app, name string, rec secretRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return a.store.PutBlob(secretPrefix+name, raw)
}

func loadSecret(a *app, name string) (secretRecord, error) {
	raw, err := a.store.Blob(secretPrefix + name)
	if err != nil {
		return secretRecord{}, fmt.Errorf("secret %q not found", name)
	}
	var rec secretRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return secretRecord{}, fmt.Errorf("secret %q is corrupted: %w", name, err)
	}
	return rec, nil
}

func parseScheme(s string) (vault.Scheme, error) {
	switch s {
	case "", string(vault.SchemeStandard):
		return vault.SchemeStandard, nil
	case string(vault.SchemeLegacy):
		return vault.SchemeLegacy, nil
	default:
		return "", fmt.Errorf("unknown mnemonic scheme %q (want standard or legacy)", s)
	}
}
