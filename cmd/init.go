package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/walletvault/walletvault/internal/crypto"
	"github.com/walletvault/walletvault/internal/storage"
	"github.com/walletvault/walletvault/internal/vault"
)

// Init creates a new vault database in the working directory.
func Init(ctx context.Context) {
	if _, err := os.Stat(VaultFile); err == nil {
		HandleError(ErrAlreadyExists)
	}

	password, err := getPasswordForInit()
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(password)

	if err := vault.CheckNewPassword(string(password)); err != nil {
		HandleError(err)
	}

	store, err := storage.Open(VaultFile)
	if err != nil {
		HandleError(err)
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		HandleError(fmt.Errorf("failed to initialize database: %w", err))
	}

	v := vault.New(store, nil)

	// An empty settings envelope doubles as the password verifier for
	// unlock.
	opaque, err := v.EncryptSettings(ctx, map[string]any{}, string(password))
	if err != nil {
		HandleError(err)
	}
	if err := store.PutBlob(settingsBlob, []byte(opaque)); err != nil {
		HandleError(err)
	}

	fmt.Printf("Initialized empty walletvault in %s\n", VaultFile)
}

func getPasswordForInit() ([]byte, error) {
	if password := passwordFromEnv(); password != nil {
		return password, nil
	}
	return ReadPasswordConfirm()
}
