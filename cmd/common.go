package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/walletvault/walletvault/internal/crypto"
	"github.com/walletvault/walletvault/internal/derive"
	"github.com/walletvault/walletvault/internal/sessionkey"
	"github.com/walletvault/walletvault/internal/storage"
	"github.com/walletvault/walletvault/internal/vault"
)

// VaultFile is the database created in the working directory.
const VaultFile = ".walletvault"

const settingsBlob = "settings"

var (
	ErrNotInitialized = errors.New("walletvault not initialized")
	ErrAlreadyExists  = errors.New("walletvault already exists")
	ErrWrongPassword  = errors.New("wrong password")
)

// app bundles the open store and the vault facade for one command run.
type app struct {
	store *storage.Store
	vault *vault.Vault
	pool  *derive.Pool
}

// openApp opens an initialized vault database and wires the facade with
// the keyring-backed session cache and a background derivation worker.
func openApp() (*app, error) {
	if _, err := os.Stat(VaultFile); err != nil {
		return nil, ErrNotInitialized
	}

	store, err := storage.Open(VaultFile)
	if err != nil {
		return nil, err
	}

	ok, err := store.IsInitialized()
	if err != nil || !ok {
		store.Close()
		if err != nil {
			return nil, err
		}
		return nil, ErrNotInitialized
	}

	vaultID, err := store.VaultID()
	if err != nil {
		store.Close()
		return nil, err
	}

	pool := derive.NewPool(1)
	v := vault.New(store,
		func(purpose string) sessionkey.Store {
			return sessionkey.NewKeyring(vaultID + ":" + purpose)
		},
		vault.WithDeriver(pool),
	)

	return &app{store: store, vault: v, pool: pool}, nil
}

func (a *app) Close() {
	a.pool.Close()
	a.store.Close()
}

// GetPassword retrieves the password from the environment or prompts.
// The caller is responsible for calling crypto.ClearBytes on the result.
func GetPassword(prompt string) ([]byte, error) {
	if password := passwordFromEnv(); password != nil {
		return password, nil
	}
	return ReadPassword(prompt)
}

// GetPasswordOrExit is like GetPassword but exits on error.
func GetPasswordOrExit(prompt string) []byte {
	password, err := GetPassword(prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return password
}

// HandleError reports common errors consistently and exits.
func HandleError(err error) {
	switch {
	case errors.Is(err, ErrNotInitialized):
		fmt.Fprintf(os.Stderr, "Error: walletvault not initialized\n")
		fmt.Fprintf(os.Stderr, "Run 'walletvault init' first\n")
	case errors.Is(err, ErrAlreadyExists):
		fmt.Fprintf(os.Stderr, "Error: %s already exists in this directory\n", VaultFile)
		fmt.Fprintf(os.Stderr, "Use 'walletvault status' to see current state\n")
	case errors.Is(err, ErrWrongPassword), errors.Is(err, crypto.ErrDecryptionFailed):
		// Every decryption failure surfaces as one message on purpose.
		fmt.Fprintf(os.Stderr, "Error: incorrect password\n")
	case errors.Is(err, vault.ErrLocked):
		fmt.Fprintf(os.Stderr, "Error: vault is locked\n")
		fmt.Fprintf(os.Stderr, "Run 'walletvault unlock' first\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}
