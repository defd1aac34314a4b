package sessionkey

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "walletvault"

// Keyring stores the session key in the OS keyring, scoped to one vault.
// The keyring survives across CLI invocations of the same login session,
// which is what makes `unlock` followed by later `settings get` work
// without re-prompting.
type Keyring struct {
	vaultID string
}

// NewKeyring returns a keyring-backed store for the given vault.
func NewKeyring(vaultID string) *Keyring {
	return &Keyring{vaultID: vaultID}
}

func (k *Keyring) Set(keyBase64 string) error {
	if err := keyring.Set(serviceName, k.vaultID, keyBase64); err != nil {
		return fmt.Errorf("failed to store session key: %w", err)
	}
	return nil
}

func (k *Keyring) Get() (string, error) {
	key, err := keyring.Get(serviceName, k.vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoKey
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session key: %w", err)
	}
	return key, nil
}

func (k *Keyring) Clear() error {
	err := keyring.Delete(serviceName, k.vaultID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear session key: %w", err)
	}
	return nil
}

func (k *Keyring) Has() bool {
	_, err := keyring.Get(serviceName, k.vaultID)
	return err == nil
}
