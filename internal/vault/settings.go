package vault

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/walletvault/walletvault/internal/crypto"
)

// EncryptSettings encrypts a JSON-serializable value in direct-password
// mode and returns the opaque envelope string.
func (v *Vault) EncryptSettings(ctx context.Context, value any, password string) (string, error) {
	plaintext, err := marshalSettings(value)
	if err != nil {
		return "", err
	}
	return v.encrypt(ctx, PurposeSettings, plaintext, password)
}

// EncryptSettingsSession is the session-key variant of EncryptSettings.
func (v *Vault) EncryptSettingsSession(ctx context.Context, value any) (string, error) {
	plaintext, err := marshalSettings(value)
	if err != nil {
		return "", err
	}
	return v.encryptSession(ctx, PurposeSettings, plaintext)
}

// DecryptSettings decrypts an envelope in direct-password mode and
// returns the stored value. Equality with the original is key-order
// independent: the value round-trips through JSON.
func (v *Vault) DecryptSettings(ctx context.Context, opaque, password string) (any, error) {
	plaintext, err := v.decrypt(ctx, opaque, password)
	if err != nil {
		return nil, err
	}
	return unmarshalSettings(plaintext)
}

// DecryptSettingsSession is the session-key variant of DecryptSettings.
func (v *Vault) DecryptSettingsSession(ctx context.Context, opaque string) (any, error) {
	plaintext, err := v.decryptSession(ctx, PurposeSettings, opaque)
	if err != nil {
		return nil, err
	}
	return unmarshalSettings(plaintext)
}

func marshalSettings(value any) ([]byte, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: settings value is not serializable: %v", crypto.ErrValidation, err)
	}
	return plaintext, nil
}

func unmarshalSettings(plaintext []byte) (any, error) {
	var value any
	if err := json.Unmarshal(plaintext, &value); err != nil {
		return nil, fmt.Errorf("%w: settings payload is not valid JSON", ErrInvalidContent)
	}
	return value, nil
}
