package vault

import (
	"context"
	"fmt"

	"github.com/walletvault/walletvault/internal/crypto"
)

// EncryptMnemonic validates a mnemonic against its scheme and encrypts it
// in direct-password mode. An invalid mnemonic fails before any crypto
// work begins.
func (v *Vault) EncryptMnemonic(ctx context.Context, mnemonic string, scheme Scheme, password string) (string, error) {
	if err := v.checkMnemonic(mnemonic, scheme); err != nil {
		return "", err
	}
	return v.encrypt(ctx, PurposeWallet, []byte(mnemonic), password)
}

// EncryptMnemonicSession is the session-key variant of EncryptMnemonic.
func (v *Vault) EncryptMnemonicSession(ctx context.Context, mnemonic string, scheme Scheme) (string, error) {
	if err := v.checkMnemonic(mnemonic, scheme); err != nil {
		return "", err
	}
	return v.encryptSession(ctx, PurposeWallet, []byte(mnemonic))
}

// DecryptMnemonic decrypts an envelope and validates the result against
// the scheme. Decryption succeeding but validation failing is reported as
// ErrInvalidContent — never returned as plaintext.
func (v *Vault) DecryptMnemonic(ctx context.Context, opaque string, scheme Scheme, password string) (string, error) {
	plaintext, err := v.decrypt(ctx, opaque, password)
	if err != nil {
		return "", err
	}
	return v.checkDecryptedMnemonic(plaintext, scheme)
}

// DecryptMnemonicSession is the session-key variant of DecryptMnemonic.
func (v *Vault) DecryptMnemonicSession(ctx context.Context, opaque string, scheme Scheme) (string, error) {
	plaintext, err := v.decryptSession(ctx, PurposeWallet, opaque)
	if err != nil {
		return "", err
	}
	return v.checkDecryptedMnemonic(plaintext, scheme)
}

// EncryptPrivateKey encrypts a private key in direct-password mode. Keys
// are format-agnostic and pass through unvalidated.
func (v *Vault) EncryptPrivateKey(ctx context.Context, privateKey, password string) (string, error) {
	return v.encrypt(ctx, PurposeWallet, []byte(privateKey), password)
}

// EncryptPrivateKeySession is the session-key variant of EncryptPrivateKey.
func (v *Vault) EncryptPrivateKeySession(ctx context.Context, privateKey string) (string, error) {
	return v.encryptSession(ctx, PurposeWallet, []byte(privateKey))
}

// DecryptPrivateKey decrypts a private key in direct-password mode.
func (v *Vault) DecryptPrivateKey(ctx context.Context, opaque, password string) (string, error) {
	plaintext, err := v.decrypt(ctx, opaque, password)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DecryptPrivateKeySession is the session-key variant of DecryptPrivateKey.
func (v *Vault) DecryptPrivateKeySession(ctx context.Context, opaque string) (string, error) {
	plaintext, err := v.decryptSession(ctx, PurposeWallet, opaque)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (v *Vault) checkMnemonic(mnemonic string, scheme Scheme) error {
	if !v.validator.IsValidMnemonic(mnemonic, scheme) {
		return fmt.Errorf("%w: mnemonic failed %s validation", crypto.ErrValidation, scheme)
	}
	return nil
}

func (v *Vault) checkDecryptedMnemonic(plaintext []byte, scheme Scheme) (string, error) {
	mnemonic := string(plaintext)
	if !v.validator.IsValidMnemonic(mnemonic, scheme) {
		return "", fmt.Errorf("%w: decrypted mnemonic failed %s validation", ErrInvalidContent, scheme)
	}
	return mnemonic, nil
}
