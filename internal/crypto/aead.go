package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/walletvault/walletvault/internal/bytesutil"
)

// Seal encrypts plaintext with AES-256-GCM under a fresh random nonce.
// The result is nonce ‖ ciphertext ‖ tag. Nonce reuse under GCM breaks
// both confidentiality and integrity, so every call draws a new one.
func Seal(key *Key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := bytesutil.RandomBytes(NonceSize)
	if err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	return bytesutil.Concat(nonce, sealed), nil
}

// Open decrypts a nonce-prefixed AES-256-GCM blob. Any failure surfaces as
// ErrDecryptionFailed after the attempt and the guard delay complete; the
// cause is never distinguished.
func Open(key *Key, blob []byte) ([]byte, error) {
	plaintext, ok := openRaw(key, blob)
	guardDelay()
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// openRaw performs the decrypt attempt without the guard. It always runs
// the GCM open when the blob is large enough to carry one, and records
// success as a flag rather than returning early.
func openRaw(key *Key, blob []byte) ([]byte, bool) {
	if len(blob) < NonceSize+TagSize {
		return nil, false
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, false
	}
	plaintext, err := gcm.Open(nil, blob[:NonceSize], blob[NonceSize:], nil)
	return plaintext, err == nil
}

// EncryptWithKey encrypts plaintext and returns base64(nonce ‖ ciphertext ‖ tag).
func EncryptWithKey(plaintext []byte, key *Key) (string, error) {
	sealed, err := Seal(key, plaintext)
	if err != nil {
		return "", err
	}
	return bytesutil.BytesToBase64(sealed), nil
}

// DecryptWithKey reverses EncryptWithKey. All failures, including a
// malformed base64 payload, report the generic ErrDecryptionFailed.
func DecryptWithKey(encoded string, key *Key) ([]byte, error) {
	blob, err := bytesutil.Base64ToBytes(encoded)
	if err != nil {
		guardDelay()
		return nil, ErrDecryptionFailed
	}
	return Open(key, blob)
}

func newGCM(key *Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key.raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
