package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// validateDerivation checks derivation preconditions before any expensive
// work. Each violation fails with a distinct message under ErrValidation.
func validateDerivation(password string, salt []byte, iterations int) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLen)
	}
	if len(salt) < SaltSize {
		return fmt.Errorf("%w: salt must be at least %d bytes, got %d", ErrValidation, SaltSize, len(salt))
	}
	if iterations < MinIterations {
		return fmt.Errorf("%w: iteration count %d below minimum %d", ErrValidation, iterations, MinIterations)
	}
	return nil
}

// DeriveKey derives an AES-256-GCM key from a password using
// PBKDF2-HMAC-SHA256. Identical inputs always yield identical key bytes.
func DeriveKey(password string, salt []byte, iterations int) (*Key, error) {
	if err := validateDerivation(password, salt, iterations); err != nil {
		return nil, err
	}
	raw := pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New)
	return &Key{raw: raw, exportable: true}, nil
}

// LegacyKeys holds the two independent sub-keys of the legacy scheme.
type LegacyKeys struct {
	Encryption     *Key
	Authentication *Key
}

// Destroy zeroes both sub-keys.
func (lk *LegacyKeys) Destroy() {
	lk.Encryption.Destroy()
	lk.Authentication.Destroy()
}

// DeriveLegacyKeys derives the legacy key pair: one PBKDF2 master key,
// split by HKDF-SHA256 into an encryption key and an authentication key
// under distinct context labels. Compromising one sub-key does not yield
// the other.
func DeriveLegacyKeys(password string, pbkdf2Salt, hkdfSalt []byte, iterations int) (*LegacyKeys, error) {
	if err := validateDerivation(password, pbkdf2Salt, iterations); err != nil {
		return nil, err
	}
	if len(hkdfSalt) < SaltSize {
		return nil, fmt.Errorf("%w: hkdf salt must be at least %d bytes, got %d", ErrValidation, SaltSize, len(hkdfSalt))
	}

	master := pbkdf2.Key([]byte(password), pbkdf2Salt, iterations, KeySize, sha256.New)
	defer ClearBytes(master)

	encKey, err := expandSubKey(master, hkdfSalt, labelEncryption)
	if err != nil {
		return nil, err
	}
	authKey, err := expandSubKey(master, hkdfSalt, labelAuthentication)
	if err != nil {
		ClearBytes(encKey)
		return nil, err
	}

	return &LegacyKeys{
		Encryption:     &Key{raw: encKey, exportable: true},
		Authentication: &Key{raw: authKey, exportable: true},
	}, nil
}

func expandSubKey(master, salt []byte, label string) ([]byte, error) {
	r := hkdf.New(sha256.New, master, salt, []byte(label))
	out := make([]byte, KeySize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("failed to expand %s key: %w", label, err)
	}
	return out, nil
}
