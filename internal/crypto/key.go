package crypto

import (
	"crypto/subtle"
	"fmt"

	"github.com/walletvault/walletvault/internal/bytesutil"
)

// Key holds derived AES-256-GCM key material. Keys produced by DeriveKey
// are exportable for session caching; keys reconstructed via ImportKey are
// not, so a cached copy cannot be re-exported further.
type Key struct {
	raw        []byte
	exportable bool
}

// Export returns the raw key material as base64 for session caching.
func (k *Key) Export() (string, error) {
	if !k.exportable {
		return "", ErrKeyNotExportable
	}
	return bytesutil.BytesToBase64(k.raw), nil
}

// ImportKey reconstructs a key from exported base64 material. The result
// is marked non-exportable.
func ImportKey(encoded string) (*Key, error) {
	raw, err := bytesutil.Base64ToBytes(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrValidation, KeySize, len(raw))
	}
	return &Key{raw: raw, exportable: false}, nil
}

// Destroy zeroes the key material. The key must not be used afterwards.
func (k *Key) Destroy() {
	ClearBytes(k.raw)
}

// ClearBytes securely clears a byte slice.
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices.
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
