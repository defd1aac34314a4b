// Package crypto implements the password-based symmetric primitives that
// protect at-rest wallet secrets and settings.
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt (stored unencrypted)
//   - 600,000 iterations by default, 500,000 enforced minimum
//   - 256-bit output imported as an AES-256-GCM key
//
// Encryption uses AES-256-GCM with a fresh 12-byte random nonce per call
// and a 128-bit authentication tag.
//
// The legacy scheme additionally splits one PBKDF2 master key into
// independent encryption and authentication sub-keys via HKDF-SHA256 with
// distinct context labels, and HMAC-signs the ciphertext blob.
//
// Decryption failures are deliberately indistinguishable: wrong key,
// corrupted data and tag mismatch all surface as ErrDecryptionFailed, and
// every decrypt runs to completion plus a small random delay before
// reporting either outcome.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Key.Destroy() when done with a derived key
package crypto
