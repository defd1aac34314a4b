package crypto

import "time"

const (
	// KeySize is the AES-256 key size in bytes.
	KeySize = 32
	// SaltSize is the minimum salt size in bytes.
	SaltSize = 16
	// NonceSize is the AES-GCM nonce size in bytes.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag size in bytes.
	TagSize = 16
	// SignatureSize is the HMAC-SHA256 signature size in bytes.
	SignatureSize = 32

	// MinPasswordLen is the minimum accepted password length.
	MinPasswordLen = 8

	// DefaultIterations is the PBKDF2 iteration count for new envelopes
	// (OWASP recommendation for PBKDF2-HMAC-SHA256).
	DefaultIterations = 600000
	// MinIterations is the lowest iteration count accepted at decrypt time.
	MinIterations = 500000

	// maxGuardDelay bounds the random delay applied after every decrypt
	// attempt, successful or not.
	maxGuardDelay = 10 * time.Millisecond
)

// HKDF context labels for the legacy scheme. Distinct labels keep the
// encryption and authentication sub-keys computationally independent.
const (
	labelEncryption     = "encryption"
	labelAuthentication = "authentication"
)
