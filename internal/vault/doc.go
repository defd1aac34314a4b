// Package vault provides the high-level encryption facades for wallet
// secrets and application settings.
//
// Operations come in two modes:
//   - session-key mode, using the key cached at Unlock for routine reads
//     and writes while the vault is open
//   - direct-password mode, deriving a one-shot key for flows that must
//     bypass the cache, such as re-encryption during a password change
//
// The settings facade round-trips arbitrary JSON-serializable values. The
// wallet-secret facade validates domain semantics: a mnemonic must pass
// wordlist/checksum validation for its scheme before any crypto work, and
// decrypted content that fails validation is reported as invalid rather
// than returned silently.
package vault
