package crypto

import "errors"

var (
	// ErrValidation is the root class for precondition failures. Specific
	// failures wrap it with an actionable message; none of them involve
	// secret-dependent work, so the messages are log-safe.
	ErrValidation = errors.New("validation failed")

	// ErrDecryptionFailed covers every decrypt failure mode: wrong key,
	// corrupted ciphertext, tag or signature mismatch. It is deliberately
	// generic so callers cannot be used as a decryption oracle.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrKeyNotExportable is returned when exporting a key that was
	// reconstructed from exported material.
	ErrKeyNotExportable = errors.New("key is not exportable")
)
