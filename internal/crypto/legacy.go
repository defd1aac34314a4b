package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Sign computes an HMAC-SHA256 signature over msg with the authentication
// sub-key of the legacy scheme.
func Sign(key *Key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key.raw)
	mac.Write(msg)
	return mac.Sum(nil)
}

// Verify reports whether sig is a valid HMAC-SHA256 signature over msg.
func Verify(key *Key, msg, sig []byte) bool {
	return hmac.Equal(Sign(key, msg), sig)
}

// OpenLegacy decrypts a legacy nonce-prefixed blob carrying a detached
// HMAC signature over the whole signed region. Both the signature check
// and the GCM open always execute; their results are combined only after
// both complete and the guard delay has elapsed, so a bad signature is
// not observable any earlier than a bad tag.
func OpenLegacy(keys *LegacyKeys, signed, blob, sig []byte) ([]byte, error) {
	sigOK := Verify(keys.Authentication, signed, sig)
	plaintext, gcmOK := openRaw(keys.Encryption, blob)
	guardDelay()
	if !sigOK || !gcmOK {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
