// Package envelope implements the versioned on-disk payload format.
//
// An envelope is a flat JSON object carrying everything needed to decrypt
// except the password:
//
//	{"version":2,"iterations":600000,"encryptedData":"<base64 salt‖iv‖ct‖tag>"}
//
// The legacy version 1 layout carries two salts inside the blob plus a
// detached HMAC signature:
//
//	{"version":1,"iterations":...,"encryptedData":"<base64 salt‖salt‖iv‖ct‖tag>","authSignature":"<base64 hmac>"}
//
// Decode validates structure before any cryptographic work: parseable,
// then version, then iteration count, then minimum blob size. Each failure
// is a distinct, developer-identifiable error; no partial result is ever
// returned.
package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/walletvault/walletvault/internal/bytesutil"
	"github.com/walletvault/walletvault/internal/crypto"
)

// Supported format versions.
const (
	VersionLegacy  = 1
	VersionCurrent = 2
)

var (
	// ErrMalformed is returned when the envelope string is not parseable.
	ErrMalformed = fmt.Errorf("%w: malformed envelope", crypto.ErrValidation)
	// ErrUnsupportedVersion is returned for unrecognized format versions.
	// No crypto work is ever attempted on an unknown layout.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported envelope version", crypto.ErrValidation)
	// ErrBadIterations is returned when the iteration count is missing,
	// non-positive or below the enforced minimum.
	ErrBadIterations = fmt.Errorf("%w: unsupported iteration count", crypto.ErrValidation)
	// ErrTruncated is returned when the blob is smaller than the minimum
	// size its version implies.
	ErrTruncated = fmt.Errorf("%w: envelope data truncated", crypto.ErrValidation)
	// ErrMissingSignature is returned when a legacy envelope lacks its
	// detached signature.
	ErrMissingSignature = fmt.Errorf("%w: legacy envelope missing signature", crypto.ErrValidation)
)

// Envelope is the decoded wire structure.
type Envelope struct {
	Version       int    `json:"version"`
	Iterations    int    `json:"iterations"`
	EncryptedData string `json:"encryptedData"`
	AuthSignature string `json:"authSignature,omitempty"`
}

// Parts is the fixed-offset decomposition of an envelope's binary blob.
// Fields are sliced in the exact order used at encode time: salt(s), then
// IV, then ciphertext+tag.
type Parts struct {
	Salts      [][]byte
	Ciphertext []byte // iv ‖ ciphertext ‖ tag
}

// saltCount returns the number of salts a version embeds in its blob.
func saltCount(version int) int {
	if version == VersionLegacy {
		return 2
	}
	return 1
}

func minBlobSize(version int) int {
	return saltCount(version)*crypto.SaltSize + crypto.NonceSize + crypto.TagSize
}

// Encode serializes an envelope to its wire string.
func Encode(e *Envelope) (string, error) {
	switch e.Version {
	case VersionCurrent:
	case VersionLegacy:
		if e.AuthSignature == "" {
			return "", ErrMissingSignature
		}
	default:
		return "", fmt.Errorf("%w: %d", ErrUnsupportedVersion, e.Version)
	}
	if e.Iterations < crypto.MinIterations {
		return "", fmt.Errorf("%w: %d", ErrBadIterations, e.Iterations)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return string(data), nil
}

// Decode parses and validates an envelope string. Validation order:
// parseable, version supported, iterations acceptable, blob at least the
// minimum size the version implies.
func Decode(s string) (*Envelope, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}

	var e Envelope
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if e.Version != VersionCurrent && e.Version != VersionLegacy {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, e.Version)
	}
	if e.Iterations < crypto.MinIterations {
		return nil, fmt.Errorf("%w: %d", ErrBadIterations, e.Iterations)
	}

	blob, err := bytesutil.Base64ToBytes(e.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(blob) < minBlobSize(e.Version) {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncated, len(blob), minBlobSize(e.Version))
	}
	if e.Version == VersionLegacy && e.AuthSignature == "" {
		return nil, ErrMissingSignature
	}

	return &e, nil
}

// Blob decodes the envelope's binary payload. Decode has already checked
// the minimum size for the version.
func (e *Envelope) Blob() ([]byte, error) {
	blob, err := bytesutil.Base64ToBytes(e.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return blob, nil
}

// Split slices the blob at the fixed offsets of the envelope's version.
func (e *Envelope) Split() (*Parts, error) {
	blob, err := e.Blob()
	if err != nil {
		return nil, err
	}
	if len(blob) < minBlobSize(e.Version) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(blob))
	}

	p := &Parts{}
	for i := 0; i < saltCount(e.Version); i++ {
		p.Salts = append(p.Salts, blob[:crypto.SaltSize])
		blob = blob[crypto.SaltSize:]
	}
	p.Ciphertext = blob
	return p, nil
}

// Pack assembles the binary blob for version from its parts and returns
// the encoded envelope. ciphertext is the nonce-prefixed AEAD output.
func Pack(version, iterations int, salts [][]byte, ciphertext []byte, signature []byte) (string, error) {
	if len(salts) != saltCount(version) {
		return "", fmt.Errorf("%w: version %d needs %d salt(s), got %d",
			crypto.ErrValidation, version, saltCount(version), len(salts))
	}
	for _, salt := range salts {
		if len(salt) != crypto.SaltSize {
			return "", fmt.Errorf("%w: salt must be %d bytes, got %d", crypto.ErrValidation, crypto.SaltSize, len(salt))
		}
	}

	blob := bytesutil.Concat(append(append([][]byte{}, salts...), ciphertext)...)
	e := &Envelope{
		Version:       version,
		Iterations:    iterations,
		EncryptedData: bytesutil.BytesToBase64(blob),
	}
	if signature != nil {
		e.AuthSignature = bytesutil.BytesToBase64(signature)
	}
	return Encode(e)
}
