// Package bytesutil provides the byte-level helpers shared by the crypto
// and envelope layers: base64 conversion, secure random generation and
// buffer concatenation.
//
// Base64 uses the standard alphabet with padding. Decoding distinguishes
// "no data" from "corrupted data" so callers can report a missing blob
// differently from a damaged one.
package bytesutil

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	// base64ChunkSize bounds how much input a single encode step consumes.
	// Multiple of 3 so chunk boundaries never split a base64 quantum.
	base64ChunkSize = 32766

	// MinRandomLen and MaxRandomLen bound RandomBytes requests.
	MinRandomLen = 1
	MaxRandomLen = 65536
)

var (
	// ErrEmptyInput is returned when a base64 string is empty.
	ErrEmptyInput = errors.New("empty base64 input")

	// ErrMalformedBase64 is returned when a base64 string cannot be decoded.
	ErrMalformedBase64 = errors.New("malformed base64 input")

	// ErrRandomLen is returned when a RandomBytes request is out of range.
	ErrRandomLen = errors.New("random length out of range")
)

// BytesToBase64 encodes bytes using standard base64 with padding. Input is
// processed in bounded chunks so a multi-megabyte buffer encodes the same
// way as a few bytes.
func BytesToBase64(data []byte) string {
	if len(data) <= base64ChunkSize {
		return base64.StdEncoding.EncodeToString(data)
	}

	var b strings.Builder
	b.Grow(base64.StdEncoding.EncodedLen(len(data)))
	for len(data) > 0 {
		n := base64ChunkSize
		if len(data) < n {
			n = len(data)
		}
		b.WriteString(base64.StdEncoding.EncodeToString(data[:n]))
		data = data[n:]
	}
	return b.String()
}

// Base64ToBytes decodes standard base64 with padding. An empty string fails
// with ErrEmptyInput, anything undecodable with ErrMalformedBase64.
func Base64ToBytes(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrEmptyInput
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBase64, err)
	}
	return data, nil
}

// RandomBytes returns n cryptographically secure random bytes. n must be in
// [MinRandomLen, MaxRandomLen]; the result is never truncated or padded.
func RandomBytes(n int) ([]byte, error) {
	if n < MinRandomLen || n > MaxRandomLen {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrRandomLen, n, MinRandomLen, MaxRandomLen)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// Concat copies the chunks, in order, into a freshly allocated buffer.
// The result never aliases any input.
func Concat(chunks ...[]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
