// Package derive runs the expensive PBKDF2 step off the caller's critical
// path. The pool-backed deriver and the in-process deriver are required to
// produce bit-identical output for identical input; the pool is a pure
// offload for responsiveness, never an alternate algorithm.
package derive

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/walletvault/walletvault/internal/bytesutil"
	"github.com/walletvault/walletvault/internal/crypto"
)

// Request describes one key derivation.
type Request struct {
	Password   string
	SaltBase64 string
	Iterations int
}

// fingerprint keys request coalescing. Hashing keeps the password out of
// any map the coalescer retains.
func (r Request) fingerprint() string {
	h := sha256.New()
	h.Write([]byte(r.Password))
	h.Write([]byte{0})
	h.Write([]byte(r.SaltBase64))
	var iters [8]byte
	binary.BigEndian.PutUint64(iters[:], uint64(r.Iterations))
	h.Write(iters[:])
	return hex.EncodeToString(h.Sum(nil))
}

// Deriver turns a derivation request into an exported key (base64).
type Deriver interface {
	Derive(ctx context.Context, req Request) (string, error)
}

// Sync derives on the calling goroutine. It is the reference
// implementation and the fallback when no pool is running.
type Sync struct{}

func (Sync) Derive(_ context.Context, req Request) (string, error) {
	salt, err := bytesutil.Base64ToBytes(req.SaltBase64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", crypto.ErrValidation, err)
	}
	key, err := crypto.DeriveKey(req.Password, salt, req.Iterations)
	if err != nil {
		return "", err
	}
	defer key.Destroy()
	return key.Export()
}
