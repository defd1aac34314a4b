// Package sessionkey caches an exported derived key for the duration of an
// unlocked session, so the user is not re-prompted for the password on
// every read. Cached keys live only in volatile, session-scoped storage
// and are destroyed on lock.
package sessionkey

import (
	"errors"
	"sync"
)

// ErrNoKey is returned by Get when no session key is cached.
var ErrNoKey = errors.New("no session key cached")

// Store caches one exported derived key (base64) for the current session.
// Implementations must never mirror the key to durable storage.
type Store interface {
	// Set caches the exported key, replacing any previous one.
	Set(keyBase64 string) error
	// Get returns the cached key, or ErrNoKey if none is cached.
	Get() (string, error)
	// Clear removes the cached key. Clearing an empty store is not an error.
	Clear() error
	// Has reports whether a key is cached. It is side-effect-free and does
	// not read or import the key itself.
	Has() bool
}

// Memory is a process-lifetime Store. It is the session storage for
// embedded use: created on unlock, gone when the process exits.
type Memory struct {
	mu      sync.RWMutex
	key     string
	present bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Set(keyBase64 string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = keyBase64
	m.present = true
	return nil
}

func (m *Memory) Get() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.present {
		return "", ErrNoKey
	}
	return m.key, nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = ""
	m.present = false
	return nil
}

func (m *Memory) Has() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.present
}
