package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/walletvault/walletvault/internal/bytesutil"
	"github.com/walletvault/walletvault/internal/crypto"
	"github.com/walletvault/walletvault/internal/derive"
	"github.com/walletvault/walletvault/internal/envelope"
	"github.com/walletvault/walletvault/internal/sessionkey"
)

// Derivation purposes. Each purpose owns one durable salt, so the
// settings key and the wallet key are computationally independent even
// under the same password.
const (
	PurposeSettings = "settings"
	PurposeWallet   = "wallet-vault"
)

var (
	// ErrLocked is returned by session-mode operations when no key is
	// cached for the purpose.
	ErrLocked = errors.New("vault is locked")

	// ErrInvalidContent is returned when successfully decrypted content
	// fails its semantic check. It is never swallowed: a corrupted secret
	// that decrypts cleanly is as dangerous as one that does not decrypt.
	ErrInvalidContent = errors.New("decrypted content invalid")

	// ErrLegacyNeedsPassword is returned when a legacy envelope is
	// decrypted in session-key mode; the legacy scheme needs two sub-keys
	// the cached key cannot provide.
	ErrLegacyNeedsPassword = fmt.Errorf("%w: legacy envelope requires the password", crypto.ErrValidation)
)

// SaltStore is the durable, non-secret salt storage the vault depends on.
type SaltStore interface {
	GetOrCreateSalt(purpose string, n int) ([]byte, error)
	SetSalt(purpose string, salt []byte) error
}

// SessionFactory builds the session key cache for a purpose.
type SessionFactory func(purpose string) sessionkey.Store

// Vault ties the derivation, envelope and cache layers together behind
// the settings and wallet-secret facades.
type Vault struct {
	salts      SaltStore
	sessions   map[string]sessionkey.Store
	deriver    derive.Deriver
	validator  Validator
	iterations int
}

// Option configures a Vault.
type Option func(*Vault)

// WithDeriver sets the key derivation strategy (for example a background
// pool). Defaults to in-process derivation.
func WithDeriver(d derive.Deriver) Option {
	return func(v *Vault) { v.deriver = d }
}

// WithValidator replaces the mnemonic validator.
func WithValidator(val Validator) Option {
	return func(v *Vault) { v.validator = val }
}

// WithIterations overrides the PBKDF2 iteration count for new envelopes.
func WithIterations(n int) Option {
	return func(v *Vault) { v.iterations = n }
}

// New creates a vault over the given durable salt store. sessions may be
// nil, in which case keys are cached in process memory.
func New(salts SaltStore, sessions SessionFactory, opts ...Option) *Vault {
	if sessions == nil {
		sessions = func(string) sessionkey.Store { return sessionkey.NewMemory() }
	}
	v := &Vault{
		salts: salts,
		sessions: map[string]sessionkey.Store{
			PurposeSettings: sessions(PurposeSettings),
			PurposeWallet:   sessions(PurposeWallet),
		},
		deriver:    derive.Sync{},
		validator:  BIP39Validator{},
		iterations: crypto.DefaultIterations,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Unlock derives the per-purpose keys from the password and caches their
// exported form in session storage. It does not verify the password
// against existing data; callers that want verification decrypt a known
// blob after unlocking.
func (v *Vault) Unlock(ctx context.Context, password string) error {
	for _, purpose := range []string{PurposeSettings, PurposeWallet} {
		exported, err := v.deriveExported(ctx, purpose, password)
		if err != nil {
			return err
		}
		if err := v.sessions[purpose].Set(exported); err != nil {
			return err
		}
	}
	return nil
}

// Lock destroys the cached session keys.
func (v *Vault) Lock() error {
	var firstErr error
	for _, s := range v.sessions {
		if err := s.Clear(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Unlocked reports whether session keys are cached. Side-effect-free.
func (v *Vault) Unlocked() bool {
	for _, s := range v.sessions {
		if !s.Has() {
			return false
		}
	}
	return true
}

// RotateSalt replaces the durable salt for a purpose with a fresh random
// one and drops the now-stale cached key. Used during password change,
// where every blob is re-encrypted anyway.
func (v *Vault) RotateSalt(purpose string) error {
	salt, err := bytesutil.RandomBytes(crypto.SaltSize)
	if err != nil {
		return err
	}
	if err := v.salts.SetSalt(purpose, salt); err != nil {
		return err
	}
	return v.sessions[purpose].Clear()
}

func (v *Vault) deriveExported(ctx context.Context, purpose, password string) (string, error) {
	salt, err := v.salts.GetOrCreateSalt(purpose, crypto.SaltSize)
	if err != nil {
		return "", fmt.Errorf("failed to load %s salt: %w", purpose, err)
	}
	return v.deriver.Derive(ctx, derive.Request{
		Password:   password,
		SaltBase64: bytesutil.BytesToBase64(salt),
		Iterations: v.iterations,
	})
}

// encrypt produces a current-version envelope for plaintext under the
// password-derived key of the purpose.
func (v *Vault) encrypt(ctx context.Context, purpose string, plaintext []byte, password string) (string, error) {
	exported, err := v.deriveExported(ctx, purpose, password)
	if err != nil {
		return "", err
	}
	return v.sealEnvelope(purpose, plaintext, exported)
}

// encryptSession is the cache-backed variant of encrypt.
func (v *Vault) encryptSession(_ context.Context, purpose string, plaintext []byte) (string, error) {
	exported, err := v.sessions[purpose].Get()
	if errors.Is(err, sessionkey.ErrNoKey) {
		return "", ErrLocked
	}
	if err != nil {
		return "", err
	}
	return v.sealEnvelope(purpose, plaintext, exported)
}

func (v *Vault) sealEnvelope(purpose string, plaintext []byte, exported string) (string, error) {
	key, err := crypto.ImportKey(exported)
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	salt, err := v.salts.GetOrCreateSalt(purpose, crypto.SaltSize)
	if err != nil {
		return "", fmt.Errorf("failed to load %s salt: %w", purpose, err)
	}

	sealed, err := crypto.Seal(key, plaintext)
	if err != nil {
		return "", err
	}
	return envelope.Pack(envelope.VersionCurrent, v.iterations, [][]byte{salt}, sealed, nil)
}

// decrypt opens an envelope in direct-password mode, dispatching on the
// envelope version. Structural problems fail fast as validation errors;
// everything after that point is the generic decryption failure.
func (v *Vault) decrypt(ctx context.Context, opaque, password string) ([]byte, error) {
	e, err := envelope.Decode(opaque)
	if err != nil {
		return nil, err
	}
	parts, err := e.Split()
	if err != nil {
		return nil, err
	}

	if e.Version == envelope.VersionLegacy {
		return v.decryptLegacy(e, parts, password)
	}

	// The envelope is self-describing: derive from the embedded salt so a
	// blob decrypts even if the durable store rotated underneath it.
	exported, err := v.deriver.Derive(ctx, derive.Request{
		Password:   password,
		SaltBase64: bytesutil.BytesToBase64(parts.Salts[0]),
		Iterations: e.Iterations,
	})
	if err != nil {
		return nil, err
	}
	key, err := crypto.ImportKey(exported)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	return crypto.Open(key, parts.Ciphertext)
}

func (v *Vault) decryptLegacy(e *envelope.Envelope, parts *envelope.Parts, password string) ([]byte, error) {
	keys, err := crypto.DeriveLegacyKeys(password, parts.Salts[0], parts.Salts[1], e.Iterations)
	if err != nil {
		return nil, err
	}
	defer keys.Destroy()

	// A signature that does not even decode is treated like any other
	// decryption failure; the legacy open still runs to completion.
	sig, sigErr := bytesutil.Base64ToBytes(e.AuthSignature)
	if sigErr != nil {
		sig = nil
	}
	blob, err := e.Blob()
	if err != nil {
		return nil, err
	}
	return crypto.OpenLegacy(keys, blob, parts.Ciphertext, sig)
}

// decryptSession opens a current-version envelope with the cached key.
func (v *Vault) decryptSession(_ context.Context, purpose, opaque string) ([]byte, error) {
	e, err := envelope.Decode(opaque)
	if err != nil {
		return nil, err
	}
	if e.Version == envelope.VersionLegacy {
		return nil, ErrLegacyNeedsPassword
	}
	parts, err := e.Split()
	if err != nil {
		return nil, err
	}

	exported, err := v.sessions[purpose].Get()
	if errors.Is(err, sessionkey.ErrNoKey) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, err
	}
	key, err := crypto.ImportKey(exported)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	return crypto.Open(key, parts.Ciphertext)
}
