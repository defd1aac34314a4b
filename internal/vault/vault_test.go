package vault

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletvault/walletvault/internal/bytesutil"
	"github.com/walletvault/walletvault/internal/crypto"
	"github.com/walletvault/walletvault/internal/envelope"
	"github.com/walletvault/walletvault/internal/storage"
)

const (
	testPassword  = "correcthorsebatterystaple"
	testMnemonic  = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	wrongPassword = "wrongpassword"
)

func testVault(t *testing.T, opts ...Option) *Vault {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Initialize())

	opts = append([]Option{WithIterations(crypto.MinIterations)}, opts...)
	return New(store, nil, opts...)
}

func TestSettingsRoundTrip(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	original := map[string]any{
		"lastActiveAddress": "bc1qtest123",
		"pinnedAssets":      []any{"XCP", "PEPE"},
	}

	opaque, err := v.EncryptSettings(ctx, original, testPassword)
	require.NoError(t, err)

	// Wrong password fails with the generic decryption error.
	_, err = v.DecryptSettings(ctx, opaque, wrongPassword)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)

	// The original password returns the exact original object.
	got, err := v.DecryptSettings(ctx, opaque, testPassword)
	require.NoError(t, err)
	if diff := deep.Equal(original, got.(map[string]any)); diff != nil {
		t.Errorf("settings round trip mismatch: %v", diff)
	}
}

func TestSettingsRoundTripShapes(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		value any
	}{
		{"unicode", map[string]any{"name": "кошелёк 🔐", "memo": "测试"}},
		{"empty array", []any{}},
		{"nested", map[string]any{"a": map[string]any{"b": []any{float64(1), "two", nil}}}},
		{"string", "just a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opaque, err := v.EncryptSettings(ctx, tt.value, testPassword)
			require.NoError(t, err)

			got, err := v.DecryptSettings(ctx, opaque, testPassword)
			require.NoError(t, err)
			if diff := deep.Equal(tt.value, got); diff != nil {
				t.Errorf("mismatch: %v", diff)
			}
		})
	}
}

func TestCiphertextNonDeterministic(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	value := map[string]any{"k": "v"}
	a, err := v.EncryptSettings(ctx, value, testPassword)
	require.NoError(t, err)
	b, err := v.EncryptSettings(ctx, value, testPassword)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two encryptions must differ (fresh IV per call)")

	for _, opaque := range []string{a, b} {
		got, err := v.DecryptSettings(ctx, opaque, testPassword)
		require.NoError(t, err)
		assert.Nil(t, deep.Equal(value, got))
	}
}

func TestCrossPasswordIsolation(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	opaque, err := v.EncryptPrivateKey(ctx, "5Kb8kLf9zgWQnogidDA76MzPL6TsZZY36hWXMssSzNydYXYB9KF", "password-alpha")
	require.NoError(t, err)

	// Same vault, same salt, different password.
	_, err = v.DecryptPrivateKey(ctx, opaque, "password-bravo")
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestSessionMode(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	// Locked vault refuses session-mode work.
	_, err := v.EncryptSettingsSession(ctx, map[string]any{})
	assert.ErrorIs(t, err, ErrLocked)
	assert.False(t, v.Unlocked())

	require.NoError(t, v.Unlock(ctx, testPassword))
	assert.True(t, v.Unlocked())

	// Session-mode output decrypts in password mode and vice versa.
	opaque, err := v.EncryptMnemonicSession(ctx, testMnemonic, SchemeStandard)
	require.NoError(t, err)

	got, err := v.DecryptMnemonic(ctx, opaque, SchemeStandard, testPassword)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, got)

	got, err = v.DecryptMnemonicSession(ctx, opaque, SchemeStandard)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, got)

	require.NoError(t, v.Lock())
	assert.False(t, v.Unlocked())
	_, err = v.DecryptMnemonicSession(ctx, opaque, SchemeStandard)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestMnemonicValidation(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	// Invalid mnemonics fail before any crypto work.
	_, err := v.EncryptMnemonic(ctx, "definitely not a mnemonic", SchemeStandard, testPassword)
	assert.ErrorIs(t, err, crypto.ErrValidation)

	// Valid words, broken checksum: legacy accepts, standard rejects.
	noChecksum := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon"
	_, err = v.EncryptMnemonic(ctx, noChecksum, SchemeStandard, testPassword)
	assert.ErrorIs(t, err, crypto.ErrValidation)

	opaque, err := v.EncryptMnemonic(ctx, noChecksum, SchemeLegacy, testPassword)
	require.NoError(t, err)
	got, err := v.DecryptMnemonic(ctx, opaque, SchemeLegacy, testPassword)
	require.NoError(t, err)
	assert.Equal(t, noChecksum, got)
}

func TestDecryptedContentValidation(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	// A private key decrypted as a mnemonic fails the semantic check
	// after successful decryption.
	opaque, err := v.EncryptPrivateKey(ctx, "not-a-mnemonic-at-all", testPassword)
	require.NoError(t, err)

	_, err = v.DecryptMnemonic(ctx, opaque, SchemeStandard, testPassword)
	assert.ErrorIs(t, err, ErrInvalidContent)
	assert.NotErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestPrivateKeyPassthrough(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	// Private keys are format-agnostic: any string round-trips.
	for _, key := range []string{"5Kb8kLf9zgWQnogidDA76MzPL6TsZZY36hWXMssSzNydYXYB9KF", "0x00", "binary\x00junk"} {
		opaque, err := v.EncryptPrivateKey(ctx, key, testPassword)
		require.NoError(t, err)
		got, err := v.DecryptPrivateKey(ctx, opaque, testPassword)
		require.NoError(t, err)
		assert.Equal(t, key, got)
	}
}

func TestLegacyEnvelopeDecrypt(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	opaque := legacyEnvelope(t, testMnemonic, testPassword)

	got, err := v.DecryptMnemonic(ctx, opaque, SchemeStandard, testPassword)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, got)

	_, err = v.DecryptMnemonic(ctx, opaque, SchemeStandard, wrongPassword)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)

	// Session mode cannot serve the legacy scheme.
	require.NoError(t, v.Unlock(ctx, testPassword))
	_, err = v.DecryptMnemonicSession(ctx, opaque, SchemeStandard)
	assert.ErrorIs(t, err, ErrLegacyNeedsPassword)
}

func TestLegacyEnvelopeTamperedSignature(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	opaque := legacyEnvelope(t, testMnemonic, testPassword)
	e, err := envelope.Decode(opaque)
	require.NoError(t, err)

	sig, err := bytesutil.Base64ToBytes(e.AuthSignature)
	require.NoError(t, err)
	sig[0] ^= 0x01
	e.AuthSignature = bytesutil.BytesToBase64(sig)
	tampered, err := envelope.Encode(e)
	require.NoError(t, err)

	_, err = v.DecryptMnemonic(ctx, tampered, SchemeStandard, testPassword)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

// legacyEnvelope builds a version-1 envelope the way the legacy scheme
// wrote them: two salts, HKDF-split keys, detached HMAC over the blob.
func legacyEnvelope(t *testing.T, plaintext, password string) string {
	t.Helper()

	pbkdf2Salt, err := bytesutil.RandomBytes(crypto.SaltSize)
	require.NoError(t, err)
	hkdfSalt, err := bytesutil.RandomBytes(crypto.SaltSize)
	require.NoError(t, err)

	keys, err := crypto.DeriveLegacyKeys(password, pbkdf2Salt, hkdfSalt, crypto.MinIterations)
	require.NoError(t, err)

	sealed, err := crypto.Seal(keys.Encryption, []byte(plaintext))
	require.NoError(t, err)

	blob := bytesutil.Concat(pbkdf2Salt, hkdfSalt, sealed)
	sig := crypto.Sign(keys.Authentication, blob)

	opaque, err := envelope.Pack(envelope.VersionLegacy, crypto.MinIterations,
		[][]byte{pbkdf2Salt, hkdfSalt}, sealed, sig)
	require.NoError(t, err)
	return opaque
}

func TestRotateSaltInvalidatesSession(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	require.NoError(t, v.Unlock(ctx, testPassword))
	require.NoError(t, v.RotateSalt(PurposeWallet))

	assert.False(t, v.Unlocked())

	// Re-unlock derives from the new salt; fresh blobs round-trip.
	require.NoError(t, v.Unlock(ctx, testPassword))
	opaque, err := v.EncryptPrivateKeySession(ctx, "secret-key")
	require.NoError(t, err)
	got, err := v.DecryptPrivateKeySession(ctx, opaque)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", got)
}

func TestLargeSettingsRoundTrip(t *testing.T) {
	v := testVault(t)
	ctx := context.Background()

	big := make([]any, 0, 2048)
	for i := 0; i < 2048; i++ {
		big = append(big, "payload-entry-with-some-width-0123456789abcdef")
	}
	value := map[string]any{"entries": big}

	opaque, err := v.EncryptSettings(ctx, value, testPassword)
	require.NoError(t, err)
	got, err := v.DecryptSettings(ctx, opaque, testPassword)
	require.NoError(t, err)
	assert.Nil(t, deep.Equal(value, got))
}
