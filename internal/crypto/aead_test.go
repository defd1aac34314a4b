package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"
)

func testKey(t *testing.T) *Key {
	t.Helper()
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		t.Fatal(err)
	}
	return &Key{raw: raw, exportable: true}
}

func TestSealOpenRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"simple", []byte("hello world")},
		{"json", []byte(`{"lastActiveAddress":"bc1qtest123","pinnedAssets":["XCP","PEPE"]}`)},
		{"unicode", []byte("пароль 密码 🔐")},
		{"binary", []byte{0x00, 0xff, 0x7f, 0x80}},
		{"100KB", make([]byte, 100*1024)},
	}

	key := testKey(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := Seal(key, tt.plaintext)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if len(sealed) != NonceSize+len(tt.plaintext)+TagSize {
				t.Errorf("sealed length = %d, want %d", len(sealed), NonceSize+len(tt.plaintext)+TagSize)
			}

			plaintext, err := Open(key, sealed)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(plaintext, tt.plaintext) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestSealFreshNonce(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("same plaintext")

	a, err := Seal(key, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Seal(key, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("two encryptions of the same plaintext are identical")
	}

	for _, sealed := range [][]byte{a, b} {
		got, err := Open(key, sealed)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Error("decrypt mismatch")
		}
	}
}

func TestOpenTamperDetection(t *testing.T) {
	key := testKey(t)
	sealed, err := Seal(key, []byte("short secret"))
	if err != nil {
		t.Fatal(err)
	}

	// Flipping any single byte, anywhere in nonce, ciphertext or tag,
	// must fail with the generic error.
	for i := range sealed {
		tampered := append([]byte(nil), sealed...)
		tampered[i] ^= 0x01
		if _, err := Open(key, tampered); !errors.Is(err, ErrDecryptionFailed) {
			t.Fatalf("byte %d: got %v, want ErrDecryptionFailed", i, err)
		}
	}
}

func TestOpenWrongKey(t *testing.T) {
	sealed, err := Seal(testKey(t), []byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(testKey(t), sealed); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("got %v, want ErrDecryptionFailed", err)
	}
}

func TestOpenTooShort(t *testing.T) {
	if _, err := Open(testKey(t), make([]byte, NonceSize+TagSize-1)); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("got %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptWithKeyGenericErrors(t *testing.T) {
	key := testKey(t)

	// Every failure mode is the same error class, including payloads that
	// never reach the cipher.
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"malformed base64", "!!!not-base64!!!"},
		{"truncated blob", "AAAA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecryptWithKey(tt.encoded, key); !errors.Is(err, ErrDecryptionFailed) {
				t.Errorf("got %v, want ErrDecryptionFailed", err)
			}
		})
	}
}

func TestEncryptDecryptWithKey(t *testing.T) {
	key := testKey(t)
	encoded, err := EncryptWithKey([]byte("payload"), key)
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(encoded, "\n ") {
		t.Error("encoded payload contains whitespace")
	}
	plaintext, err := DecryptWithKey(encoded, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(plaintext) != "payload" {
		t.Errorf("plaintext = %q", plaintext)
	}
}

func TestGuardDelayAppliedOnBothOutcomes(t *testing.T) {
	var delays []time.Duration
	sleepFn = func(d time.Duration) { delays = append(delays, d) }
	defer func() { sleepFn = time.Sleep }()

	key := testKey(t)
	sealed, err := Seal(key, []byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Open(key, sealed); err != nil {
		t.Fatal(err)
	}
	sealed[len(sealed)-1] ^= 0x01
	if _, err := Open(key, sealed); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatal(err)
	}

	if len(delays) != 2 {
		t.Fatalf("guard delay applied %d times, want 2", len(delays))
	}
	for _, d := range delays {
		if d < 0 || d >= maxGuardDelay {
			t.Errorf("delay %v outside [0, %v)", d, maxGuardDelay)
		}
	}
}
