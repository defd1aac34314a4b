package envelope

import (
	"bytes"
	"errors"
	"testing"

	"github.com/walletvault/walletvault/internal/bytesutil"
	"github.com/walletvault/walletvault/internal/crypto"
)

func validBlob(t *testing.T, saltCount int) ([]byte, [][]byte, []byte) {
	t.Helper()
	var salts [][]byte
	var chunks [][]byte
	for i := 0; i < saltCount; i++ {
		salt := bytes.Repeat([]byte{byte(i + 1)}, crypto.SaltSize)
		salts = append(salts, salt)
		chunks = append(chunks, salt)
	}
	ct := make([]byte, crypto.NonceSize+crypto.TagSize+10)
	chunks = append(chunks, ct)
	return bytesutil.Concat(chunks...), salts, ct
}

func TestEncodeDecodeCurrent(t *testing.T) {
	blob, salts, ct := validBlob(t, 1)

	encoded, err := Pack(VersionCurrent, crypto.DefaultIterations, salts, ct, nil)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	e, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if e.Version != VersionCurrent {
		t.Errorf("version = %d", e.Version)
	}
	if e.Iterations != crypto.DefaultIterations {
		t.Errorf("iterations = %d", e.Iterations)
	}
	if e.AuthSignature != "" {
		t.Error("current envelope carries a signature")
	}

	got, err := e.Blob()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, blob) {
		t.Error("blob round trip mismatch")
	}

	parts, err := e.Split()
	if err != nil {
		t.Fatal(err)
	}
	if len(parts.Salts) != 1 || !bytes.Equal(parts.Salts[0], salts[0]) {
		t.Error("salt slicing mismatch")
	}
	if !bytes.Equal(parts.Ciphertext, ct) {
		t.Error("ciphertext slicing mismatch")
	}
}

func TestEncodeDecodeLegacy(t *testing.T) {
	_, salts, ct := validBlob(t, 2)
	sig := bytes.Repeat([]byte{0xaa}, crypto.SignatureSize)

	encoded, err := Pack(VersionLegacy, crypto.MinIterations, salts, ct, sig)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	e, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	parts, err := e.Split()
	if err != nil {
		t.Fatal(err)
	}
	if len(parts.Salts) != 2 {
		t.Fatalf("salt count = %d, want 2", len(parts.Salts))
	}
	if !bytes.Equal(parts.Salts[0], salts[0]) || !bytes.Equal(parts.Salts[1], salts[1]) {
		t.Error("salts sliced out of order")
	}

	gotSig, err := bytesutil.Base64ToBytes(e.AuthSignature)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(gotSig, sig) {
		t.Error("signature round trip mismatch")
	}
}

func TestDecodeValidationOrder(t *testing.T) {
	_, salts, ct := validBlob(t, 1)

	good, err := Pack(VersionCurrent, crypto.DefaultIterations, salts, ct, nil)
	if err != nil {
		t.Fatal(err)
	}

	short := bytesutil.BytesToBase64(make([]byte, crypto.SaltSize+crypto.NonceSize+crypto.TagSize-1))

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrMalformed},
		{"not json", "not-json", ErrMalformed},
		{"json array", "[1,2,3]", ErrMalformed},
		{"unknown version", `{"version":3,"iterations":600000,"encryptedData":"AAAA"}`, ErrUnsupportedVersion},
		{"version zero", `{"iterations":600000,"encryptedData":"AAAA"}`, ErrUnsupportedVersion},
		{"iterations below minimum", `{"version":2,"iterations":499999,"encryptedData":"AAAA"}`, ErrBadIterations},
		{"iterations missing", `{"version":2,"encryptedData":"AAAA"}`, ErrBadIterations},
		{"negative iterations", `{"version":2,"iterations":-1,"encryptedData":"AAAA"}`, ErrBadIterations},
		{"blob empty", `{"version":2,"iterations":600000,"encryptedData":""}`, ErrMalformed},
		{"blob malformed", `{"version":2,"iterations":600000,"encryptedData":"!!!"}`, ErrMalformed},
		{"blob truncated", `{"version":2,"iterations":600000,"encryptedData":"` + short + `"}`, ErrTruncated},
		{"legacy without signature", `{"version":1,"iterations":600000,"encryptedData":"` + legacySizedBlob() + `"}`, ErrMissingSignature},
		{"valid", good, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Decode(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, crypto.ErrValidation) {
				t.Error("decode failure is not a validation error")
			}
			if e != nil {
				t.Error("Decode returned a partial result alongside an error")
			}
		})
	}
}

func legacySizedBlob() string {
	return bytesutil.BytesToBase64(make([]byte, 2*crypto.SaltSize+crypto.NonceSize+crypto.TagSize))
}

func TestPackValidation(t *testing.T) {
	_, salts, ct := validBlob(t, 1)

	if _, err := Pack(VersionCurrent, crypto.MinIterations-1, salts, ct, nil); !errors.Is(err, ErrBadIterations) {
		t.Errorf("low iterations: got %v", err)
	}
	if _, err := Pack(VersionLegacy, crypto.DefaultIterations, salts, ct, nil); !errors.Is(err, crypto.ErrValidation) {
		t.Errorf("legacy with one salt: got %v", err)
	}
	if _, err := Pack(99, crypto.DefaultIterations, salts, ct, nil); !errors.Is(err, crypto.ErrValidation) {
		t.Errorf("unknown version: got %v", err)
	}
	shortSalt := [][]byte{make([]byte, crypto.SaltSize-1)}
	if _, err := Pack(VersionCurrent, crypto.DefaultIterations, shortSalt, ct, nil); !errors.Is(err, crypto.ErrValidation) {
		t.Errorf("short salt: got %v", err)
	}
}
