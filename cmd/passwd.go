package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/walletvault/walletvault/internal/crypto"
	"github.com/walletvault/walletvault/internal/vault"
)

// Passwd changes the vault password. Every blob is decrypted with the
// old password, the context salts are rotated, and everything is
// re-encrypted with the new password. Legacy envelopes come out of this
// in the current format.
func Passwd(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	oldPassword, err := GetPassword("Enter current password: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(oldPassword)

	// Verify the old password before asking for a new one.
	settingsOpaque, err := a.store.Blob(settingsBlob)
	if err != nil {
		HandleError(err)
	}
	settings, err := a.vault.DecryptSettings(ctx, string(settingsOpaque), string(oldPassword))
	if err != nil {
		HandleError(ErrWrongPassword)
	}

	newPassword, err := ReadPasswordConfirm()
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(newPassword)

	if err := vault.CheckNewPassword(string(newPassword)); err != nil {
		HandleError(err)
	}

	// Decrypt every secret with the old password before touching salts.
	names, err := a.store.BlobNames()
	if err != nil {
		HandleError(err)
	}
	type plainSecret struct {
		name string
		rec  secretRecord
		data string
	}
	var secrets []plainSecret
	for _, name := range names {
		if !strings.HasPrefix(name, secretPrefix) {
			continue
		}
		rec, err := loadSecret(a, strings.TrimPrefix(name, secretPrefix))
		if err != nil {
			HandleError(err)
		}
		var plaintext string
		switch rec.Kind {
		case kindMnemonic:
			scheme, serr := parseScheme(rec.Scheme)
			if serr != nil {
				HandleError(serr)
			}
			plaintext, err = a.vault.DecryptMnemonic(ctx, rec.Data, scheme, string(oldPassword))
		default:
			plaintext, err = a.vault.DecryptPrivateKey(ctx, rec.Data, string(oldPassword))
		}
		if err != nil {
			HandleError(fmt.Errorf("failed to decrypt %s: %w", name, err))
		}
		secrets = append(secrets, plainSecret{name: name, rec: rec, data: plaintext})
	}

	// New salts invalidate every existing envelope and cached session key.
	for _, purpose := range []string{vault.PurposeSettings, vault.PurposeWallet} {
		if err := a.vault.RotateSalt(purpose); err != nil {
			HandleError(err)
		}
	}

	opaque, err := a.vault.EncryptSettings(ctx, settings, string(newPassword))
	if err != nil {
		HandleError(err)
	}
	if err := a.store.PutBlob(settingsBlob, []byte(opaque)); err != nil {
		HandleError(err)
	}

	for _, s := range secrets {
		var reencrypted string
		switch s.rec.Kind {
		case kindMnemonic:
			scheme, _ := parseScheme(s.rec.Scheme)
			reencrypted, err = a.vault.EncryptMnemonic(ctx, s.data, scheme, string(newPassword))
		default:
			reencrypted, err = a.vault.EncryptPrivateKey(ctx, s.data, string(newPassword))
		}
		if err != nil {
			HandleError(fmt.Errorf("failed to re-encrypt %s: %w", s.name, err))
		}
		s.rec.Data = reencrypted
		if err := storeSecret(a, strings.TrimPrefix(s.name, secretPrefix), s.rec); err != nil {
			HandleError(err)
		}
	}

	fmt.Println("Password changed")
	fmt.Println("Run 'walletvault unlock' to start a new session")
}
