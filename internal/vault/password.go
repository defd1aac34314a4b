package vault

import (
	"fmt"

	"github.com/nbutton23/zxcvbn-go"

	"github.com/walletvault/walletvault/internal/crypto"
)

// minStrengthScore is the minimum zxcvbn score (0-4) accepted when a
// password is first chosen. Existing passwords are never re-scored; the
// gate applies at vault creation and password change only.
const minStrengthScore = 3

// CheckNewPassword applies the password policy for newly chosen passwords:
// the hard minimum length the derivation layer enforces anyway, plus a
// guessability estimate so "password1" does not protect a wallet.
func CheckNewPassword(password string) error {
	if len(password) < crypto.MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", crypto.ErrValidation, crypto.MinPasswordLen)
	}
	if zxcvbn.PasswordStrength(password, nil).Score < minStrengthScore {
		return fmt.Errorf("%w: password is too guessable, use a longer or less common phrase", crypto.ErrValidation)
	}
	return nil
}
