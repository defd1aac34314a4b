package vault

import (
	"strings"
	"sync"

	bip39 "github.com/tyler-smith/go-bip39"
)

// Scheme identifies the address-derivation scheme a mnemonic belongs to,
// which determines how it is validated.
type Scheme string

const (
	// SchemeStandard is a checksummed BIP39 phrase on the English wordlist.
	SchemeStandard Scheme = "standard"
	// SchemeLegacy is the pre-checksum format used by older wallets:
	// every word must be on the wordlist but no checksum is enforced.
	SchemeLegacy Scheme = "legacy"
)

// Validator checks wallet-domain semantics of decrypted or to-be-encrypted
// content.
type Validator interface {
	IsValidMnemonic(text string, scheme Scheme) bool
}

// BIP39Validator validates mnemonics against the BIP39 English wordlist.
type BIP39Validator struct{}

var (
	wordIndexOnce sync.Once
	wordIndex     map[string]struct{}
)

func onWordList(word string) bool {
	wordIndexOnce.Do(func() {
		list := bip39.GetWordList()
		wordIndex = make(map[string]struct{}, len(list))
		for _, w := range list {
			wordIndex[w] = struct{}{}
		}
	})
	_, ok := wordIndex[word]
	return ok
}

func (BIP39Validator) IsValidMnemonic(text string, scheme Scheme) bool {
	switch scheme {
	case SchemeStandard:
		return bip39.IsMnemonicValid(text)
	case SchemeLegacy:
		words := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
		switch len(words) {
		case 12, 15, 18, 21, 24:
		default:
			return false
		}
		for _, w := range words {
			if !onWordList(w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
