package cmd

import (
	"context"
	"fmt"
	"strings"
)

// Status reports vault state without requiring a password.
func Status(_ context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	state := "locked"
	if a.vault.Unlocked() {
		state = "unlocked"
	}
	fmt.Printf("Vault:  %s (%s)\n", VaultFile, state)

	if modified, err := a.store.Modified(); err == nil {
		fmt.Printf("Updated: %s\n", modified.Format("2006-01-02 15:04:05"))
	}

	names, err := a.store.BlobNames()
	if err != nil {
		HandleError(err)
	}
	var secrets []string
	for _, name := range names {
		if strings.HasPrefix(name, secretPrefix) {
			secrets = append(secrets, strings.TrimPrefix(name, secretPrefix))
		}
	}
	fmt.Printf("Secrets: %d\n", len(secrets))
	for _, name := range secrets {
		fmt.Printf("  %s\n", name)
	}
}
