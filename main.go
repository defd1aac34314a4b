package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/walletvault/walletvault/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "unlock":
		runUnlock(ctx, os.Args[2:])
	case "lock":
		runLock(ctx, os.Args[2:])
	case "settings":
		runSettings(ctx, os.Args[2:])
	case "secret":
		runSecret(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runInit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Init(ctx)
}

func runStatus(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Status(ctx)
}

func runUnlock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("unlock", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Unlock(ctx)
}

func runLock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Lock(ctx)
}

func runSettings(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: walletvault settings <get|set|import> [arguments]")
		os.Exit(1)
	}

	switch args[0] {
	case "get":
		fs := flag.NewFlagSet("settings get", flag.ExitOnError)
		if err := fs.Parse(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		key := ""
		if fs.NArg() > 0 {
			key = fs.Arg(0)
		}
		cmd.SettingsGet(ctx, key)
	case "set":
		fs := flag.NewFlagSet("settings set", flag.ExitOnError)
		if err := fs.Parse(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		if fs.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: walletvault settings set <key> <value>")
			os.Exit(1)
		}
		cmd.SettingsSet(ctx, fs.Arg(0), fs.Arg(1))
	case "import":
		fs := flag.NewFlagSet("settings import", flag.ExitOnError)
		force := fs.Bool("force", false, "Apply without confirmation")
		if err := fs.Parse(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "Usage: walletvault settings import [--force] <file.json>")
			os.Exit(1)
		}
		cmd.SettingsImport(ctx, fs.Arg(0), *force)
	default:
		fmt.Fprintf(os.Stderr, "Unknown settings command: %s\n", args[0])
		os.Exit(1)
	}
}

func runSecret(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: walletvault secret <store-mnemonic|store-key|reveal> [arguments]")
		os.Exit(1)
	}

	switch args[0] {
	case "store-mnemonic":
		fs := flag.NewFlagSet("secret store-mnemonic", flag.ExitOnError)
		scheme := fs.String("scheme", "standard", "Mnemonic scheme: standard or legacy")
		if err := fs.Parse(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "Usage: walletvault secret store-mnemonic [--scheme standard|legacy] <name>")
			os.Exit(1)
		}
		cmd.SecretStoreMnemonic(ctx, fs.Arg(0), *scheme)
	case "store-key":
		fs := flag.NewFlagSet("secret store-key", flag.ExitOnError)
		if err := fs.Parse(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "Usage: walletvault secret store-key <name>")
			os.Exit(1)
		}
		cmd.SecretStoreKey(ctx, fs.Arg(0))
	case "reveal":
		fs := flag.NewFlagSet("secret reveal", flag.ExitOnError)
		if err := fs.Parse(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "Usage: walletvault secret reveal <name>")
			os.Exit(1)
		}
		cmd.SecretReveal(ctx, fs.Arg(0))
	default:
		fmt.Fprintf(os.Stderr, "Unknown secret command: %s\n", args[0])
		os.Exit(1)
	}
}

func runPasswd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Passwd(ctx)
}

func printUsage() {
	fmt.Println("walletvault - Password-protected storage for wallet secrets")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  walletvault <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init       Create a .walletvault vault in current directory")
	fmt.Println("  status     Show vault status and stored secrets")
	fmt.Println("  unlock     Start a session (caches derived keys in the OS keyring)")
	fmt.Println("  lock       End the session and clear cached keys")
	fmt.Println("  settings   Get, set, or import encrypted settings")
	fmt.Println("  secret     Store or reveal mnemonics and private keys")
	fmt.Println("  passwd     Change vault password and rotate salts")
	fmt.Println("  help       Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  walletvault init                          # Create new vault")
	fmt.Println("  walletvault unlock                        # Start a session")
	fmt.Println("  walletvault secret store-mnemonic main    # Store a recovery phrase")
	fmt.Println("  walletvault secret reveal main            # Print it back")
	fmt.Println()
	fmt.Println("Use 'walletvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("walletvault init")
		fmt.Println()
		fmt.Println("Creates a .walletvault vault file in the current directory.")
		fmt.Println("Prompts for a password that will be used for key derivation.")
		fmt.Println("The password is not stored anywhere - you must remember it.")
		fmt.Println()
		fmt.Println("Set WALLETVAULT_PASSWORD to skip the prompt in scripts.")
	case "status":
		fmt.Println("walletvault status")
		fmt.Println()
		fmt.Println("Shows vault state, last modification time, and stored blob names.")
		fmt.Println("Does not require a password.")
	case "unlock":
		fmt.Println("walletvault unlock")
		fmt.Println()
		fmt.Println("Derives the session keys from your password and caches them in")
		fmt.Println("the OS keyring. Later commands in the session skip the slow")
		fmt.Println("derivation step. Run 'walletvault lock' when done.")
	case "lock":
		fmt.Println("walletvault lock")
		fmt.Println()
		fmt.Println("Removes cached session keys from the OS keyring.")
	case "settings":
		fmt.Println("walletvault settings get [key]")
		fmt.Println("walletvault settings set <key> <value>")
		fmt.Println("walletvault settings import [--force] <file.json>")
		fmt.Println()
		fmt.Println("Reads and writes the encrypted settings object.")
		fmt.Println("'set' values are parsed as JSON when possible, stored as strings")
		fmt.Println("otherwise. 'import' replaces the whole object and shows a diff")
		fmt.Println("before applying.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --force    Apply an import without confirmation")
	case "secret":
		fmt.Println("walletvault secret store-mnemonic [--scheme standard|legacy] <name>")
		fmt.Println("walletvault secret store-key <name>")
		fmt.Println("walletvault secret reveal <name>")
		fmt.Println()
		fmt.Println("Stores and reveals encrypted wallet secrets.")
		fmt.Println("Mnemonics are validated against their scheme both before")
		fmt.Println("encryption and after decryption. Private keys are stored as-is.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --scheme   Mnemonic scheme: standard (BIP39 with checksum)")
		fmt.Println("             or legacy (wordlist membership only)")
	case "passwd":
		fmt.Println("walletvault passwd")
		fmt.Println()
		fmt.Println("Changes the vault password.")
		fmt.Println("Requires both the current and new passwords.")
		fmt.Println("Rotates the context salts and re-encrypts every stored secret.")
		fmt.Println("Older envelope formats are upgraded to the current one.")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
