package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/textandchord/lockbox/internal/lockbox"
	"github.com/textandchord/lockbox/internal/logging"
	"github.com/textandchord/lockbox/internal/timeauth"
)

const usageText = `lockbox - encrypt a file so it cannot be opened before a future time

Usage:
  lockbox seal <path> --until <time> [--out <path>] [--authority <name>] [--harden]
  lockbox open <path> [--out-dir <dir>] [--authority <name>]
  lockbox status <path> [--authority <name>]
  lockbox             (interactive menu)

Options:
  --until <time>       RFC3339 expiry timestamp (required for seal)
  --out <path>         output path for the container (default: <base>.lb)
  --out-dir <dir>      directory for the decrypted file (default: .)
  --authority <name>   trusted time source: ntp, drand, or quorum (default: ntp)
  --ntp-server <host>  NTP server override (default: ` + timeauth.DefaultNTPServer + `)
  --harden             additionally time-lock the content key to the drand
                       beacon, making early decryption cryptographically
                       impossible (requires --authority drand or quorum)
  -v                   verbose logging

The password is prompted without echo, or taken from LOCKBOX_PASSWORD.
Opening requires the trusted time source to be reachable; there is no
fallback to the local clock.`

// passwordEnvVar lets scripts supply the password non-interactively.
const passwordEnvVar = "LOCKBOX_PASSWORD"

func main() {
	if len(os.Args) < 2 {
		runInteractive()
		return
	}

	switch command := os.Args[1]; command {
	case "seal":
		handleSeal(os.Args[2:])
	case "open":
		handleOpen(os.Args[2:])
	case "status":
		handleStatus(os.Args[2:])
	case "help", "--help", "-h":
		fmt.Println(usageText)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(1)
	}
}

// authorityFlags holds the flags shared by every subcommand that needs
// trusted time.
type authorityFlags struct {
	name      *string
	ntpServer *string
}

func addAuthorityFlags(fs *flag.FlagSet) authorityFlags {
	return authorityFlags{
		name:      fs.String("authority", "ntp", "trusted time source: ntp, drand, or quorum"),
		ntpServer: fs.String("ntp-server", "", "NTP server override"),
	}
}

func (a authorityFlags) build() timeauth.Authority {
	authority, err := timeauth.New(*a.name, *a.ntpServer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return authority
}

func newLogger(verbose bool) logging.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return logging.NewTextLogger(os.Stderr, level).With("op_id", uuid.NewString())
}

func handleSeal(args []string) {
	fs := flag.NewFlagSet("seal", flag.ExitOnError)
	until := fs.String("until", "", "RFC3339 expiry timestamp")
	out := fs.String("out", "", "output path for the container")
	harden := fs.Bool("harden", false, "time-lock the content key to the drand beacon")
	verbose := fs.Bool("v", false, "verbose logging")
	auth := addAuthorityFlags(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lockbox seal <path> --until <time> [--out <path>] [--authority <name>] [--harden]")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *until == "" {
		fmt.Fprintln(os.Stderr, "error: --until is required")
		fs.Usage()
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "error: exactly one input path is required")
		fs.Usage()
		os.Exit(1)
	}
	inputPath := fs.Arg(0)

	expiry, err := lockbox.ParseExpiry(*until)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	password, err := getPassword("Enter encryption password: ", true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "warning: empty password offers no protection once the expiry passes")
	}

	outPath := *out
	if outPath == "" {
		outPath = lockbox.ContainerName(".", inputPath)
	}

	log := newLogger(*verbose)
	if err := runSeal(context.Background(), log, inputPath, outPath, expiry, password, *harden, auth.build()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Lockbox saved to %s\n", outPath)
}

func runSeal(ctx context.Context, log logging.Logger, inputPath, outPath string, expiry time.Time, password string, harden bool, authority timeauth.Authority) error {
	content, err := lockbox.ReadInput(inputPath)
	if err != nil {
		return err
	}

	name, ext := lockbox.SplitSourceName(inputPath)
	log.Debug(ctx, "sealing file", "path", inputPath, "expiry", expiry, "hardened", harden)

	container, err := lockbox.Seal(ctx, lockbox.SealRequest{
		Name:     name,
		Ext:      ext,
		Content:  content,
		Expiry:   expiry,
		Password: password,
		Harden:   harden,
	}, authority)
	if err != nil {
		return err
	}

	if err := lockbox.WriteFileAtomic(outPath, container, 0600); err != nil {
		return err
	}
	log.Info(ctx, "container sealed", "out", outPath, "bytes", len(container))
	return nil
}

func handleOpen(args []string) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	outDir := fs.String("out-dir", ".", "directory for the decrypted file")
	verbose := fs.Bool("v", false, "verbose logging")
	auth := addAuthorityFlags(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lockbox open <path> [--out-dir <dir>] [--authority <name>]")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "error: exactly one container path is required")
		fs.Usage()
		os.Exit(1)
	}

	containerPath, err := lockbox.ResolveContainerPath(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	password, err := getPassword("Enter decryption password: ", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(*verbose)
	outPath, err := runOpen(context.Background(), log, containerPath, *outDir, password, auth.build())
	if err != nil {
		reportOpenError(err)
		os.Exit(1)
	}
	fmt.Printf("File successfully decrypted and saved to %s\n", outPath)
}

func runOpen(ctx context.Context, log logging.Logger, containerPath, outDir, password string, authority timeauth.Authority) (string, error) {
	containerBytes, err := os.ReadFile(containerPath)
	if err != nil {
		return "", fmt.Errorf("cannot read container: %w", err)
	}

	log.Debug(ctx, "opening container", "path", containerPath, "authority", authority.Name())
	f, err := lockbox.Open(ctx, containerBytes, password, authority)
	if err != nil {
		return "", err
	}

	outPath := lockbox.DecryptedName(outDir, f)
	if err := lockbox.WriteFileAtomic(outPath, f.Content, 0600); err != nil {
		return "", err
	}
	log.Info(ctx, "container opened", "out", outPath, "bytes", len(f.Content))
	return outPath, nil
}

// reportOpenError maps the protocol's error taxonomy to distinct user-facing
// messages. The integrity message stays deliberately vague.
func reportOpenError(err error) {
	var stillLocked *lockbox.StillLockedError
	switch {
	case errors.As(err, &stillLocked):
		fmt.Fprintf(os.Stderr, "The timer has not expired yet. Expiration date: %s (trusted time: %s)\n",
			stillLocked.Expiry.Format(time.RFC3339), stillLocked.Now.Format(time.RFC3339))
	case errors.Is(err, lockbox.ErrTimeUnavailable):
		fmt.Fprintln(os.Stderr, "Could not fetch trusted time; aborting for safety.")
	case errors.Is(err, lockbox.ErrIntegrity):
		fmt.Fprintln(os.Stderr, "Integrity check failed: file tampered or wrong password.")
	case errors.Is(err, lockbox.ErrMalformedContainer):
		fmt.Fprintf(os.Stderr, "Not a valid lockbox container: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func handleStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	auth := addAuthorityFlags(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lockbox status <path> [--authority <name>]")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "error: exactly one container path is required")
		fs.Usage()
		os.Exit(1)
	}

	containerPath, err := lockbox.ResolveContainerPath(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	containerBytes, err := os.ReadFile(containerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read container: %v\n", err)
		os.Exit(1)
	}

	info, err := lockbox.Inspect(containerBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("expiry: %s\nhardened: %v\nciphertext: %d bytes\n",
		info.Expiry.Format(time.RFC3339), info.Hardened, info.CiphertextLen)

	now, err := auth.build().Now(context.Background())
	if err != nil {
		fmt.Printf("state: unknown (trusted time unavailable: %v)\n", err)
		os.Exit(1)
	}
	if now.Before(info.Expiry) {
		fmt.Printf("state: locked for another %s\n", info.Expiry.Sub(now).Round(time.Second))
	} else {
		fmt.Println("state: unlockable")
	}
}
