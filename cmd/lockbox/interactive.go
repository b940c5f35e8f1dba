package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/textandchord/lockbox/internal/lockbox"
	"github.com/textandchord/lockbox/internal/timeauth"
)

// runInteractive drives the menu-based front end: a loop that maps user
// choices to seal and open operations until the user exits.
func runInteractive() {
	reader := bufio.NewReader(os.Stdin)
	ctx := context.Background()

	for {
		choice, err := promptLine(reader, "- [1] for seal  - [2] for open  - [3] for exit\nChoose: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}

		switch choice {
		case "1":
			interactiveSeal(ctx, reader)
		case "2":
			interactiveOpen(ctx, reader)
		case "3":
			fmt.Println("Exit.")
			return
		default:
			fmt.Println("Invalid choice. Please enter 1, 2, or 3.")
		}
	}
}

func interactiveSeal(ctx context.Context, reader *bufio.Reader) {
	expiry, err := promptExpiry(reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	inputPath, err := promptLine(reader, "Enter path to file to encrypt: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	password, err := getPassword("Enter encryption password: ", true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	outPath := lockbox.ContainerName(".", inputPath)
	log := newLogger(false)
	if err := runSeal(ctx, log, inputPath, outPath, expiry, password, false, defaultAuthority()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Printf("Lockbox saved to %s\n", outPath)
}

func interactiveOpen(ctx context.Context, reader *bufio.Reader) {
	name, err := promptLine(reader, "Enter lockbox filename: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	containerPath, err := lockbox.ResolveContainerPath(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	password, err := getPassword("Enter decryption password: ", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	log := newLogger(false)
	outPath, err := runOpen(ctx, log, containerPath, ".", password, defaultAuthority())
	if err != nil {
		reportOpenError(err)
		return
	}
	fmt.Printf("File successfully decrypted and saved to %s\n", outPath)
}

// promptExpiry loops until the user enters a valid future RFC3339 timestamp.
func promptExpiry(reader *bufio.Reader) (time.Time, error) {
	for {
		s, err := promptLine(reader, "Enter expiry time (RFC3339, e.g. 2026-12-31T15:00:00Z): ")
		if err != nil {
			return time.Time{}, err
		}
		expiry, err := lockbox.ParseExpiry(s)
		if err != nil {
			fmt.Printf("%v. Please try again.\n", err)
			continue
		}
		return expiry, nil
	}
}

func defaultAuthority() timeauth.Authority {
	return timeauth.NewDefaultAuthority()
}
