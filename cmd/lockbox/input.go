package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// getPassword returns the password from LOCKBOX_PASSWORD when set, otherwise
// prompts on the terminal without echo. With confirm set, the password must
// be typed twice and match.
func getPassword(prompt string, confirm bool) (string, error) {
	if env, ok := os.LookupEnv(passwordEnvVar); ok {
		return env, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("stdin is not a terminal; set %s to supply the password", passwordEnvVar)
	}

	pw, err := promptPassword(prompt)
	if err != nil {
		return "", err
	}
	if !confirm {
		return pw, nil
	}

	again, err := promptPassword("Repeat password: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("cannot read password: %w", err)
	}
	return string(pw), nil
}

// promptLine prints a prompt and reads one line of input, trimming the
// trailing newline. A partial line at EOF is still returned.
func promptLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
