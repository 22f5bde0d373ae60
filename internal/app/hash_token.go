package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/moodworks/autopub/internal/auth"
)

// runHashToken prints a bcrypt hash for ADMIN_TOKEN_HASH. Without --token it
// also generates a fresh random token.
func runHashToken(args []string) int {
	fs := flag.NewFlagSet("hash-token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	token := fs.String("token", "", "Token to hash (a random one is generated when empty)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	value := *token
	generated := false
	if value == "" {
		var err error
		value, err = auth.GenerateToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
			return 1
		}
		generated = true
	}

	hash, err := auth.HashToken(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash token: %v\n", err)
		return 1
	}

	if generated {
		fmt.Printf("Token: %s\n", value)
	}
	fmt.Printf("ADMIN_TOKEN_HASH=%s\n", hash)
	return 0
}
