// Gensecret prints a random secret key.
// With --admin it prints admin bearer token signed with --secret-key instead
package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/recharge/internal/service/auth"
)

const SecretKeyBytesLen = 32

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	admin := fs.String("admin", "", "Issue admin token for the subject")
	secret := fs.StringP("secret-key", "s", os.Getenv("SECRET_KEY"), "Secret key to sign admin token with")
	ttl := fs.Duration("ttl", 24*time.Hour, "Admin token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *admin == "" {
		key, err := secretKey()
		if err != nil {
			return fmt.Errorf("error while generating secret key: %w", err)
		}
		_, err = fmt.Fprintln(out, key)
		return err
	}

	if *secret == "" {
		return errors.New("secret key is required to sign admin token")
	}

	tokens, err := auth.New(auth.Config{SecretKey: *secret, TTL: *ttl})
	if err != nil {
		return err
	}
	token, err := tokens.Issue(*admin)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token.Value)
	return err
}

func secretKey() (string, error) {
	b := make([]byte, SecretKeyBytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
