// Package keyring keeps secrets such as the company identity token in the OS
// keyring instead of the settings table.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/moodlit/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Store reads and writes one secret per account under a single service name.
type Store struct {
	service string
	account string
}

// Identity returns the store for the company identity token.
func Identity() *Store {
	return &Store{service: constants.AppName, account: constants.DefaultKeyringUser}
}

// Account returns a store for another secret of this application, e.g. the
// server's token signing key.
func Account(account string) *Store {
	return &Store{service: constants.AppName, account: account}
}

// Get returns the stored secret or ErrNotFound.
func (s *Store) Get() (string, error) {
	secret, err := keyring.Get(s.service, s.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func (s *Store) Set(secret string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", s.account)
	}
	if err := keyring.Set(s.service, s.account, secret); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// Delete removes the secret. Deleting a missing secret returns ErrNotFound.
func (s *Store) Delete() error {
	err := keyring.Delete(s.service, s.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	// ErrNotFound means the keyring answered but is empty.
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
