package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/pillbox/internal/constants"
)

// Secret names a credential stored under the pillbox keyring service.
type Secret string

const (
	// SecretConnection is the PostgreSQL connection string.
	SecretConnection Secret = constants.DefaultKeyringUser
	// SecretTelegramToken is the Telegram bot token for the telegram notifier.
	SecretTelegramToken Secret = "telegram-token"
)

// Secrets lists every credential pillbox may keep in the keyring.
var Secrets = []Secret{SecretConnection, SecretTelegramToken}

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// ParseSecret maps a user-facing name onto a known secret.
func ParseSecret(name string) (Secret, error) {
	switch name {
	case "connection", string(SecretConnection):
		return SecretConnection, nil
	case "telegram", string(SecretTelegramToken):
		return SecretTelegramToken, nil
	}
	return "", fmt.Errorf("unknown secret %q (want connection or telegram)", name)
}

func Get(s Secret) (string, error) {
	value, err := keyring.Get(constants.AppName, string(s))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

func Set(s Secret, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", s)
	}
	if err := keyring.Set(constants.AppName, string(s), value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", s, err)
	}
	return nil
}

func Delete(s Secret) error {
	if err := keyring.Delete(constants.AppName, string(s)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", s, err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string from the OS keyring.
// Returns ErrNotFound if no credentials are stored.
func GetConnectionString() (string, error) {
	return Get(SecretConnection)
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
