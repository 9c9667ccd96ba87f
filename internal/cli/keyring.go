package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/pillbox/internal/keyring"
	"github.com/julianstephens/pillbox/internal/storage/postgres"
)

// KeyringSetCmd stores a secret in the OS keyring
type KeyringSetCmd struct {
	Secret string `arg:"" help:"Secret to store (connection|telegram)." enum:"connection,telegram"`
	Value  string `arg:"" help:"PostgreSQL connection string or Telegram bot token."`
}

func (cmd *KeyringSetCmd) Run(ctx *Context) error {
	secret, err := keyring.ParseSecret(cmd.Secret)
	if err != nil {
		return err
	}

	if secret == keyring.SecretConnection {
		if !postgres.IsConnString(cmd.Value) {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
		if _, err := postgres.ValidateConnString(cmd.Value); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			// The keyring is encrypted, so an embedded password is allowed here.
			fmt.Fprintln(ctx.Out, "⚠️  Warning: Connection string contains embedded credentials.")
			fmt.Fprintln(ctx.Out, "   It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.Set(secret, cmd.Value); err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "✓ %s stored in OS keyring\n", secret)
	if secret == keyring.SecretConnection {
		fmt.Fprintln(ctx.Out, "  Use it with --config keyring")
	}
	return nil
}

// KeyringGetCmd prints a stored secret with passwords masked
type KeyringGetCmd struct {
	Secret string `arg:"" help:"Secret to show (connection|telegram)." enum:"connection,telegram"`
}

func (cmd *KeyringGetCmd) Run(ctx *Context) error {
	secret, err := keyring.ParseSecret(cmd.Secret)
	if err != nil {
		return err
	}

	value, err := keyring.Get(secret)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring. Use 'pillbox keyring set' to store one", secret)
		}
		return err
	}

	if secret == keyring.SecretConnection {
		fmt.Fprintln(ctx.Out, maskPassword(value))
	} else {
		fmt.Fprintln(ctx.Out, maskToken(value))
	}
	return nil
}

// KeyringDeleteCmd removes a secret from the OS keyring
type KeyringDeleteCmd struct {
	Secret string `arg:"" help:"Secret to delete (connection|telegram)." enum:"connection,telegram"`
}

func (cmd *KeyringDeleteCmd) Run(ctx *Context) error {
	secret, err := keyring.ParseSecret(cmd.Secret)
	if err != nil {
		return err
	}

	if err := keyring.Delete(secret); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", secret)
		}
		return err
	}

	fmt.Fprintf(ctx.Out, "✓ %s deleted from OS keyring\n", secret)
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *Context) error {
	if !keyring.IsAvailable() {
		fmt.Fprintln(ctx.Out, "❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}

	fmt.Fprintln(ctx.Out, "✓ OS keyring is available")
	for _, secret := range keyring.Secrets {
		_, err := keyring.Get(secret)
		switch {
		case err == nil:
			fmt.Fprintf(ctx.Out, "✓ %s is stored\n", secret)
		case errors.Is(err, keyring.ErrNotFound):
			fmt.Fprintf(ctx.Out, "ℹ %s is not stored\n", secret)
		default:
			fmt.Fprintf(ctx.Out, "❌ %s: %v\n", secret, err)
		}
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			// The last @ separates user info from host.
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		masked := make([]string, 0, len(parts))
		for _, part := range parts {
			if strings.HasPrefix(part, "password=") {
				masked = append(masked, "password=****")
			} else {
				masked = append(masked, part)
			}
		}
		return strings.Join(masked, " ")
	}

	return connStr
}

// maskToken keeps the bot id prefix of a Telegram token and hides the rest.
func maskToken(token string) string {
	if idx := strings.Index(token, ":"); idx != -1 {
		return token[:idx+1] + "****"
	}
	return "****"
}
