package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/julianstephens/pillbox/internal/notifier"
	"github.com/julianstephens/pillbox/internal/utils"
)

// Environment variables read by FromEnv.
const (
	EnvTimezone          = "PILLBOX_TIMEZONE"
	EnvNotifier          = "PILLBOX_NOTIFIER"
	EnvTelegramToken     = "PILLBOX_TELEGRAM_TOKEN"
	EnvTelegramTokenFile = "PILLBOX_TELEGRAM_TOKEN_FILE"
	EnvTelegramChatID    = "PILLBOX_TELEGRAM_CHAT_ID"
	EnvDBConnection      = "PILLBOX_DB_CONNECTION"
	EnvDebug             = "PILLBOX_DEBUG"
)

// Config is the runtime configuration that does not live in the store.
type Config struct {
	Timezone       string
	Notifier       notifier.Kind
	TelegramToken  string
	TelegramChatID int64
	DBConnection   string
	Debug          bool
}

func Default() Config {
	return Config{
		Timezone: "Local",
		Notifier: notifier.KindTray,
	}
}

// Load reads .env files (".env" when none are given) into the process
// environment and then builds the configuration from it. Variables already
// set in the environment win over the files. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv overlays PILLBOX_* environment variables on Default.
func FromEnv() (Config, error) {
	cfg := Default()

	if tz := strings.TrimSpace(os.Getenv(EnvTimezone)); tz != "" {
		if !utils.ValidateTimezone(tz) {
			return cfg, fmt.Errorf("%s: invalid timezone %q", EnvTimezone, tz)
		}
		cfg.Timezone = tz
	}

	kind, err := notifier.ParseKind(os.Getenv(EnvNotifier))
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", EnvNotifier, err)
	}
	cfg.Notifier = kind

	cfg.TelegramToken = strings.TrimSpace(os.Getenv(EnvTelegramToken))
	if cfg.TelegramToken == "" {
		if path := os.Getenv(EnvTelegramTokenFile); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return cfg, fmt.Errorf("%s: %w", EnvTelegramTokenFile, err)
			}
			cfg.TelegramToken = strings.TrimSpace(string(data))
		}
	}

	if raw := strings.TrimSpace(os.Getenv(EnvTelegramChatID)); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: chat id must be an integer", EnvTelegramChatID)
		}
		cfg.TelegramChatID = id
	}

	cfg.DBConnection = strings.TrimSpace(os.Getenv(EnvDBConnection))

	if raw := os.Getenv(EnvDebug); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvDebug, err)
		}
		cfg.Debug = debug
	}

	return cfg, nil
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}
