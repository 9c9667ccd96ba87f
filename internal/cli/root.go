package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/pillbox/internal/backup"
	"github.com/julianstephens/pillbox/internal/config"
	"github.com/julianstephens/pillbox/internal/constants"
	pberrors "github.com/julianstephens/pillbox/internal/errors"
	"github.com/julianstephens/pillbox/internal/keyring"
	"github.com/julianstephens/pillbox/internal/logger"
	"github.com/julianstephens/pillbox/internal/notifier"
	"github.com/julianstephens/pillbox/internal/reminder"
	"github.com/julianstephens/pillbox/internal/storage"
	"github.com/julianstephens/pillbox/internal/storage/postgres"
	"github.com/julianstephens/pillbox/internal/storage/sqlite"
	"github.com/julianstephens/pillbox/internal/tracker"
	"github.com/julianstephens/pillbox/internal/utils"
)

// KeyringStore selects the PostgreSQL connection string kept in the OS keyring.
const KeyringStore = "keyring"

type Context struct {
	Store  storage.Gateway
	Config config.Config
	Clock  clockwork.Clock
	Loc    *time.Location
	Out    io.Writer
	In     io.Reader

	// Notifier overrides the configured notification channel.
	Notifier notifier.Notifier
}

func NewContext(store storage.Gateway, cfg config.Config) (*Context, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Context{
		Store:  store,
		Config: cfg,
		Clock:  clockwork.NewRealClock(),
		Loc:    loc,
		Out:    os.Stdout,
		In:     os.Stdin,
	}, nil
}

// ResolveStorePath picks the store location: the --config flag, then
// PILLBOX_DB_CONNECTION, then the default SQLite path.
func ResolveStorePath(flag string, cfg config.Config) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	if cfg.DBConnection != "" {
		return cfg.DBConnection
	}
	return constants.DefaultConfigPath
}

// NewGateway builds the storage backend for path. PostgreSQL connection
// strings must not carry a password unless they come from the keyring.
func NewGateway(path string) (storage.Gateway, error) {
	path = strings.TrimSpace(path)
	switch {
	case path == KeyringStore:
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			return nil, pberrors.WithHint(err, "store one with 'pillbox keyring set connection <conn>'")
		}
		return postgres.New(connStr), nil
	case postgres.IsConnString(path):
		if _, err := postgres.ValidateConnString(path); err != nil {
			return nil, pberrors.WithHint(err, "keep the password in ~/.pgpass, PGPASSWORD, or use --config keyring")
		}
		return postgres.New(path), nil
	case path == storage.MemoryPath:
		return storage.NewMemoryStore(), nil
	}

	expanded, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(expanded), ".json") {
		return storage.NewJSONStore(expanded), nil
	}
	return sqlite.NewStore(expanded), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ConfigDir is where logs live: next to a file store, or the user config dir
// for remote and in-memory stores.
func ConfigDir(store storage.Gateway) string {
	if isFileStore(store) {
		return filepath.Dir(store.GetConfigPath())
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, constants.AppName)
	}
	return os.TempDir()
}

func isFileStore(store storage.Gateway) bool {
	switch store.(type) {
	case *sqlite.Store, *storage.JSONStore:
		return true
	}
	return false
}

// OpenTracker loads the store and the tracker state, seeding defaults on
// first run.
func (c *Context) OpenTracker(ctx context.Context) (*tracker.Tracker, error) {
	if err := c.Store.Load(); err != nil {
		return nil, err
	}
	tr := tracker.New(c.Store, tracker.WithClock(c.Clock), tracker.WithLocation(c.Loc))
	if err := tr.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load supplements: %w", err)
	}
	return tr, nil
}

// Now returns the current time in the configured zone.
func (c *Context) Now() time.Time {
	return c.Clock.Now().In(c.Loc)
}

func (c *Context) Today() string {
	return utils.TodayKey(c.Now())
}

// BuildNotifier returns the configured channel wrapped so that a tagged
// reminder goes out at most once per day across processes.
func (c *Context) BuildNotifier() (*notifier.Dedupe, error) {
	n := c.Notifier
	if n == nil {
		var err error
		if n, err = c.channel(); err != nil {
			return nil, err
		}
	}
	return notifier.NewDedupe(n, c.Store, c.Today), nil
}

func (c *Context) channel() (notifier.Notifier, error) {
	switch c.Config.Notifier {
	case notifier.KindConsole:
		return notifier.NewConsole(c.Out), nil
	case notifier.KindTelegram:
		token := c.Config.TelegramToken
		if token == "" {
			stored, err := keyring.Get(keyring.SecretTelegramToken)
			if err != nil && !errors.Is(err, keyring.ErrNotFound) {
				logger.Warn("Unable to read Telegram token from keyring", "error", err)
			}
			token = stored
		}
		if token == "" || c.Config.TelegramChatID == 0 {
			return nil, pberrors.WithHint(
				errors.New("telegram notifier needs a bot token and chat id"),
				"set PILLBOX_TELEGRAM_TOKEN (or 'pillbox keyring set telegram <token>') and PILLBOX_TELEGRAM_CHAT_ID",
			)
		}
		return notifier.NewTelegram(token, c.Config.TelegramChatID), nil
	default:
		return notifier.NewTray(), nil
	}
}

// NewScheduler builds a reminder scheduler reading items from the store.
func (c *Context) NewScheduler(n notifier.Notifier, opts ...reminder.Option) *reminder.Scheduler {
	base := []reminder.Option{reminder.WithClock(c.Clock), reminder.WithLocation(c.Loc)}
	return reminder.New(n, reminder.GatewaySource(c.Store), append(base, opts...)...)
}

// PerformAutomaticBackup creates a backup of file stores and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	if !isFileStore(c.Store) {
		return
	}
	if _, err := backup.NewManager(c.Store.GetConfigPath()).CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// warnOnSaveError reports a failed write after an in-memory change.
func (c *Context) warnOnSaveError(tr *tracker.Tracker) {
	if err := tr.Err(); err != nil {
		pberrors.Warn(os.Stderr, fmt.Errorf("change applied but not saved: %w", err))
	}
}

// resolve finds a supplement by id or name.
func resolve(tr *tracker.Tracker, ref string) (string, error) {
	s, ok := tr.Find(ref)
	if !ok {
		return "", pberrors.WithHint(fmt.Errorf("%w: %q", tracker.ErrNotFound, ref), "see 'pillbox list' for ids and names")
	}
	return s.ID, nil
}
