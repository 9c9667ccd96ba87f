package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/julianstephens/pillbox/internal/logger"
)

// Telegram sends reminders as bot messages to a single chat. The bot token is
// verified lazily: until getMe succeeds the permission stays default.
type Telegram struct {
	token    string
	chatID   int64
	endpoint string
	client   *http.Client

	mu         sync.Mutex
	bot        *tgbotapi.BotAPI
	permission Permission
}

type TelegramOption func(*Telegram)

// WithEndpoint overrides the Bot API endpoint format (see tgbotapi.APIEndpoint).
func WithEndpoint(endpoint string) TelegramOption {
	return func(t *Telegram) { t.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client used for Bot API calls.
func WithHTTPClient(c *http.Client) TelegramOption {
	return func(t *Telegram) { t.client = c }
}

func NewTelegram(token string, chatID int64, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		token:      token,
		chatID:     chatID,
		endpoint:   tgbotapi.APIEndpoint,
		client:     &http.Client{},
		permission: PermissionDefault,
	}
	if token == "" || chatID == 0 {
		t.permission = PermissionDenied
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Telegram) Permission(context.Context) Permission {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.permission
}

// RequestPermission verifies the bot token. An API rejection denies the
// channel; a transport failure leaves it undecided and returns the error.
func (t *Telegram) RequestPermission(context.Context) (Permission, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.permission != PermissionDefault {
		return t.permission, nil
	}

	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
	if err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			logger.Warn("Telegram rejected the bot token", "error", apiErr.Message)
			t.permission = PermissionDenied
			return t.permission, nil
		}
		return t.permission, fmt.Errorf("failed to reach Telegram: %w", err)
	}

	logger.Debug("Telegram bot verified", "username", bot.Self.UserName)
	t.bot = bot
	t.permission = PermissionGranted
	return t.permission, nil
}

func (t *Telegram) Notify(ctx context.Context, n Notification) error {
	if p, err := t.RequestPermission(ctx); err != nil {
		return err
	} else if p != PermissionGranted {
		return errors.New("telegram notifications are not permitted")
	}

	t.mu.Lock()
	bot := t.bot
	t.mu.Unlock()

	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("*%s*\n%s", n.Title, n.Body))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
