package notifier

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Permission is the user's consent for a notification channel.
type Permission string

const (
	// PermissionDefault means the user has not decided yet; asking is allowed.
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notification is a single user-visible message. Tag identifies the kind of
// notification so repeated deliveries can be collapsed.
type Notification struct {
	Title string
	Body  string
	Tag   string
}

// Text renders the notification as a single line.
func (n Notification) Text() string {
	if n.Title == "" {
		return n.Body
	}
	return n.Title + ": " + n.Body
}

// Notifier delivers notifications through one channel.
type Notifier interface {
	Permission(ctx context.Context) Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(ctx context.Context, n Notification) error
}

// Kind names a notifier implementation in configuration.
type Kind string

const (
	KindTray     Kind = "tray"
	KindTelegram Kind = "telegram"
	KindConsole  Kind = "console"
)

// ParseKind validates a configured notifier name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindTray, KindTelegram, KindConsole:
		return k, nil
	case "":
		return KindTray, nil
	default:
		return "", fmt.Errorf("unknown notifier %q (want tray, telegram or console)", s)
	}
}

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))

// Console prints notifications to a writer. It never needs permission.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Permission(context.Context) Permission {
	return PermissionGranted
}

func (c *Console) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (c *Console) Notify(_ context.Context, n Notification) error {
	_, err := fmt.Fprintf(c.w, "🔔 %s %s\n", titleStyle.Render(n.Title), n.Body)
	return err
}
