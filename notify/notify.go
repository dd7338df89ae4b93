package notify

import (
	"fmt"
	"log/slog"

	"github.com/gregdel/pushover"
)

// Notifier tells the operator about things they need to act on
type Notifier interface {
	Notify(title, message string) error
}

// New returns a Pushover notifier, or one that only logs when Pushover
// isn't configured
func New(token, recipient string) Notifier {
	if token == "" || recipient == "" {
		return Log{}
	}
	return &Pushover{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(recipient),
	}
}

type Log struct{}

func (Log) Notify(title, message string) error {
	slog.Debug("Pushover is not configured, skipping notification", slog.String("title", title))
	return nil
}

type Pushover struct {
	app       *pushover.Pushover
	recipient *pushover.Recipient
}

func (p *Pushover) Notify(title, message string) error {
	_, err := p.app.SendMessage(newMessage(title, message), p.recipient)
	if err != nil {
		return fmt.Errorf("failed to send pushover notification: %w", err)
	}
	return nil
}

func newMessage(title, message string) *pushover.Message {
	return &pushover.Message{
		Title:    title,
		Message:  message,
		Priority: pushover.PriorityHigh,
	}
}
