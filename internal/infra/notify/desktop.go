// Package notify delivers shopper alerts outside the service log.
package notify

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/gen2brain/beeep"
)

const (
	appName = "Voice Cart"

	maxMessageRunes = 200
)

// Desktop pops a system notification.
type Desktop struct {
	send func(title, message, icon string) error
}

func NewDesktop() *Desktop {
	return &Desktop{send: func(title, message, icon string) error {
		return beeep.Notify(title, message, icon)
	}}
}

func (d *Desktop) Notify(_ context.Context, message string) error {
	if utf8.RuneCountInString(message) > maxMessageRunes {
		message = string([]rune(message)[:maxMessageRunes]) + "..."
	}
	return d.send(appName, message, "")
}

type notifier interface {
	Notify(ctx context.Context, message string) error
}

// Multi fans an alert out to every notifier and joins their errors.
type Multi []notifier

func (m Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
