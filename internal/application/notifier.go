package application

import (
	"context"
	"log/slog"
)

// Notifier surfaces user-visible alerts.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}

// LogNotifier writes alerts to the service log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, message string) error {
	n.Logger.Warn("alert", "message", message)
	return nil
}
