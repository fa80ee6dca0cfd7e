package store

import "go.uber.org/zap"

// Kind classifies a user-facing notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notifier is the one-way output port for user-facing messages.
// Implementations should return quickly; the store calls them after the
// state has been committed and ignores their errors.
type Notifier interface {
	Notify(kind Kind, message string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind Kind, message string) error

// Notify calls f(kind, message).
func (f NotifierFunc) Notify(kind Kind, message string) error {
	return f(kind, message)
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	Log *zap.Logger
}

// Notify logs message at info level, or warn for KindError.
func (n LogNotifier) Notify(kind Kind, message string) error {
	if kind == KindError {
		n.Log.Warn(message, zap.String("kind", string(kind)))
		return nil
	}
	n.Log.Info(message, zap.String("kind", string(kind)))
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(Kind, string) error { return nil }
