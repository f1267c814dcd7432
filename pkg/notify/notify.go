// Package notify delivers request summaries to logs and the findings store.
package notify

import (
	"context"
	"errors"

	"github.com/ammar0144/bullet4go/pkg/association"
	"github.com/ammar0144/bullet4go/pkg/redis"

	"go.uber.org/zap"
)

// Notifier receives the summary of each finished request
type Notifier interface {
	Notify(ctx context.Context, summary association.Summary) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, summary association.Summary) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, summary association.Summary) error {
	return f(ctx, summary)
}

// LogNotifier writes one warning per finding
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs through logger
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier
func (n *LogNotifier) Notify(_ context.Context, summary association.Summary) error {
	base := []zap.Field{zap.String("request_id", summary.RequestID)}
	if summary.Label != "" {
		base = append(base, zap.String("label", summary.Label))
	}

	for _, f := range summary.Unpreloaded {
		n.logger.Warn("N+1 query detected",
			append(base,
				zap.String("model", f.Key.Owner),
				zap.String("association", f.Key.Name),
				zap.Stringer("context", f.Context),
				zap.Int("objects", f.Objects),
				zap.String("fingerprint", f.Fingerprint()),
			)...)
	}
	for _, f := range summary.Unused {
		n.logger.Warn("unused eager loading detected",
			append(base,
				zap.String("model", f.Key.Owner),
				zap.String("association", f.Key.Name),
				zap.Stringer("context", f.Context),
			)...)
	}
	return nil
}

// StoreNotifier persists summaries in the Redis findings store
type StoreNotifier struct {
	store *redis.Manager
}

// NewStoreNotifier creates a notifier backed by store
func NewStoreNotifier(store *redis.Manager) *StoreNotifier {
	return &StoreNotifier{store: store}
}

// Notify implements Notifier
func (n *StoreNotifier) Notify(ctx context.Context, summary association.Summary) error {
	err := n.store.SaveSummary(ctx, summary)
	if redis.IsStoreDisabled(err) {
		return nil
	}
	return err
}

// Multi fans a summary out to every notifier, joining their errors
type Multi []Notifier

// Notify implements Notifier
func (m Multi) Notify(ctx context.Context, summary association.Summary) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
