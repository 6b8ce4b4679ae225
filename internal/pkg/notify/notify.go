// Package notify provides sinks for user-facing cart notifications.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-sync/internal/domain/cart"
)

// LogNotifier writes notifications to a logrus logger, mapping severity to
// the log level.
type LogNotifier struct {
	logger logrus.FieldLogger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements cart.Notifier
func (n *LogNotifier) Notify(_ context.Context, msg cart.Notification) {
	entry := n.logger.WithFields(logrus.Fields{
		"title":    msg.Title,
		"severity": msg.Severity,
	})

	switch msg.Severity {
	case cart.SeverityError:
		entry.Error(msg.Message)
	case cart.SeverityWarning:
		entry.Warn(msg.Message)
	default:
		entry.Info(msg.Message)
	}
}

// WriterNotifier prints one line per notification, e.g. to a terminal.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier writing to w
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify implements cart.Notifier
func (n *WriterNotifier) Notify(_ context.Context, msg cart.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "[%s] %s: %s\n", msg.Severity, msg.Title, msg.Message)
}

// Multi fans each notification out to every sink in order.
type Multi []cart.Notifier

// Notify implements cart.Notifier
func (m Multi) Notify(ctx context.Context, msg cart.Notification) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, msg)
		}
	}
}

// MinSeverity drops notifications below the given severity.
func MinSeverity(min cart.Severity, next cart.Notifier) cart.Notifier {
	return &threshold{min: rank(min), next: next}
}

type threshold struct {
	min  int
	next cart.Notifier
}

func (t *threshold) Notify(ctx context.Context, msg cart.Notification) {
	if rank(msg.Severity) >= t.min {
		t.next.Notify(ctx, msg)
	}
}

func rank(s cart.Severity) int {
	switch s {
	case cart.SeverityError:
		return 2
	case cart.SeverityWarning:
		return 1
	default:
		return 0
	}
}
