package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"libraryapp/pkg/clock"
	"libraryapp/pkg/queue"
)

// RetryingNotifier hands messages to next and parks failed ones for later
// redelivery by Run. Notify still reports the first failure to the caller.
type RetryingNotifier struct {
	next        Notifier
	queue       *queue.Queue[Message]
	clock       clock.Clock
	logger      *log.Logger
	backoff     time.Duration
	maxBackoff  time.Duration
	maxAttempts int
}

type RetryOption func(*RetryingNotifier)

func WithBackoff(d time.Duration) RetryOption {
	return func(n *RetryingNotifier) {
		if d > 0 {
			n.backoff = d
		}
	}
}

// WithMaxBackoff caps the delay between two redeliveries.
func WithMaxBackoff(d time.Duration) RetryOption {
	return func(n *RetryingNotifier) {
		if d > 0 {
			n.maxBackoff = d
		}
	}
}

func WithMaxAttempts(attempts int) RetryOption {
	return func(n *RetryingNotifier) {
		if attempts > 0 {
			n.maxAttempts = attempts
		}
	}
}

func WithRetryLogger(logger *log.Logger) RetryOption {
	return func(n *RetryingNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func NewRetryingNotifier(next Notifier, clk clock.Clock, opts ...RetryOption) *RetryingNotifier {
	n := &RetryingNotifier{
		next:        next,
		queue:       queue.New[Message](),
		clock:       clk,
		logger:      log.Default(),
		backoff:     30 * time.Second,
		maxBackoff:  time.Hour,
		maxAttempts: 5,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *RetryingNotifier) Notify(ctx context.Context, msg Message) error {
	err := n.next.Notify(ctx, msg)
	if err != nil {
		n.reschedule(queue.Item[Message]{ID: uuid.New().String(), Value: msg, Attempts: 1}, err)
	}
	return err
}

// Pending reports how many messages wait for redelivery.
func (n *RetryingNotifier) Pending() int {
	return n.queue.Size()
}

// RetryDue redelivers every message whose retry time has come.
func (n *RetryingNotifier) RetryDue(ctx context.Context) (delivered int) {
	for _, item := range n.queue.DrainDue(n.clock.Now()) {
		if err := n.next.Notify(ctx, item.Value); err != nil {
			item.Attempts++
			n.reschedule(item, err)
			continue
		}
		delivered++
	}
	return delivered
}

// Run calls RetryDue every interval until ctx is done.
func (n *RetryingNotifier) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if delivered := n.RetryDue(ctx); delivered > 0 {
				n.logger.Printf("notify: redelivered %d message(s), %d pending", delivered, n.queue.Size())
			}
		}
	}
}

func (n *RetryingNotifier) reschedule(item queue.Item[Message], cause error) {
	if item.Attempts >= n.maxAttempts {
		n.logger.Printf("notify: dropping %s for member %s after %d attempts: %v",
			item.Value.Template, item.Value.MemberUid, item.Attempts, cause)
		return
	}
	item.RetryAt = n.clock.Now().Add(n.delay(item.Attempts))
	n.queue.Enqueue(item)
	n.logger.Printf("notify: %s for member %s failed (attempt %d), retry at %s: %v",
		item.Value.Template, item.Value.MemberUid, item.Attempts, item.RetryAt.Format(time.RFC3339), cause)
}

// delay doubles the backoff per failed attempt, capped at maxBackoff.
func (n *RetryingNotifier) delay(attempts int) time.Duration {
	d := n.backoff
	for i := 1; i < attempts; i++ {
		if d >= n.maxBackoff/2 {
			return n.maxBackoff
		}
		d *= 2
	}
	if d > n.maxBackoff {
		return n.maxBackoff
	}
	return d
}
