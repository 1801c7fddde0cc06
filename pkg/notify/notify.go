package notify

import (
	"context"
	"log"
	"sort"
	"strings"
)

// Template keys understood by downstream senders.
const (
	TemplateBookAvailable = "book_available"
	TemplateLoanOverdue   = "loan_overdue"
)

// Message addresses one member. Rendering the template is the receiver's job.
type Message struct {
	MemberUid string            `json:"memberUid"`
	Recipient string            `json:"recipient"`
	Template  string            `json:"template"`
	Params    map[string]string `json:"params,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier only records messages in the log.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Printf("notify %s member=%s recipient=%s %s", msg.Template, msg.MemberUid, msg.Recipient, formatParams(msg.Params))
	return nil
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, " ")
}
