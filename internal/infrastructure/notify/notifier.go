// Package notify delivers failure reports to operators when an automated
// operation gives up after exhausting its retries.
package notify

import (
	"context"
	"time"
)

// FailureReport describes an operation that failed permanently
type FailureReport struct {
	Operation  string            `json:"operation"`
	Error      string            `json:"error"`
	Attempts   int               `json:"attempts"`
	Context    map[string]string `json:"context,omitempty"`
	Stack      string            `json:"stack,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// FailureNotifier delivers failure reports. Implementations must not panic;
// notification is best-effort and callers ignore delivery errors beyond
// logging them.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, report FailureReport) error
}
