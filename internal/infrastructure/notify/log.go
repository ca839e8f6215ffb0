package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes failure reports to the application log. Used as the
// default sink when no webhook is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by the application log
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// NotifyFailure logs the report at error level
func (n *LogNotifier) NotifyFailure(_ context.Context, report FailureReport) error {
	fields := []zap.Field{
		zap.String("operation", report.Operation),
		zap.String("error", report.Error),
		zap.Int("attempts", report.Attempts),
		zap.Time("occurred_at", report.OccurredAt),
	}
	for key, value := range report.Context {
		fields = append(fields, zap.String(key, value))
	}
	n.logger.Error("Operation failed permanently", fields...)
	return nil
}

// Ensure LogNotifier implements FailureNotifier
var _ FailureNotifier = (*LogNotifier)(nil)
