package notify

import (
	"context"

	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

// LogNotifier writes alerts to the log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the alert as a warning
func (n *LogNotifier) Notify(_ context.Context, alert *core.Alert) error {
	n.logger.Warn("Security alert",
		zap.String("kind", alert.Kind),
		zap.String("target", alert.Target),
		zap.String("subject", alert.Subject),
		zap.String("severity", string(alert.Severity)),
		zap.Int("score", alert.Score),
		zap.Strings("indicators", alert.Indicators),
		zap.Time("timestamp", alert.Timestamp))
	return nil
}
