package factory

import (
	"fmt"

	"github.com/mikey/cybershield/internal/adapters/notify"
	"github.com/mikey/cybershield/internal/config"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

// NotifierFactory creates alert notifiers based on configuration
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier returns the configured notifier, or nil when alerts are
// disabled
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	ac, err := f.cfg.GetAlerts()
	if err != nil {
		return nil, err
	}
	if !ac.Enabled {
		return nil, nil
	}

	switch ac.Type {
	case "log":
		return notify.NewLogNotifier(f.logger), nil
	case "smtp":
		return notify.NewSMTPNotifier(
			f.logger,
			ac.SMTPAddress,
			ac.SMTPPort,
			ac.Username,
			ac.Password,
			ac.From,
			ac.To,
			ac.StartTLS,
		), nil
	default:
		return nil, fmt.Errorf("unsupported alert type: %s", ac.Type)
	}
}
