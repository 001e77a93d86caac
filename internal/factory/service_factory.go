package factory

import (
	"github.com/mikey/cybershield/internal/config"
	"github.com/mikey/cybershield/internal/core"
	"github.com/mikey/cybershield/internal/phishing"
	"github.com/mikey/cybershield/internal/utils"
	"github.com/mikey/cybershield/internal/website"
	"github.com/mikey/cybershield/internal/whitelist"
	"go.uber.org/zap"
)

// ServiceDeps are the collaborators of the threat service
type ServiceDeps struct {
	Store    core.Store
	Notifier core.Notifier
	Events   core.EventPublisher
	Dedup    core.Deduplicator
	Text     *utils.TextProcessor
}

// CreateThreatService wires the risk engines and collaborators into a
// threat service configured from cfg
func CreateThreatService(cfg *config.Config, logger *zap.Logger, deps ServiceDeps) *core.ThreatService {
	analysis := cfg.GetAnalysis()
	opts := core.ServiceOptions{
		Exemptions:    whitelist.NewChecker(analysis.ExemptDomains, logger),
		MaxBodySize:   analysis.MaxBodySize,
		DefaultScheme: cfg.GetDefaultScheme(),
	}
	if deps.Text != nil {
		opts.Text = deps.Text
	}

	return core.NewThreatService(
		phishing.NewEngine(),
		website.NewEngine(),
		deps.Store,
		deps.Notifier,
		deps.Events,
		deps.Dedup,
		logger,
		opts,
	)
}
