package factory

import (
	"fmt"
	"os"

	"github.com/mikey/cybershield/internal/adapters/filter"
	"github.com/mikey/cybershield/internal/config"
	"github.com/mikey/cybershield/internal/core"
	"github.com/mikey/cybershield/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ThreatService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.ThreatService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailFilter creates an email filter based on the configuration. The
// "none" type yields a nil filter.
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	sc := f.cfg.GetServer()

	switch sc.FilterType {
	case "postfix":
		return filter.NewPostfixFilter(
			f.service,
			f.logger,
			sc.ListenAddress,
			sc.BlockPhishing,
			filter.HeaderNames{
				Status:     sc.Headers.Status,
				Score:      sc.Headers.Score,
				Indicators: sc.Headers.Indicators,
			},
			sc.Postfix.Address,
			sc.Postfix.Port,
			sc.Postfix.Enabled,
			sc.SubjectPrefix,
			sc.ModifySubject,
		), nil
	case "cli":
		cli, err := filter.NewCliFilter(
			f.service,
			f.logger,
			os.Stdout,
			f.cfg.GetString("cli.format"),
			f.cfg.GetBool("cli.verbose"),
		)
		if err != nil {
			return nil, err
		}
		return cli, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", sc.FilterType)
	}
}
