package di

import (
	"flag"
	"os"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/cybershield/internal/adapters/filter"
	"github.com/mikey/cybershield/internal/adapters/store"
	"github.com/mikey/cybershield/internal/config"
	"github.com/mikey/cybershield/internal/core"
	"github.com/mikey/cybershield/internal/factory"
	"github.com/mikey/cybershield/internal/logging"
	"github.com/mikey/cybershield/internal/ports"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	InputFile string
	URL       string

	// Output flags
	Format  string
	Verbose bool
	JSONLog bool

	// Analysis flags
	MaxBodySize   int
	ExemptDomains string
	DefaultScheme string

	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	return ParseFlagSet(flag.CommandLine, os.Args[1:])
}

// ParseFlagSet registers the CLI flags on fs and parses args
func ParseFlagSet(fs *flag.FlagSet, args []string) *CLIFlags {
	flags := &CLIFlags{}

	fs.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	fs.StringVar(&flags.URL, "url", "", "Check a website URL instead of an email")

	fs.StringVar(&flags.Format, "format", filter.FormatText, "Output format (text, json, yaml)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output and logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	fs.IntVar(&flags.MaxBodySize, "max-body-size", 65536, "Maximum email body size to analyze")
	fs.StringVar(&flags.ExemptDomains, "exempt", "", "Comma separated sender domains exempt from quarantine")
	fs.StringVar(&flags.DefaultScheme, "default-scheme", "https", "Scheme assumed for URLs without one")

	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	fs.Parse(args)
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.Load(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			v := cfg.GetViper()
			v.Set("server.filter_type", "cli")
			v.Set("cli.format", flags.Format)
			v.Set("cli.verbose", flags.Verbose)
			logger.Info("Loaded configuration from file", zap.String("file", v.ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register threat service with an in-memory store and no alerts
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		tf *factory.TextProcessorFactory,
	) *core.ThreatService {
		return factory.CreateThreatService(cfg, logger, factory.ServiceDeps{
			Store: store.NewMemoryStore(logger, 0, 0),
			Text:  tf.CreateTextProcessor(),
		})
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("server.filter_type", "cli")
	v.Set("cli.format", flags.Format)
	v.Set("cli.verbose", flags.Verbose)

	v.Set("analysis.max_body_size", flags.MaxBodySize)
	v.Set("quarantine.exempt_domains", splitList(flags.ExemptDomains))
	v.Set("website.default_scheme", flags.DefaultScheme)

	return config.NewFromViper(v)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
