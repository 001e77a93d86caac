package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/cybershield/internal/adapters/filter"
	"github.com/mikey/cybershield/internal/di"
	"github.com/mikey/cybershield/internal/ports"
	"go.uber.org/zap"
)

// Exit codes
const (
	exitClean  = 0
	exitError  = 1
	exitThreat = 2
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(exitError)
	}

	code := exitClean
	err = container.Invoke(func(logger *zap.Logger, emailFilter ports.EmailFilter, flags *di.CLIFlags) error {
		defer logger.Sync()

		cli, ok := emailFilter.(*filter.CliFilter)
		if !ok {
			return fmt.Errorf("unexpected filter type %T", emailFilter)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		threat, err := check(ctx, cli, flags, logger)
		if err != nil {
			return err
		}
		if threat {
			code = exitThreat
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
	os.Exit(code)
}

// check runs a website or email check and reports whether a threat was found
func check(ctx context.Context, cli *filter.CliFilter, flags *di.CLIFlags, logger *zap.Logger) (bool, error) {
	if flags.URL != "" {
		result, err := cli.CheckWebsite(ctx, flags.URL)
		if err != nil {
			return false, err
		}
		return result.Analysis.IsMalicious, nil
	}

	var in io.Reader = os.Stdin
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return false, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		in = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		logger.Info("Reading email from stdin")
	}

	result, err := cli.ProcessMessage(ctx, in)
	if err != nil {
		return false, err
	}
	return result.Analysis.IsPhishing, nil
}
