package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Output formats of the CLI filter
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// CliFilter implements a command-line interface for threat checks
type CliFilter struct {
	service *core.ThreatService
	logger  *zap.Logger
	out     io.Writer
	format  string
	verbose bool
}

// NewCliFilter creates a new CLI filter writing results to out
func NewCliFilter(service *core.ThreatService, logger *zap.Logger, out io.Writer, format string, verbose bool) (*CliFilter, error) {
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return &CliFilter{
		service: service,
		logger:  logger,
		out:     out,
		format:  format,
		verbose: verbose,
	}, nil
}

// ProcessMessage parses a raw RFC 5322 message and analyzes it
func (f *CliFilter) ProcessMessage(ctx context.Context, r io.Reader) (*core.StoredEmail, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	parsed, err := ParseMessage(raw)
	if err != nil {
		return nil, err
	}
	return f.ProcessEmail(ctx, &core.IncomingEmail{
		MessageID: parsed.MessageID,
		Source:    core.SourceAPI,
		Record:    parsed.Record,
	})
}

// ProcessEmail analyzes an email and prints the result
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.IncomingEmail) (*core.StoredEmail, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.Record.Sender))

	start := time.Now()
	stored, err := f.service.ProcessEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		return nil, err
	}
	f.logger.Debug("Email analysis finished", zap.Duration("duration", time.Since(start)))

	switch f.format {
	case FormatText:
		f.printEmail(stored)
		return stored, nil
	default:
		return stored, f.encode(stored)
	}
}

// CheckWebsite analyzes a URL and prints the result
func (f *CliFilter) CheckWebsite(ctx context.Context, rawURL string) (*core.WebsiteCheck, error) {
	check, err := f.service.CheckWebsite(ctx, rawURL)
	if err != nil {
		f.logger.Error("Failed to analyze website", zap.Error(err))
		return nil, err
	}

	switch f.format {
	case FormatText:
		f.printWebsite(check)
		return check, nil
	default:
		return check, f.encode(check)
	}
}

func (f *CliFilter) encode(v interface{}) error {
	if f.format == FormatYAML {
		enc := yaml.NewEncoder(f.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func (f *CliFilter) printEmail(email *core.StoredEmail) {
	rec, a := email.Record, email.Analysis

	fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(f.out, "From: %s\n", displaySender(rec))
	fmt.Fprintf(f.out, "To: %s\n", rec.Recipient)
	fmt.Fprintf(f.out, "Subject: %s\n", rec.Subject)
	fmt.Fprintf(f.out, "Body length: %d bytes\n", len(rec.Body))
	if len(rec.Attachments) > 0 {
		names := make([]string, 0, len(rec.Attachments))
		for _, att := range rec.Attachments {
			names = append(names, att.Name)
		}
		fmt.Fprintf(f.out, "Attachments: %s\n", strings.Join(names, ", "))
	}
	if f.verbose {
		fmt.Fprintf(f.out, "SPF: %s  DKIM: %s  DMARC: %s\n", authLabel(rec.SPF), authLabel(rec.DKIM), authLabel(rec.DMARC))
		preview := rec.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", preview)
	}

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Is phishing: %t\n", a.IsPhishing)
	fmt.Fprintf(f.out, "Risk score: %d\n", a.RiskScore)
	fmt.Fprintf(f.out, "Risk tier: %s\n", a.RiskTier)
	fmt.Fprintf(f.out, "Confidence: %d\n", a.Confidence)
	if a.Classification != core.ClassNone {
		fmt.Fprintf(f.out, "Classification: %s\n", a.Classification)
	}
	fmt.Fprintf(f.out, "Domain reputation: %s\n", a.DomainReputation)
	fmt.Fprintf(f.out, "Would quarantine: %t\n", email.Quarantined)
	printIndicators(f.out, a.Indicators)
}

func (f *CliFilter) printWebsite(check *core.WebsiteCheck) {
	a := check.Analysis

	fmt.Fprintf(f.out, "\n=== Website ===\n")
	fmt.Fprintf(f.out, "URL: %s\n", check.URL)
	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Is malicious: %t\n", a.IsMalicious)
	fmt.Fprintf(f.out, "Security score: %d\n", a.SecurityScore)
	fmt.Fprintf(f.out, "Risk level: %s\n", a.RiskLevel)
	fmt.Fprintf(f.out, "Category: %s\n", a.Category)
	fmt.Fprintf(f.out, "Description: %s\n", a.Description)
	fmt.Fprintf(f.out, "Uses HTTPS: %t\n", a.UsesHTTPS)
	fmt.Fprintf(f.out, "Trusted domain: %t\n", a.IsTrustedDomain)
	printIndicators(f.out, a.Indicators)
}

func printIndicators(w io.Writer, indicators []string) {
	if len(indicators) == 0 {
		fmt.Fprintf(w, "Indicators: none\n")
		return
	}
	fmt.Fprintf(w, "Indicators:\n")
	for _, ind := range indicators {
		fmt.Fprintf(w, "  - %s\n", ind)
	}
}

func displaySender(rec core.EmailRecord) string {
	if rec.SenderName == "" {
		return rec.Sender
	}
	return fmt.Sprintf("%s <%s>", rec.SenderName, rec.Sender)
}

func authLabel(r core.AuthResult) string {
	if r == core.AuthAbsent {
		return "-"
	}
	return string(r)
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
