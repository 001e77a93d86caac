// Package notify delivers alerts for severe verdicts.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

// SMTPNotifier sends alerts as plain-text email
type SMTPNotifier struct {
	logger   *zap.Logger
	address  string
	port     int
	username string
	password string
	from     string
	to       []string
	startTLS bool
	timeout  time.Duration
}

// NewSMTPNotifier creates a new SMTP notifier. Authentication is skipped
// when username is empty.
func NewSMTPNotifier(
	logger *zap.Logger,
	address string,
	port int,
	username string,
	password string,
	from string,
	to []string,
	startTLS bool,
) *SMTPNotifier {
	return &SMTPNotifier{
		logger:   logger,
		address:  address,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		startTLS: startTLS,
		timeout:  30 * time.Second,
	}
}

// Notify sends the alert to every configured recipient
func (n *SMTPNotifier) Notify(ctx context.Context, alert *core.Alert) error {
	if len(n.to) == 0 {
		return fmt.Errorf("no alert recipients configured")
	}

	addr := net.JoinHostPort(n.address, fmt.Sprintf("%d", n.port))
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	deadline := time.Now().Add(n.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if n.startTLS {
		if err := c.StartTLS(&tls.Config{ServerName: n.address}); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if n.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.username, n.password)); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range n.to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("RCPT TO %s failed: %w", rcpt, err)
		}
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(FormatMessage(n.from, n.to, alert)); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send alert data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		n.logger.Warn("QUIT command failed", zap.Error(err))
	}

	n.logger.Info("Alert sent",
		zap.String("kind", alert.Kind),
		zap.String("target", alert.Target),
		zap.Strings("recipients", n.to))
	return nil
}

// FormatMessage renders an alert as an RFC 5322 plain-text message
func FormatMessage(from string, to []string, alert *core.Alert) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", Subject(alert))
	fmt.Fprintf(&b, "Date: %s\r\n", alert.Timestamp.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "Severity: %s\r\n", alert.Severity)
	fmt.Fprintf(&b, "Target: %s\r\n", alert.Target)
	if alert.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\r\n", alert.Subject)
	}
	fmt.Fprintf(&b, "Score: %d\r\n", alert.Score)
	fmt.Fprintf(&b, "Detected: %s\r\n", alert.Timestamp.Format(time.RFC3339))
	if len(alert.Indicators) > 0 {
		b.WriteString("\r\nIndicators:\r\n")
		for _, ind := range alert.Indicators {
			fmt.Fprintf(&b, "  - %s\r\n", ind)
		}
	}
	return b.Bytes()
}

// Subject returns the alert email subject line
func Subject(alert *core.Alert) string {
	what := "Threat"
	switch alert.Kind {
	case core.AlertPhishingEmail:
		what = "Phishing email"
	case core.AlertMaliciousWebsite:
		what = "Malicious website"
	}
	return fmt.Sprintf("[CyberShield] %s alert (%s): %s", what, alert.Severity, alert.Target)
}
