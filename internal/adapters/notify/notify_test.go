package notify

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type captured struct {
	mu   sync.Mutex
	from string
	to   []string
	data string
}

type captureBackend struct{ c *captured }

func (b *captureBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &captureSession{c: b.c}, nil
}

type captureSession struct{ c *captured }

func (s *captureSession) Mail(from string, _ *smtp.MailOptions) error {
	s.c.mu.Lock()
	s.c.from = from
	s.c.mu.Unlock()
	return nil
}

func (s *captureSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.c.mu.Lock()
	s.c.to = append(s.c.to, to)
	s.c.mu.Unlock()
	return nil
}

func (s *captureSession) Data(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.c.mu.Lock()
	s.c.data = string(b)
	s.c.mu.Unlock()
	return nil
}

func (s *captureSession) Reset()        {}
func (s *captureSession) Logout() error { return nil }

func sampleAlert() *core.Alert {
	return &core.Alert{
		Kind:       core.AlertPhishingEmail,
		Subject:    "Verify your account",
		Target:     "security@amaz0n-login.tk",
		Score:      100,
		Severity:   core.SeverityCritical,
		Indicators: []string{"Known malicious sender domain", "Requests credentials"},
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSMTPNotifierDelivers(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	c := &captured{}
	srv := smtp.NewServer(&captureBackend{c: c})
	srv.Domain = "localhost"
	go srv.Serve(l)
	defer srv.Close()

	host, portStr, _ := net.SplitHostPort(l.Addr().String())
	port, _ := strconv.Atoi(portStr)

	n := NewSMTPNotifier(zap.NewNop(), host, port, "", "", "alerts@cybershield.local",
		[]string{"soc@example.com", "admin@example.com"}, false)
	if err := n.Notify(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.from != "alerts@cybershield.local" {
		t.Errorf("MAIL FROM = %q", c.from)
	}
	if len(c.to) != 2 {
		t.Errorf("RCPT TO = %v", c.to)
	}
	for _, want := range []string{"Subject: [CyberShield] Phishing email alert (critical): security@amaz0n-login.tk", "Score: 100", "  - Requests credentials"} {
		if !strings.Contains(c.data, want) {
			t.Errorf("message missing %q:\n%s", want, c.data)
		}
	}
}

func TestSMTPNotifierWithoutRecipients(t *testing.T) {
	n := NewSMTPNotifier(zap.NewNop(), "127.0.0.1", 25, "", "", "a@b.c", nil, false)
	if err := n.Notify(context.Background(), sampleAlert()); err == nil {
		t.Fatal("expected an error without recipients")
	}
}

func TestSubject(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{core.AlertPhishingEmail, "[CyberShield] Phishing email alert (high): x"},
		{core.AlertMaliciousWebsite, "[CyberShield] Malicious website alert (high): x"},
		{"other", "[CyberShield] Threat alert (high): x"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got := Subject(&core.Alert{Kind: tt.kind, Severity: core.SeverityHigh, Target: "x"})
			if got != tt.want {
				t.Errorf("Subject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatMessageOmitsEmptySections(t *testing.T) {
	alert := &core.Alert{Kind: core.AlertMaliciousWebsite, Target: "http://10.0.0.1/", Severity: core.SeverityCritical}
	msg := string(FormatMessage("a@b.c", []string{"d@e.f"}, alert))
	if strings.Contains(msg, "Indicators:") {
		t.Error("empty indicator list should be omitted")
	}
	if strings.Count(msg, "Subject:") != 1 {
		t.Error("empty alert subject should be omitted")
	}
}

func TestLogNotifier(t *testing.T) {
	observed, logs := observer.New(zapcore.WarnLevel)
	n := NewLogNotifier(zap.New(observed))
	if err := n.Notify(context.Background(), sampleAlert()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	entries := logs.FilterMessage("Security alert").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["score"]; got != int64(100) {
		t.Errorf("score field = %v", got)
	}
}
