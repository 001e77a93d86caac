package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

// HeaderNames are the headers written into filtered messages
type HeaderNames struct {
	Status     string
	Score      string
	Indicators string
}

// PostfixFilter implements a Postfix content filter
type PostfixFilter struct {
	service        *core.ThreatService
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	listener       net.Listener
	blockPhishing  bool
	headers        HeaderNames
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
	subjectPrefix  string
	modifySubject  bool
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *core.ThreatService,
	logger *zap.Logger,
	listenAddr string,
	blockPhishing bool,
	headers HeaderNames,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	subjectPrefix string,
	modifySubject bool,
) *PostfixFilter {
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = "[PHISHING] "
	}
	if headers.Status == "" {
		headers.Status = "X-Phishing-Status"
	}
	if headers.Score == "" {
		headers.Score = "X-Phishing-Score"
	}
	if headers.Indicators == "" {
		headers.Indicators = "X-Phishing-Indicators"
	}

	return &PostfixFilter{
		service:        service,
		logger:         logger,
		listenAddr:     listenAddr,
		blockPhishing:  blockPhishing,
		headers:        headers,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
		subjectPrefix:  subjectPrefix,
		modifySubject:  modifySubject,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	l, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.listenAddr, err)
	}
	f.listener = l

	f.logger.Info("Postfix filter starting", zap.String("address", l.Addr().String()))

	go func() {
		if err := f.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the address the filter is listening on, or nil before Start
func (f *PostfixFilter) Addr() net.Addr {
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail analyzes and records an email
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.IncomingEmail) (*core.StoredEmail, error) {
	return f.service.ProcessEmail(ctx, email)
}

// filterMessage analyzes a raw message and returns it with verdict headers
// added. Blocked messages yield an SMTP 550 error.
func (f *PostfixFilter) filterMessage(ctx context.Context, sender string, recipients []string, raw []byte) ([]byte, error) {
	parsed, err := ParseMessage(raw)
	if err != nil {
		return nil, &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}

	rec := parsed.Record
	if rec.Sender == "" {
		rec.Sender = sender
	}
	if rec.Recipient == "" && len(recipients) > 0 {
		rec.Recipient = recipients[0]
	}

	stored, err := f.ProcessEmail(ctx, &core.IncomingEmail{
		MessageID: parsed.MessageID,
		Source:    core.SourceSMTP,
		Record:    rec,
	})
	if err != nil {
		// Pass the message through untouched rather than lose it
		f.logger.Error("Failed to analyze email", zap.String("sender", rec.Sender), zap.Error(err))
		return raw, nil
	}
	analysis := stored.Analysis

	if analysis.IsPhishing && f.blockPhishing && stored.Quarantined {
		f.logger.Info("Rejecting phishing email",
			zap.String("sender", rec.Sender),
			zap.String("subject", rec.Subject),
			zap.Int("risk_score", analysis.RiskScore))
		return nil, &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Message rejected as phishing (risk score: %d)", analysis.RiskScore),
		}
	}

	added := []string{
		fmt.Sprintf("%s: %t", f.headers.Status, analysis.IsPhishing),
		fmt.Sprintf("%s: %d", f.headers.Score, analysis.RiskScore),
	}
	if len(analysis.Indicators) > 0 {
		added = append(added, foldHeader(f.headers.Indicators, headerValue(strings.Join(analysis.Indicators, "; "))))
	}

	subject := ""
	if analysis.IsPhishing && f.modifySubject && f.subjectPrefix != "" && !strings.HasPrefix(rec.Subject, f.subjectPrefix) {
		subject = headerValue(f.subjectPrefix + rec.Subject)
	}

	return rewriteMessage(raw, []string{f.headers.Status, f.headers.Score, f.headers.Indicators}, added, subject), nil
}

// headerValue makes s safe to write as a single header line
func headerValue(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return mime.QEncoding.Encode("utf-8", s)
		}
	}
	return s
}

// maxHeaderLine is the preferred header line length from RFC 5322
const maxHeaderLine = 78

// foldHeader formats a header field, folding the value at spaces so that no
// line exceeds maxHeaderLine unless a single word does
func foldHeader(name, value string) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte(':')
	lineLen := len(name) + 1
	for _, word := range strings.Split(value, " ") {
		if lineLen+1+len(word) > maxHeaderLine {
			sb.WriteString("\r\n")
			lineLen = 0
		}
		sb.WriteByte(' ')
		sb.WriteString(word)
		lineLen += 1 + len(word)
	}
	return sb.String()
}

// rewriteMessage prepends added header lines, drops any existing header named
// in strip and replaces the subject when subject is non-empty. The header
// order and the body are otherwise preserved byte for byte.
func rewriteMessage(raw []byte, strip []string, added []string, subject string) []byte {
	header, body := splitMessage(raw)
	if subject != "" {
		strip = append(strip, "Subject")
	}

	var out bytes.Buffer
	for _, line := range added {
		out.WriteString(line)
		out.WriteString("\r\n")
	}
	if subject != "" {
		out.WriteString(foldHeader("Subject", subject))
		out.WriteString("\r\n")
	}

	skipping := false
	for _, line := range strings.SplitAfter(string(header), "\n") {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if !skipping {
				out.WriteString(line)
			}
			continue
		}
		skipping = hasHeaderName(line, strip)
		if !skipping {
			out.WriteString(line)
		}
	}

	out.WriteString("\r\n")
	out.Write(body)
	return out.Bytes()
}

func splitMessage(raw []byte) (header, body []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i+2], raw[i+4:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i+1], raw[i+2:]
	}
	return raw, nil
}

func hasHeaderName(line string, names []string) bool {
	colon := strings.IndexByte(line, ':')
	if colon <= 0 {
		return false
	}
	name := strings.TrimSpace(line[:colon])
	for _, n := range names {
		if strings.EqualFold(name, n) {
			return true
		}
	}
	return false
}

// sendToPostfix re-injects the filtered message into Postfix
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, data []byte) error {
	addr := net.JoinHostPort(f.postfixAddr, fmt.Sprintf("%d", f.postfixPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data filters the message and hands it back to Postfix
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filtered, err := s.filter.filterMessage(ctx, s.sender, s.recipients, raw)
	if err != nil {
		return err
	}

	if !s.filter.postfixEnabled {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
		return nil
	}
	if err := s.filter.sendToPostfix(s.sender, s.recipients, filtered); err != nil {
		s.filter.logger.Error("Failed to send email back to Postfix",
			zap.String("sender", s.sender),
			zap.Error(err))
		return err
	}
	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
