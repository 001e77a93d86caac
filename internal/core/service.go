package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalysisCompleted is the status of an email whose analysis has finished
const AnalysisCompleted = "completed"

// ServiceOptions holds the optional collaborators and tunables of ThreatService
type ServiceOptions struct {
	Exemptions    SenderExemptions
	Text          TextNormalizer
	MaxBodySize   int
	DefaultScheme string
}

// ThreatService is the core service wiring the risk engines to storage,
// alerting and the live activity feed
type ThreatService struct {
	emails   EmailAnalyzer
	websites WebsiteAnalyzer
	store    Store
	notifier Notifier
	events   EventPublisher
	dedup    Deduplicator
	logger   *zap.Logger
	opts     ServiceOptions
	now      func() time.Time
}

// NewThreatService creates a new threat service. Notifier, events and dedup
// may be nil.
func NewThreatService(
	emails EmailAnalyzer,
	websites WebsiteAnalyzer,
	store Store,
	notifier Notifier,
	events EventPublisher,
	dedup Deduplicator,
	logger *zap.Logger,
	opts ServiceOptions,
) *ThreatService {
	if opts.DefaultScheme == "" {
		opts.DefaultScheme = "https"
	}
	return &ThreatService{
		emails:   emails,
		websites: websites,
		store:    store,
		notifier: notifier,
		events:   events,
		dedup:    dedup,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// normalize bounds and sanitizes the free-text fields of a record
func (s *ThreatService) normalize(rec EmailRecord) EmailRecord {
	if s.opts.Text == nil {
		return rec
	}
	rec.Body = s.opts.Text.ProcessText(rec.Body, s.opts.MaxBodySize)
	rec.HTMLBody = s.opts.Text.ProcessText(rec.HTMLBody, s.opts.MaxBodySize)
	rec.Subject = s.opts.Text.ProcessText(rec.Subject, 0)
	return rec
}

// AnalyzeEmail scores an email without storing it
func (s *ThreatService) AnalyzeEmail(ctx context.Context, rec *EmailRecord) (*EmailAnalysis, error) {
	if rec == nil {
		return nil, fmt.Errorf("email record is required: %w", ErrInvalidInput)
	}
	normalized := s.normalize(*rec)
	result := s.emails.Analyze(&normalized)
	s.logger.Debug("Email analyzed",
		zap.String("sender", rec.Sender),
		zap.Int("risk_score", result.RiskScore),
		zap.Bool("is_phishing", result.IsPhishing))
	return result, nil
}

// ProcessEmail analyzes an ingested email, stores it and quarantines it when
// it is phishing. Messages already seen are analyzed but not stored again.
func (s *ThreatService) ProcessEmail(ctx context.Context, in *IncomingEmail) (*StoredEmail, error) {
	if in == nil {
		return nil, fmt.Errorf("incoming email is required: %w", ErrInvalidInput)
	}

	messageID := strings.TrimSpace(in.MessageID)
	if messageID == "" {
		messageID = uuid.NewString()
	}

	rec := s.normalize(in.Record)
	analysis := s.emails.Analyze(&rec)

	email := &StoredEmail{
		ID:             uuid.NewString(),
		MessageID:      messageID,
		Source:         in.Source,
		ReceivedAt:     s.now().UTC(),
		Record:         rec,
		Analysis:       *analysis,
		AnalysisStatus: AnalysisCompleted,
		Quarantined:    analysis.IsPhishing && !s.isExempt(rec.Sender),
	}

	if !s.firstSighting(ctx, messageID) {
		s.logger.Info("Duplicate message, skipping storage",
			zap.String("message_id", messageID),
			zap.String("sender", rec.Sender))
		email.Duplicate = true
		return email, nil
	}

	if err := s.store.SaveEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("saving email: %w", err)
	}

	s.logger.Info("Email processed",
		zap.String("id", email.ID),
		zap.String("sender", rec.Sender),
		zap.String("subject", rec.Subject),
		zap.String("source", string(in.Source)),
		zap.Int("risk_score", analysis.RiskScore),
		zap.Bool("is_phishing", analysis.IsPhishing),
		zap.Bool("quarantined", email.Quarantined))

	if analysis.IsPhishing {
		s.reportPhishing(ctx, email)
	}
	return email, nil
}

func (s *ThreatService) isExempt(sender string) bool {
	return s.opts.Exemptions != nil && s.opts.Exemptions.IsWhitelisted(sender)
}

// firstSighting consults the deduplicator. A backend failure counts as a
// first sighting so that no mail goes unrecorded.
func (s *ThreatService) firstSighting(ctx context.Context, messageID string) bool {
	if s.dedup == nil {
		return true
	}
	isNew, err := s.dedup.IsNew(ctx, messageID)
	if err != nil {
		s.logger.Warn("Deduplication check failed", zap.String("message_id", messageID), zap.Error(err))
		return true
	}
	return isNew
}

func (s *ThreatService) reportPhishing(ctx context.Context, email *StoredEmail) {
	severity := EmailSeverity(email.Analysis.RiskScore)
	activity := &Activity{
		Title: "Phishing Email Detected",
		Description: fmt.Sprintf("Phishing email from %s with %d%% risk score",
			email.Record.Sender, email.Analysis.RiskScore),
		Type:      ActivityDetected,
		Severity:  severity,
		RelatedID: email.ID,
	}
	if email.Quarantined {
		activity.Title = "Phishing Email Quarantined"
		activity.Description = fmt.Sprintf("Automatically quarantined phishing email from %s with %d%% risk score",
			email.Record.Sender, email.Analysis.RiskScore)
		activity.Type = ActivityBlocked
	}
	s.recordActivity(ctx, activity)

	if severity.Severe() {
		s.alert(ctx, &Alert{
			Kind:       AlertPhishingEmail,
			Subject:    email.Record.Subject,
			Target:     email.Record.Sender,
			Score:      email.Analysis.RiskScore,
			Severity:   severity,
			Indicators: email.Analysis.Indicators,
		})
	}
}

// ReanalyzeEmail re-runs the email engine over a stored record. The
// quarantine flag is left untouched.
func (s *ThreatService) ReanalyzeEmail(ctx context.Context, id string) (*StoredEmail, error) {
	email, err := s.store.GetEmail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading email %s: %w", id, err)
	}

	email.Analysis = *s.emails.Analyze(&email.Record)
	email.AnalysisStatus = AnalysisCompleted
	if err := s.store.UpdateEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("updating email %s: %w", id, err)
	}

	s.logger.Info("Email reanalyzed",
		zap.String("id", id),
		zap.Int("risk_score", email.Analysis.RiskScore))
	return email, nil
}

// SetQuarantine quarantines or releases a stored email
func (s *ThreatService) SetQuarantine(ctx context.Context, id string, quarantined bool) (*StoredEmail, error) {
	email, err := s.store.GetEmail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading email %s: %w", id, err)
	}

	email.Quarantined = quarantined
	if err := s.store.UpdateEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("updating email %s: %w", id, err)
	}

	activity := &Activity{
		Title:       "Email Released",
		Description: fmt.Sprintf("Email %q released from quarantine", email.Record.Subject),
		Type:        ActivityUpdated,
		RelatedID:   email.ID,
	}
	if quarantined {
		activity.Title = "Email Quarantined"
		activity.Description = fmt.Sprintf("Email %q quarantined", email.Record.Subject)
		activity.Type = ActivityBlocked
	}
	s.recordActivity(ctx, activity)
	return email, nil
}

// GetEmail returns a stored email
func (s *ThreatService) GetEmail(ctx context.Context, id string) (*StoredEmail, error) {
	return s.store.GetEmail(ctx, id)
}

// ListEmails returns stored emails matching the query
func (s *ThreatService) ListEmails(ctx context.Context, q EmailQuery) ([]*StoredEmail, error) {
	return s.store.ListEmails(ctx, q)
}

// NormalizeURL trims a URL and prefixes the default scheme when it has none
func (s *ThreatService) NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.Contains(rawURL, "://") {
		return rawURL
	}
	return s.opts.DefaultScheme + "://" + rawURL
}

// CheckWebsite analyzes and records a URL. Malicious verdicts are logged to
// the activity feed and severe ones alerted.
func (s *ThreatService) CheckWebsite(ctx context.Context, rawURL string) (*WebsiteCheck, error) {
	target := s.NormalizeURL(rawURL)
	if target == "" {
		return nil, fmt.Errorf("url is required: %w", ErrInvalidInput)
	}

	check := &WebsiteCheck{
		ID:        uuid.NewString(),
		URL:       target,
		CheckedAt: s.now().UTC(),
		Analysis:  *s.websites.Analyze(target),
	}
	if err := s.store.SaveWebsiteCheck(ctx, check); err != nil {
		return nil, fmt.Errorf("saving website check: %w", err)
	}

	s.logger.Info("Website analyzed",
		zap.String("url", target),
		zap.Int("security_score", check.Analysis.SecurityScore),
		zap.String("risk_level", string(check.Analysis.RiskLevel)))

	if check.Analysis.IsMalicious {
		severity := WebsiteSeverity(check.Analysis.RiskLevel)
		s.recordActivity(ctx, &Activity{
			Title:       "Malicious Website Blocked",
			Description: fmt.Sprintf("%s: %s", check.Analysis.Category, target),
			Type:        ActivityDetected,
			Severity:    severity,
			RelatedID:   check.ID,
		})
		if severity.Severe() {
			s.alert(ctx, &Alert{
				Kind:       AlertMaliciousWebsite,
				Subject:    check.Analysis.Category,
				Target:     target,
				Score:      check.Analysis.SecurityScore,
				Severity:   severity,
				Indicators: check.Analysis.Indicators,
			})
		}
	}
	return check, nil
}

// ListWebsiteChecks returns recent website checks
func (s *ThreatService) ListWebsiteChecks(ctx context.Context, limit int) ([]*WebsiteCheck, error) {
	return s.store.ListWebsiteChecks(ctx, limit)
}

// ListActivities returns recent activity entries
func (s *ThreatService) ListActivities(ctx context.Context, limit int) ([]*Activity, error) {
	return s.store.ListActivities(ctx, limit)
}

// recordActivity stores an activity and publishes it. Failures are logged.
func (s *ThreatService) recordActivity(ctx context.Context, activity *Activity) {
	activity.ID = uuid.NewString()
	activity.Timestamp = s.now().UTC()
	if err := s.store.AddActivity(ctx, activity); err != nil {
		s.logger.Error("Failed to store activity", zap.String("title", activity.Title), zap.Error(err))
	}
	if s.events != nil {
		s.events.Publish(activity)
	}
}

func (s *ThreatService) alert(ctx context.Context, alert *Alert) {
	if s.notifier == nil {
		return
	}
	alert.Timestamp = s.now().UTC()
	if err := s.notifier.Notify(ctx, alert); err != nil {
		s.logger.Error("Failed to deliver alert",
			zap.String("kind", alert.Kind),
			zap.String("target", alert.Target),
			zap.Error(err))
	}
}
