package core

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a stored record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for requests the service cannot act on
	ErrInvalidInput = errors.New("invalid input")
)

// EmailAnalyzer scores an email for phishing risk
type EmailAnalyzer interface {
	// Analyze never fails; missing fields are weak signals, not errors
	Analyze(rec *EmailRecord) *EmailAnalysis
}

// WebsiteAnalyzer scores a URL for malicious-site risk
type WebsiteAnalyzer interface {
	// Analyze never fails; an unparseable URL yields a critical verdict
	Analyze(rawURL string) *WebsiteAnalysis
}

// Store persists analyzed emails, website checks and activity entries
type Store interface {
	// SaveEmail stores a new email record
	SaveEmail(ctx context.Context, email *StoredEmail) error

	// GetEmail retrieves an email by ID, returning ErrNotFound when absent
	GetEmail(ctx context.Context, id string) (*StoredEmail, error)

	// ListEmails returns emails, newest first
	ListEmails(ctx context.Context, q EmailQuery) ([]*StoredEmail, error)

	// UpdateEmail replaces a stored email, returning ErrNotFound when absent
	UpdateEmail(ctx context.Context, email *StoredEmail) error

	// SaveWebsiteCheck stores a website analysis
	SaveWebsiteCheck(ctx context.Context, check *WebsiteCheck) error

	// ListWebsiteChecks returns website checks, newest first
	ListWebsiteChecks(ctx context.Context, limit int) ([]*WebsiteCheck, error)

	// AddActivity appends an entry to the activity log
	AddActivity(ctx context.Context, activity *Activity) error

	// ListActivities returns activity entries, newest first
	ListActivities(ctx context.Context, limit int) ([]*Activity, error)

	// Cleanup removes records older than the retention period
	Cleanup(ctx context.Context) error
}

// Notifier delivers alerts for severe verdicts
type Notifier interface {
	Notify(ctx context.Context, alert *Alert) error
}

// EventPublisher fans activity entries out to live subscribers
type EventPublisher interface {
	Publish(activity *Activity)
}

// Deduplicator reports whether a message ID is seen for the first time
type Deduplicator interface {
	IsNew(ctx context.Context, messageID string) (bool, error)
}

// SenderExemptions reports senders excluded from automatic quarantine
type SenderExemptions interface {
	IsWhitelisted(sender string) bool
}

// TextNormalizer bounds and cleans message text before analysis
type TextNormalizer interface {
	ProcessText(text string, maxSize int) string
}
