package ports

import (
	"context"

	"github.com/mikey/cybershield/internal/core"
)

// EmailFilter defines the interface for email ingestion front ends
type EmailFilter interface {
	// ProcessEmail analyzes and records an email
	ProcessEmail(ctx context.Context, email *core.IncomingEmail) (*core.StoredEmail, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
