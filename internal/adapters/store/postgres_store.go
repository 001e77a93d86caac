package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS emails (
	id TEXT PRIMARY KEY,
	message_id TEXT NOT NULL,
	source TEXT NOT NULL,
	received_at BIGINT NOT NULL,
	is_phishing BOOLEAN NOT NULL,
	risk_score INTEGER NOT NULL,
	quarantined BOOLEAN NOT NULL,
	analysis_status TEXT NOT NULL,
	record TEXT NOT NULL,
	analysis TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_emails_received_at ON emails(received_at);
CREATE INDEX IF NOT EXISTS idx_emails_is_phishing ON emails(is_phishing);

CREATE TABLE IF NOT EXISTS website_checks (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	checked_at BIGINT NOT NULL,
	is_malicious BOOLEAN NOT NULL,
	security_score INTEGER NOT NULL,
	analysis TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_website_checks_checked_at ON website_checks(checked_at);

CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	type TEXT NOT NULL,
	severity TEXT NOT NULL,
	created_at BIGINT NOT NULL,
	related_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at);
`

// PostgresStore is a pgx connection pool implementation of core.Store
type PostgresStore struct {
	pool        *pgxpool.Pool
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewPostgresStore connects to PostgreSQL and ensures the schema exists
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &PostgresStore{
		pool:        pool,
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}
	if retention > 0 && cleanupFreq > 0 {
		go s.startCleanupTask()
	}
	return s, nil
}

// SaveEmail stores a new email record
func (s *PostgresStore) SaveEmail(ctx context.Context, e *core.StoredEmail) error {
	args, err := emailArgs(e)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, rebind(insertEmailSQL), args...); err != nil {
		return fmt.Errorf("failed to insert email: %w", err)
	}
	return nil
}

// GetEmail retrieves an email by ID
func (s *PostgresStore) GetEmail(ctx context.Context, id string) (*core.StoredEmail, error) {
	e, err := scanEmail(s.pool.QueryRow(ctx, rebind(selectEmailSQL), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("email %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query email: %w", err)
	}
	return e, nil
}

// ListEmails returns emails, newest first
func (s *PostgresStore) ListEmails(ctx context.Context, q core.EmailQuery) ([]*core.StoredEmail, error) {
	query, args := listEmailsSQL(q)
	rows, err := s.pool.Query(ctx, rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()

	emails := []*core.StoredEmail{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// UpdateEmail replaces the mutable fields of a stored email
func (s *PostgresStore) UpdateEmail(ctx context.Context, e *core.StoredEmail) error {
	args, err := updateEmailArgs(e)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, rebind(updateEmailSQL), args...)
	if err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("email %s: %w", e.ID, core.ErrNotFound)
	}
	return nil
}

// SaveWebsiteCheck stores a website analysis
func (s *PostgresStore) SaveWebsiteCheck(ctx context.Context, c *core.WebsiteCheck) error {
	args, err := websiteArgs(c)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, rebind(insertWebsiteSQL), args...); err != nil {
		return fmt.Errorf("failed to insert website check: %w", err)
	}
	return nil
}

// ListWebsiteChecks returns website checks, newest first
func (s *PostgresStore) ListWebsiteChecks(ctx context.Context, limit int) ([]*core.WebsiteCheck, error) {
	rows, err := s.pool.Query(ctx, listWebsitesSQL(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query website checks: %w", err)
	}
	defer rows.Close()

	checks := []*core.WebsiteCheck{}
	for rows.Next() {
		c, err := scanWebsite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan website check: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// AddActivity appends an entry to the activity log
func (s *PostgresStore) AddActivity(ctx context.Context, a *core.Activity) error {
	if _, err := s.pool.Exec(ctx, rebind(insertActivitySQL), activityArgs(a)...); err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities returns activity entries, newest first
func (s *PostgresStore) ListActivities(ctx context.Context, limit int) ([]*core.Activity, error) {
	rows, err := s.pool.Query(ctx, listActivitiesSQL(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []*core.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// Cleanup removes records older than the retention period in one transaction
func (s *PostgresStore) Cleanup(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}
	cutoff := toMillis(time.Now().Add(-s.retention))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin cleanup: %w", err)
	}
	defer tx.Rollback(ctx)

	var removed int64
	for _, stmt := range cleanupSQL {
		tag, err := tx.Exec(ctx, rebind(stmt), cutoff)
		if err != nil {
			return fmt.Errorf("failed to clean up expired records: %w", err)
		}
		removed += tag.RowsAffected()
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cleanup: %w", err)
	}

	s.logger.Debug("Cleaned up expired records",
		zap.String("driver", "postgres"),
		zap.Int64("removed_count", removed))
	return nil
}

// startCleanupTask starts a background task to remove expired records
func (s *PostgresStore) startCleanupTask() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background()); err != nil {
				s.logger.Error("Failed to clean up store", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the pool
func (s *PostgresStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.pool.Close()
	})
}
