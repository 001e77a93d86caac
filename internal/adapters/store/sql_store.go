package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS emails (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL,
		source TEXT NOT NULL,
		received_at INTEGER NOT NULL,
		is_phishing BOOLEAN NOT NULL,
		risk_score INTEGER NOT NULL,
		quarantined BOOLEAN NOT NULL,
		analysis_status TEXT NOT NULL,
		record TEXT NOT NULL,
		analysis TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_emails_received_at ON emails(received_at)`,
	`CREATE TABLE IF NOT EXISTS website_checks (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		checked_at INTEGER NOT NULL,
		is_malicious BOOLEAN NOT NULL,
		security_score INTEGER NOT NULL,
		analysis TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_website_checks_checked_at ON website_checks(checked_at)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		related_id TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS emails (
		id VARCHAR(36) PRIMARY KEY,
		message_id VARCHAR(998) NOT NULL,
		source VARCHAR(16) NOT NULL,
		received_at BIGINT NOT NULL,
		is_phishing BOOLEAN NOT NULL,
		risk_score INT NOT NULL,
		quarantined BOOLEAN NOT NULL,
		analysis_status VARCHAR(32) NOT NULL,
		record MEDIUMTEXT NOT NULL,
		analysis MEDIUMTEXT NOT NULL,
		INDEX idx_emails_received_at (received_at)
	)`,
	`CREATE TABLE IF NOT EXISTS website_checks (
		id VARCHAR(36) PRIMARY KEY,
		url TEXT NOT NULL,
		checked_at BIGINT NOT NULL,
		is_malicious BOOLEAN NOT NULL,
		security_score INT NOT NULL,
		analysis MEDIUMTEXT NOT NULL,
		INDEX idx_website_checks_checked_at (checked_at)
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		type VARCHAR(16) NOT NULL,
		severity VARCHAR(16) NOT NULL,
		created_at BIGINT NOT NULL,
		related_id VARCHAR(36) NOT NULL,
		INDEX idx_activities_created_at (created_at)
	)`,
}

// SQLStore is a database/sql implementation of core.Store used for SQLite
// and MySQL
type SQLStore struct {
	db          *sql.DB
	driver      string
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSQLiteStore opens or creates a SQLite database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	return newSQLStore(db, "sqlite3", sqliteSchema, logger, retention, cleanupFreq)
}

// NewMySQLStore connects to MySQL using dsn
func NewMySQLStore(dsn string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}
	return newSQLStore(db, "mysql", mysqlSchema, logger, retention, cleanupFreq)
}

func newSQLStore(db *sql.DB, driver string, schema []string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLStore, error) {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	s := &SQLStore{
		db:          db,
		driver:      driver,
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
func (s *SQLStore) SaveEmail(ctx context.Context, e *core.StoredEmail) error {
	args, err := emailArgs(e)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertEmailSQL, args...); err != nil {
		return fmt.Errorf("failed to insert email: %w", err)
	}
	return nil
}

// GetEmail retrieves an email by ID
func (s *SQLStore) GetEmail(ctx context.Context, id string) (*core.StoredEmail, error) {
	e, err := scanEmail(s.db.QueryRowContext(ctx, selectEmailSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("email %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query email: %w", err)
	}
	return e, nil
}

// ListEmails returns emails, newest first
func (s *SQLStore) ListEmails(ctx context.Context, q core.EmailQuery) ([]*core.StoredEmail, error) {
	query, args := listEmailsSQL(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
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
func (s *SQLStore) UpdateEmail(ctx context.Context, e *core.StoredEmail) error {
	args, err := updateEmailArgs(e)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, updateEmailSQL, args...)
	if err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports zero affected rows when nothing changed, so check existence
		if _, err := s.GetEmail(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}

// SaveWebsiteCheck stores a website analysis
func (s *SQLStore) SaveWebsiteCheck(ctx context.Context, c *core.WebsiteCheck) error {
	args, err := websiteArgs(c)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertWebsiteSQL, args...); err != nil {
		return fmt.Errorf("failed to insert website check: %w", err)
	}
	return nil
}

// ListWebsiteChecks returns website checks, newest first
func (s *SQLStore) ListWebsiteChecks(ctx context.Context, limit int) ([]*core.WebsiteCheck, error) {
	rows, err := s.db.QueryContext(ctx, listWebsitesSQL(limit))
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
func (s *SQLStore) AddActivity(ctx context.Context, a *core.Activity) error {
	if _, err := s.db.ExecContext(ctx, insertActivitySQL, activityArgs(a)...); err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities returns activity entries, newest first
func (s *SQLStore) ListActivities(ctx context.Context, limit int) ([]*core.Activity, error) {
	rows, err := s.db.QueryContext(ctx, listActivitiesSQL(limit))
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

// Cleanup removes records older than the retention period
func (s *SQLStore) Cleanup(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}
	cutoff := toMillis(time.Now().Add(-s.retention))
	var removed int64
	for _, stmt := range cleanupSQL {
		res, err := s.db.ExecContext(ctx, stmt, cutoff)
		if err != nil {
			return fmt.Errorf("failed to clean up expired records: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += n
		}
	}
	s.logger.Debug("Cleaned up expired records",
		zap.String("driver", s.driver),
		zap.Int64("removed_count", removed))
	return nil
}

// startCleanupTask starts a background task to remove expired records
func (s *SQLStore) startCleanupTask() {
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

// Stop stops the background cleanup task and closes the database connection
func (s *SQLStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database", zap.String("driver", s.driver), zap.Error(err))
		}
	})
}
