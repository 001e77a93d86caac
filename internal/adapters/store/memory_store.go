package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of core.Store. Records are
// kept in insertion order and listed newest first.
type MemoryStore struct {
	mu          sync.RWMutex
	emails      map[string]*core.StoredEmail
	emailOrder  []string
	websites    []*core.WebsiteCheck
	activities  []*core.Activity
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger, retention, cleanupFreq time.Duration) *MemoryStore {
	s := &MemoryStore{
		emails:      make(map[string]*core.StoredEmail),
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}
	if retention > 0 && cleanupFreq > 0 {
		go s.startCleanupTask()
	}
	return s
}

func copyEmail(e *core.StoredEmail) *core.StoredEmail {
	c := *e
	return &c
}

// SaveEmail stores a new email record
func (s *MemoryStore) SaveEmail(ctx context.Context, e *core.StoredEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[e.ID]; exists {
		return fmt.Errorf("email %s already stored", e.ID)
	}
	s.emails[e.ID] = copyEmail(e)
	s.emailOrder = append(s.emailOrder, e.ID)
	return nil
}

// GetEmail retrieves an email by ID
func (s *MemoryStore) GetEmail(ctx context.Context, id string) (*core.StoredEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.emails[id]
	if !ok {
		return nil, fmt.Errorf("email %s: %w", id, core.ErrNotFound)
	}
	return copyEmail(e), nil
}

// ListEmails returns emails, newest first
func (s *MemoryStore) ListEmails(ctx context.Context, q core.EmailQuery) ([]*core.StoredEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emails := []*core.StoredEmail{}
	for i := len(s.emailOrder) - 1; i >= 0; i-- {
		e := s.emails[s.emailOrder[i]]
		if q.Phishing != nil && e.Analysis.IsPhishing != *q.Phishing {
			continue
		}
		emails = append(emails, copyEmail(e))
		if q.Limit > 0 && len(emails) == q.Limit {
			break
		}
	}
	return emails, nil
}

// UpdateEmail replaces a stored email
func (s *MemoryStore) UpdateEmail(ctx context.Context, e *core.StoredEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[e.ID]; !ok {
		return fmt.Errorf("email %s: %w", e.ID, core.ErrNotFound)
	}
	s.emails[e.ID] = copyEmail(e)
	return nil
}

// SaveWebsiteCheck stores a website analysis
func (s *MemoryStore) SaveWebsiteCheck(ctx context.Context, c *core.WebsiteCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	s.websites = append(s.websites, &cp)
	return nil
}

// ListWebsiteChecks returns website checks, newest first
func (s *MemoryStore) ListWebsiteChecks(ctx context.Context, limit int) ([]*core.WebsiteCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checks := []*core.WebsiteCheck{}
	for i := len(s.websites) - 1; i >= 0; i-- {
		cp := *s.websites[i]
		checks = append(checks, &cp)
		if limit > 0 && len(checks) == limit {
			break
		}
	}
	return checks, nil
}

// AddActivity appends an entry to the activity log
func (s *MemoryStore) AddActivity(ctx context.Context, a *core.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.activities = append(s.activities, &cp)
	return nil
}

// ListActivities returns activity entries, newest first
func (s *MemoryStore) ListActivities(ctx context.Context, limit int) ([]*core.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activities := []*core.Activity{}
	for i := len(s.activities) - 1; i >= 0; i-- {
		cp := *s.activities[i]
		activities = append(activities, &cp)
		if limit > 0 && len(activities) == limit {
			break
		}
	}
	return activities, nil
}

// Cleanup removes records older than the retention period
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	order := s.emailOrder[:0]
	for _, id := range s.emailOrder {
		if s.emails[id].ReceivedAt.Before(cutoff) {
			delete(s.emails, id)
			removed++
			continue
		}
		order = append(order, id)
	}
	s.emailOrder = order

	websites := s.websites[:0]
	for _, c := range s.websites {
		if c.CheckedAt.Before(cutoff) {
			removed++
			continue
		}
		websites = append(websites, c)
	}
	s.websites = websites

	activities := s.activities[:0]
	for _, a := range s.activities {
		if a.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		activities = append(activities, a)
	}
	s.activities = activities

	s.logger.Debug("Cleaned up expired records", zap.Int("removed_count", removed))
	return nil
}

// startCleanupTask starts a background task to remove expired records
func (s *MemoryStore) startCleanupTask() {
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

// Stop stops the background cleanup task
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
