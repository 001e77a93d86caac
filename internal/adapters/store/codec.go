// Package store implements core.Store in memory and on SQLite, MySQL and
// PostgreSQL.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mikey/cybershield/internal/core"
)

const (
	emailColumns    = "id, message_id, source, received_at, is_phishing, risk_score, quarantined, analysis_status, record, analysis"
	websiteColumns  = "id, url, checked_at, is_malicious, security_score, analysis"
	activityColumns = "id, title, description, type, severity, created_at, related_id"
)

// scanner is satisfied by database/sql and pgx rows alike
type scanner interface {
	Scan(dest ...any) error
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func emailArgs(e *core.StoredEmail) ([]any, error) {
	record, err := json.Marshal(e.Record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode email record: %w", err)
	}
	analysis, err := json.Marshal(e.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to encode email analysis: %w", err)
	}
	return []any{
		e.ID, e.MessageID, string(e.Source), toMillis(e.ReceivedAt), e.Analysis.IsPhishing,
		e.Analysis.RiskScore, e.Quarantined, e.AnalysisStatus, string(record), string(analysis),
	}, nil
}

func scanEmail(row scanner) (*core.StoredEmail, error) {
	var (
		e                core.StoredEmail
		source           string
		receivedAt       int64
		isPhishing       bool
		riskScore        int
		record, analysis string
	)
	if err := row.Scan(&e.ID, &e.MessageID, &source, &receivedAt, &isPhishing, &riskScore,
		&e.Quarantined, &e.AnalysisStatus, &record, &analysis); err != nil {
		return nil, err
	}
	e.Source = core.Source(source)
	e.ReceivedAt = fromMillis(receivedAt)
	if err := json.Unmarshal([]byte(record), &e.Record); err != nil {
		return nil, fmt.Errorf("failed to decode email record: %w", err)
	}
	if err := json.Unmarshal([]byte(analysis), &e.Analysis); err != nil {
		return nil, fmt.Errorf("failed to decode email analysis: %w", err)
	}
	return &e, nil
}

func websiteArgs(c *core.WebsiteCheck) ([]any, error) {
	analysis, err := json.Marshal(c.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to encode website analysis: %w", err)
	}
	return []any{
		c.ID, c.URL, toMillis(c.CheckedAt), c.Analysis.IsMalicious, c.Analysis.SecurityScore, string(analysis),
	}, nil
}

func scanWebsite(row scanner) (*core.WebsiteCheck, error) {
	var (
		c           core.WebsiteCheck
		checkedAt   int64
		isMalicious bool
		score       int
		analysis    string
	)
	if err := row.Scan(&c.ID, &c.URL, &checkedAt, &isMalicious, &score, &analysis); err != nil {
		return nil, err
	}
	c.CheckedAt = fromMillis(checkedAt)
	if err := json.Unmarshal([]byte(analysis), &c.Analysis); err != nil {
		return nil, fmt.Errorf("failed to decode website analysis: %w", err)
	}
	return &c, nil
}

func activityArgs(a *core.Activity) []any {
	return []any{
		a.ID, a.Title, a.Description, string(a.Type), string(a.Severity), toMillis(a.Timestamp), a.RelatedID,
	}
}

func scanActivity(row scanner) (*core.Activity, error) {
	var (
		a              core.Activity
		kind, severity string
		createdAt      int64
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &kind, &severity, &createdAt, &a.RelatedID); err != nil {
		return nil, err
	}
	a.Type = core.ActivityType(kind)
	a.Severity = core.Severity(severity)
	a.Timestamp = fromMillis(createdAt)
	return &a, nil
}

// Queries are written with '?' placeholders; rebind converts them for
// PostgreSQL.
var (
	insertEmailSQL    = "INSERT INTO emails (" + emailColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	selectEmailSQL    = "SELECT " + emailColumns + " FROM emails WHERE id = ?"
	updateEmailSQL    = "UPDATE emails SET is_phishing = ?, risk_score = ?, quarantined = ?, analysis_status = ?, record = ?, analysis = ? WHERE id = ?"
	insertWebsiteSQL  = "INSERT INTO website_checks (" + websiteColumns + ") VALUES (?, ?, ?, ?, ?, ?)"
	insertActivitySQL = "INSERT INTO activities (" + activityColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)"
	cleanupSQL        = []string{
		"DELETE FROM emails WHERE received_at < ?",
		"DELETE FROM website_checks WHERE checked_at < ?",
		"DELETE FROM activities WHERE created_at < ?",
	}
)

// updateEmailArgs reorders the insert arguments for updateEmailSQL
func updateEmailArgs(e *core.StoredEmail) ([]any, error) {
	args, err := emailArgs(e)
	if err != nil {
		return nil, err
	}
	return append(args[4:], e.ID), nil
}

func listEmailsSQL(q core.EmailQuery) (string, []any) {
	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT " + emailColumns + " FROM emails")
	if q.Phishing != nil {
		sb.WriteString(" WHERE is_phishing = ?")
		args = append(args, *q.Phishing)
	}
	sb.WriteString(" ORDER BY received_at DESC")
	writeLimit(&sb, q.Limit)
	return sb.String(), args
}

func listWebsitesSQL(limit int) string {
	var sb strings.Builder
	sb.WriteString("SELECT " + websiteColumns + " FROM website_checks ORDER BY checked_at DESC")
	writeLimit(&sb, limit)
	return sb.String()
}

func listActivitiesSQL(limit int) string {
	var sb strings.Builder
	sb.WriteString("SELECT " + activityColumns + " FROM activities ORDER BY created_at DESC")
	writeLimit(&sb, limit)
	return sb.String()
}

func writeLimit(sb *strings.Builder, limit int) {
	if limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
	}
}

// rebind rewrites '?' placeholders as $1, $2, ...
func rebind(query string) string {
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
