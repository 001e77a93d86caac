package store

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

// rowValues feeds fixed column values to the scan functions
type rowValues []any

func (r rowValues) Scan(dest ...any) error {
	for i, d := range dest {
		elem := reflect.ValueOf(d).Elem()
		elem.Set(reflect.ValueOf(r[i]).Convert(elem.Type()))
	}
	return nil
}

func TestListSQL(t *testing.T) {
	phishing := true
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "all emails",
			query: func() string { q, _ := listEmailsSQL(core.EmailQuery{}); return q }(),
			want:  "SELECT " + emailColumns + " FROM emails ORDER BY received_at DESC",
		},
		{
			name: "phishing emails with limit",
			query: func() string {
				q, _ := listEmailsSQL(core.EmailQuery{Phishing: &phishing, Limit: 5})
				return rebind(q)
			}(),
			want: "SELECT " + emailColumns + " FROM emails WHERE is_phishing = $1 ORDER BY received_at DESC LIMIT 5",
		},
		{
			name:  "websites",
			query: listWebsitesSQL(3),
			want:  "SELECT " + websiteColumns + " FROM website_checks ORDER BY checked_at DESC LIMIT 3",
		},
		{
			name:  "activities ignore negative limit",
			query: listActivitiesSQL(-1),
			want:  "SELECT " + activityColumns + " FROM activities ORDER BY created_at DESC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.query != tt.want {
				t.Errorf("query =\n%s\nwant\n%s", tt.query, tt.want)
			}
		})
	}

	if _, args := listEmailsSQL(core.EmailQuery{Phishing: &phishing}); !reflect.DeepEqual(args, []any{true}) {
		t.Errorf("args = %v, want [true]", args)
	}
}

func TestPlaceholdersMatchArguments(t *testing.T) {
	email := sampleEmail("e1", time.Now(), true)
	emailArgsList, err := emailArgs(email)
	if err != nil {
		t.Fatal(err)
	}
	updateArgs, err := updateEmailArgs(email)
	if err != nil {
		t.Fatal(err)
	}
	websiteArgsList, err := websiteArgs(&core.WebsiteCheck{ID: "w1", URL: "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		query string
		args  []any
	}{
		{"insert email", insertEmailSQL, emailArgsList},
		{"update email", updateEmailSQL, updateArgs},
		{"insert website", insertWebsiteSQL, websiteArgsList},
		{"insert activity", insertActivitySQL, activityArgs(&core.Activity{ID: "a1"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if n := strings.Count(tt.query, "?"); n != len(tt.args) {
				t.Errorf("%d placeholders for %d arguments", n, len(tt.args))
			}
			if n := strings.Count(rebind(tt.query), "$"); n != len(tt.args) {
				t.Errorf("rebind produced %d placeholders for %d arguments", n, len(tt.args))
			}
		})
	}

	if updateArgs[len(updateArgs)-1] != email.ID {
		t.Errorf("update must bind the id last, got %v", updateArgs[len(updateArgs)-1])
	}
	if updateArgs[0] != email.Analysis.IsPhishing || updateArgs[2] != email.Quarantined {
		t.Errorf("update arguments out of order: %v", updateArgs)
	}
}

func TestScanEmail(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	email := sampleEmail("e1", at, true)
	email.Quarantined = true
	args, err := emailArgs(email)
	if err != nil {
		t.Fatal(err)
	}

	got, err := scanEmail(rowValues(args))
	if err != nil {
		t.Fatalf("scanEmail: %v", err)
	}
	if !got.ReceivedAt.Equal(at) || got.ReceivedAt.Location() != time.UTC {
		t.Errorf("ReceivedAt = %v, want %v UTC", got.ReceivedAt, at)
	}
	if got.Record.Sender != email.Record.Sender || !got.Quarantined || got.Analysis.RiskScore != email.Analysis.RiskScore {
		t.Errorf("scanEmail() = %+v", got)
	}

	bad := append([]any(nil), args...)
	bad[9] = "{not json"
	if _, err := scanEmail(rowValues(bad)); err == nil {
		t.Error("expected an error for a corrupt analysis column")
	}
}

func TestScanActivity(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := &core.Activity{
		ID:        "a1",
		Title:     "Malicious Website Blocked",
		Type:      core.ActivityBlocked,
		Severity:  core.SeverityCritical,
		Timestamp: at,
		RelatedID: "w1",
	}
	got, err := scanActivity(rowValues(activityArgs(in)))
	if err != nil {
		t.Fatalf("scanActivity: %v", err)
	}
	if !got.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, at)
	}
	got.Timestamp, in.Timestamp = time.Time{}, time.Time{}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("scanActivity() = %+v, want %+v", got, in)
	}
}

func TestSQLiteStopTwice(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "stop.db"), zap.NewNop(), time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	s.Stop()
	s.Stop()
}

// TestPostgresStore needs a disposable database named by
// CYBERSHIELD_TEST_POSTGRES_DSN.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CYBERSHIELD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CYBERSHIELD_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn, zap.NewNop(), 0, 0)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer s.Stop()

	for _, table := range []string{"emails", "website_checks", "activities"} {
		if _, err := s.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clearing %s: %v", table, err)
		}
	}
	exerciseStore(t, s)

	if _, err := s.GetEmail(ctx, uuid.NewString()); err == nil {
		t.Error("expected not found for an unknown id")
	}
}
