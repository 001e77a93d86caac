package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	srv := cfg.GetServer()
	if srv.FilterType != "postfix" || srv.Headers.Status != "X-Phishing-Status" || srv.Postfix.Port != 10026 {
		t.Errorf("server defaults = %+v", srv)
	}

	st, err := cfg.GetStore()
	if err != nil {
		t.Fatal(err)
	}
	if st.Type != "memory" || st.Retention != 720*time.Hour || st.CleanupFrequency != time.Hour {
		t.Errorf("store defaults = %+v", st)
	}

	d, err := cfg.GetDedup()
	if err != nil {
		t.Fatal(err)
	}
	if !d.Enabled || d.TTL != 24*time.Hour {
		t.Errorf("dedup defaults = %+v", d)
	}

	if cfg.GetDefaultScheme() != "https" {
		t.Errorf("default scheme = %q", cfg.GetDefaultScheme())
	}
	if a := cfg.GetAnalysis(); a.MaxBodySize != 65536 || len(a.ExemptDomains) != 0 {
		t.Errorf("analysis defaults = %+v", a)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  block_phishing: true
  postfix:
    port: 2526
store:
  type: sqlite
  retention: 48h
quarantine:
  exempt_domains:
    - partner.example
alerts:
  enabled: true
  type: smtp
  to:
    - soc@example.com
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CYBERSHIELD_STORE_TYPE", "postgres")
	t.Setenv("CYBERSHIELD_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	srv := cfg.GetServer()
	if !srv.BlockPhishing || srv.Postfix.Port != 2526 || srv.Postfix.Address != "127.0.0.1" {
		t.Errorf("server = %+v", srv)
	}
	st, _ := cfg.GetStore()
	if st.Type != "postgres" || st.Retention != 48*time.Hour {
		t.Errorf("store = %+v", st)
	}
	if got := cfg.GetAnalysis().ExemptDomains; !reflect.DeepEqual(got, []string{"partner.example"}) {
		t.Errorf("exempt domains = %v", got)
	}
	a, err := cfg.GetAlerts()
	if err != nil || !reflect.DeepEqual(a.To, []string{"soc@example.com"}) {
		t.Errorf("alerts = %+v, %v", a, err)
	}
	if cfg.GetString("logging.level") != "debug" {
		t.Errorf("logging.level = %q", cfg.GetString("logging.level"))
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}

func TestInvalidValues(t *testing.T) {
	v := NewEmptyViper()
	v.Set("store.retention", "forever")
	v.Set("dedup.ttl", "soon")
	v.Set("alerts.enabled", true)
	v.Set("alerts.type", "smtp")
	cfg := NewFromViper(v)

	if _, err := cfg.GetStore(); err == nil {
		t.Error("GetStore should reject an invalid retention")
	}
	if _, err := cfg.GetDedup(); err == nil {
		t.Error("GetDedup should reject an invalid ttl")
	}
	if _, err := cfg.GetAlerts(); err == nil {
		t.Error("GetAlerts should require recipients for smtp alerts")
	}
}
