package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func TestNewCliFilterRejectsUnknownFormat(t *testing.T) {
	svc, _ := newTestService(nil)
	if _, err := NewCliFilter(svc, zap.NewNop(), &bytes.Buffer{}, "xml", false); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestCliFilterText(t *testing.T) {
	svc, _ := newTestService(nil)
	var out bytes.Buffer
	f, err := NewCliFilter(svc, zap.NewNop(), &out, "", true)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.ProcessMessage(context.Background(), strings.NewReader(phishingMessage)); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	for _, want := range []string{"Is phishing: true", "Domain reputation: malicious", "Would quarantine: true", "SPF: -"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCliFilterJSON(t *testing.T) {
	svc, _ := newTestService(nil)
	var out bytes.Buffer
	f, _ := NewCliFilter(svc, zap.NewNop(), &out, FormatJSON, false)

	if _, err := f.ProcessMessage(context.Background(), strings.NewReader(safeMessage)); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	var got core.StoredEmail
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got.Analysis.IsPhishing || got.Record.SPF != core.AuthPass {
		t.Errorf("decoded result = %+v", got)
	}
}

func TestCliFilterWebsiteYAML(t *testing.T) {
	svc, _ := newTestService(nil)
	var out bytes.Buffer
	f, _ := NewCliFilter(svc, zap.NewNop(), &out, FormatYAML, false)

	check, err := f.CheckWebsite(context.Background(), "paypal-secure-login.tk/verify")
	if err != nil {
		t.Fatalf("CheckWebsite: %v", err)
	}
	if check.URL != "https://paypal-secure-login.tk/verify" {
		t.Errorf("URL = %q, want default scheme prefixed", check.URL)
	}

	var got map[string]interface{}
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	analysis, ok := got["analysis"].(map[string]interface{})
	if !ok || analysis["isMalicious"] != true {
		t.Errorf("decoded analysis = %v", got["analysis"])
	}
}
