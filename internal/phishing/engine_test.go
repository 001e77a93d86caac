package phishing

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mikey/cybershield/internal/core"
	"github.com/mikey/cybershield/internal/rules"
)

func phishingRecord() *core.EmailRecord {
	return &core.EmailRecord{
		Sender:  "security@amaz0n-verify.com",
		Subject: "URGENT: Verify Your Account or Face Suspension",
		Body: "Dear customer, we detected unusual activity on your amazon order. " +
			"Verify account now or it will be suspended. Click here immediately: " +
			"http://amaz0n-login.tk/verify and enter your password to confirm identity.",
		Recipient: "victim@example.com",
	}
}

func safeRecord() *core.EmailRecord {
	return &core.EmailRecord{
		Sender:    "newsletter@legitimate-company.com",
		Subject:   "Monthly product news",
		Body:      "Hello Alex, here are this month's product highlights. Thanks for reading.",
		Recipient: "alex@example.com",
		SPF:       core.AuthPass,
		DKIM:      core.AuthPass,
		DMARC:     core.AuthPass,
	}
}

func TestPhishingScenario(t *testing.T) {
	got := NewEngine().Analyze(phishingRecord())

	if !got.IsPhishing || got.RiskTier != core.EmailTierPhishing {
		t.Fatalf("expected phishing verdict, got %+v", got)
	}
	if got.RiskScore < 70 {
		t.Errorf("RiskScore = %d, want >= 70", got.RiskScore)
	}
	switch got.Classification {
	case core.ClassCredentialTheft, core.ClassBusinessEmailCompromise, core.ClassSocialEngineering:
	default:
		t.Errorf("unexpected classification %q", got.Classification)
	}
	if got.DomainReputation != core.ReputationMalicious {
		t.Errorf("DomainReputation = %q, want malicious", got.DomainReputation)
	}
	mismatch := "URL domain mismatch - claims to be amazon but links to amaz0n-login.tk"
	if !contains(got.Indicators, mismatch) {
		t.Errorf("missing indicator %q in %v", mismatch, got.Indicators)
	}
}

func TestLinkBeforeNoBreakSpace(t *testing.T) {
	got := NewEngine().Analyze(&core.EmailRecord{
		Sender: "a@example.org",
		Body:   "your paypal login http://evil.com\u00a0now",
	})
	if !got.IsPhishing || got.RiskScore != 57 {
		t.Errorf("IsPhishing = %v, RiskScore = %d, want true, 57 (%v)", got.IsPhishing, got.RiskScore, got.Indicators)
	}
	mismatch := "URL domain mismatch - claims to be paypal but links to evil.com"
	if !contains(got.Indicators, mismatch) {
		t.Errorf("missing indicator %q in %v", mismatch, got.Indicators)
	}
}

func TestSafeScenario(t *testing.T) {
	got := NewEngine().Analyze(safeRecord())
	if got.IsPhishing || got.RiskTier != core.EmailTierSafe {
		t.Fatalf("expected safe verdict, got %+v", got)
	}
	if got.RiskScore >= 30 {
		t.Errorf("RiskScore = %d, want < 30", got.RiskScore)
	}
	if got.Classification != core.ClassNone {
		t.Errorf("Classification = %q, want none", got.Classification)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	e := NewEngine()
	first := e.Analyze(phishingRecord())
	for i := 0; i < 5; i++ {
		if again := e.Analyze(phishingRecord()); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestScoreBoundsAndVerdictConsistency(t *testing.T) {
	records := []*core.EmailRecord{
		nil,
		{},
		safeRecord(),
		phishingRecord(),
		{
			Sender:      "no-reply+x@micorsoft-secure-update-alerts.account.support.xyz",
			SenderName:  "PayPal Billing",
			Subject:     "urgent invoice: claim your prize, wire payment asap",
			Body:        "congratulations winner, verify your password, pin and cvv immediately. account will be frozen. http://1.2.3.4/x https://bit.ly/y http://a.b.c.d.tk/",
			HTMLBody:    `<form><input name="username"><input type="password"></form><div style="display:none" onclick="x()">`,
			SPF:         core.AuthFail,
			DKIM:        core.AuthFail,
			DMARC:       core.AuthFail,
			ReplyTo:     "attacker@evil.com",
			Attachments: []core.Attachment{{Name: "invoice.pdf.exe", MimeType: "application/x-msdownload"}},
		},
	}
	for i, rec := range records {
		got := NewEngine().Analyze(rec)
		if got.RiskScore < 0 || got.RiskScore > 100 || got.Confidence < 0 || got.Confidence > 100 {
			t.Errorf("record %d: score out of range: %+v", i, got)
		}
		if got.IsPhishing != (got.RiskScore >= PhishingThreshold) {
			t.Errorf("record %d: verdict inconsistent with score %d", i, got.RiskScore)
		}
		if got.IsPhishing && len(got.Indicators) == 0 {
			t.Errorf("record %d: positive verdict without indicators", i)
		}
		if (got.Classification != core.ClassNone) != (got.RiskScore >= ClassifyThreshold) {
			t.Errorf("record %d: classification %q with score %d", i, got.Classification, got.RiskScore)
		}
		if !reflect.DeepEqual(got.Indicators, rules.Dedup(got.Indicators)) {
			t.Errorf("record %d: duplicate indicators %v", i, got.Indicators)
		}
	}
}

func TestAttachmentsNeverLowerScore(t *testing.T) {
	attachments := []core.Attachment{
		{Name: "report.pdf", MimeType: "application/pdf"},
		{Name: "setup.exe", MimeType: "application/octet-stream"},
		{Name: "photo.jpg.scr", MimeType: "image/jpeg"},
		{Name: "doc.docx", MimeType: "application/x-msdos-program"},
	}
	rec := safeRecord()
	prev := NewEngine().Analyze(rec).RiskScore
	for _, a := range attachments {
		rec.Attachments = append(rec.Attachments, a)
		score := NewEngine().Analyze(rec).RiskScore
		if score < prev {
			t.Fatalf("adding %s lowered score from %d to %d", a.Name, prev, score)
		}
		prev = score
	}
}

func TestAnalyzeDomain(t *testing.T) {
	tests := []struct {
		domain     string
		delta      int
		reputation core.DomainReputation
		indicator  string
	}{
		{"", 20, core.ReputationMalicious, "Invalid sender domain"},
		{"paypal-security.net", 40, core.ReputationMalicious, "Known phishing domain detected"},
		{"paypal.com.evil.io", 35, core.ReputationSuspicious, "Domain spoofing detected - mimics legitimate domain"},
		{"mail.google.com", 35, core.ReputationSuspicious, "Domain spoofing detected - mimics legitimate domain"},
		{"google.com", 0, core.ReputationTrusted, ""},
		{"secure-login.net", 28, core.ReputationSuspicious, "Suspicious domain pattern detected"},
		{"gogle.com", 38, core.ReputationMalicious, "Typosquatting domain detected"},
		{"promo.xyz", 25, core.ReputationSuspicious, "Suspicious top-level domain used"},
		{"shop42.net", 22, core.ReputationUnknown, "Multiple numbers in domain - suspicious pattern"},
		{"a.b.c.example", 15, core.ReputationUnknown, "Multiple subdomains - potential subdomain spoofing"},
		{"example.org", 0, core.ReputationUnknown, ""},
		{"почта-пример.рф", 0, core.ReputationUnknown, ""},
		{"очень-длинное-имя-почты.рф", 18, core.ReputationUnknown, "Unusually long domain name"},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			s, rep := analyzeDomain(tt.domain)
			if s.Delta != tt.delta || rep != tt.reputation {
				t.Errorf("analyzeDomain() = (%d, %q), want (%d, %q)", s.Delta, rep, tt.delta, tt.reputation)
			}
			if tt.indicator != "" && !contains(rules.Indicators(s.Findings), tt.indicator) {
				t.Errorf("missing indicator %q in %v", tt.indicator, s.Findings)
			}
		})
	}
}

func TestAnalyzeContent(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		delta   int
		first   string
	}{
		{"single keyword", "Tax refund", "Hello.", 12, `Phishing keyword detected: "tax refund"`},
		{"three keywords", "", "hacked malware virus", 45, "Multiple phishing keywords detected (3): hacked, malware, virus"},
		{"two urgency words", "", "do it asap and quickly", 18, "Multiple urgency indicators detected"},
		{"credential harvest", "", "please verify the ssn", 32, "Credential harvesting attempt detected"},
		{"account threat", "", "the account may freeze", 30, "Account threat detected - common phishing tactic"},
		{"misspellings", "", "we recieve seperate mail", 12, "Poor spelling/grammar detected (2) - professional emails are spell-checked"},
		{"informal substring", "", "nature", 12, "Informal/poor language usage detected"},
		{"generic greeting", "", "dear sir", 15, "Generic greeting instead of personalized - phishing indicator"},
		{"clean", "Hello", "see you at lunch", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := analyzeContent(tt.subject, tt.body)
			if s.Delta != tt.delta {
				t.Errorf("delta = %d, want %d (%v)", s.Delta, tt.delta, s.Findings)
			}
			if tt.first != "" && (len(s.Findings) == 0 || s.Findings[0].Indicator != tt.first) {
				t.Errorf("first finding = %v, want %q", s.Findings, tt.first)
			}
		})
	}
}

func TestAnalyzeLinks(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		html  string
		delta int
	}{
		{"no links", "nothing here", "", 0},
		{"shortener", "go to https://bit.ly/abc", "", 35},
		{"brand mismatch", "your paypal account https://example.com/login", "", 45},
		{"brand matched", "your paypal account https://www.paypal.com/login", "", 0},
		{"brand is case sensitive", "your PayPal account https://example.com/login", "", 0},
		{"ip literal", "http://10.0.0.1/x", "", 52},
		{"suspicious tld in html", "", `<a href="http://free.tk/">x</a>`, 35},
		{"deep subdomain", "https://a.b.c.example.com/", "", 12},
		{"malformed", "http://bad%zzhost.com/x", "", 12},
		{"no-break space ends link", "your paypal login http://evil.com\u00a0now", "", 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s := analyzeLinks(tt.body, tt.html); s.Delta != tt.delta {
				t.Errorf("delta = %d, want %d (%v)", s.Delta, tt.delta, s.Findings)
			}
		})
	}
}

func TestAnalyzeAuthentication(t *testing.T) {
	tests := []struct {
		name             string
		spf, dkim, dmarc core.AuthResult
		delta            int
	}{
		{"all pass", core.AuthPass, core.AuthPass, core.AuthPass, 0},
		{"absent", core.AuthAbsent, core.AuthAbsent, core.AuthAbsent, 0},
		{"spf fail", core.AuthFail, core.AuthNone, core.AuthNeutral, 28},
		{"dkim and dmarc fail", core.AuthPass, core.AuthFail, core.AuthFail, 54},
		{"all fail", core.AuthFail, core.AuthFail, core.AuthFail, 97},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &core.EmailRecord{SPF: tt.spf, DKIM: tt.dkim, DMARC: tt.dmarc}
			if s := analyzeAuthentication(rec); s.Delta != tt.delta {
				t.Errorf("delta = %d, want %d", s.Delta, tt.delta)
			}
		})
	}
}

func TestAnalyzeSender(t *testing.T) {
	tests := []struct {
		name                      string
		sender, senderName, reply string
		delta                     int
	}{
		{"plain", "alice@example.com", "Alice", "", 0},
		{"same reply-to", "alice@example.com", "", "alice@example.com", 0},
		{"different reply-to", "alice@example.com", "", "bob@example.com", 20},
		{"brand impersonation", "billing@example.com", "Netflix Billing", "", 40},
		{"brand matches domain", "info@netflix.com", "Netflix", "", 0},
		{"noreply marker", "noreply@example.com", "", "", 12},
		{"free mail business", "bank.support@gmail.com", "", "", 25},
		{"free mail business name", "john@yahoo.com", "ACME Company", "", 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s := analyzeSender(tt.sender, tt.senderName, tt.reply); s.Delta != tt.delta {
				t.Errorf("delta = %d, want %d (%v)", s.Delta, tt.delta, s.Findings)
			}
		})
	}
}

func TestAnalyzeAttachments(t *testing.T) {
	tests := []struct {
		name  string
		files []core.Attachment
		delta int
		hint  rules.Hint
	}{
		{"none", nil, 0, rules.HintNone},
		{"pdf", []core.Attachment{{Name: "report.pdf", MimeType: "application/pdf"}}, 0, rules.HintNone},
		{"exe upper case", []core.Attachment{{Name: "SETUP.EXE", MimeType: "application/octet-stream"}}, 35, rules.HintMalware},
		{"double extension", []core.Attachment{{Name: "invoice.pdf.exe", MimeType: "application/x-msdownload"}}, 85, rules.HintMalware},
		{"double extension only", []core.Attachment{{Name: "invoice.pdf.txt", MimeType: "text/plain"}}, 20, rules.HintMalware},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := analyzeAttachments(tt.files)
			if s.Delta != tt.delta {
				t.Errorf("delta = %d, want %d", s.Delta, tt.delta)
			}
			best := rules.HintNone
			for _, f := range s.Findings {
				if f.Hint > best {
					best = f.Hint
				}
			}
			if best != tt.hint {
				t.Errorf("hint = %d, want %d", best, tt.hint)
			}
		})
	}
}

func TestAnalyzeTemplate(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		delta int
	}{
		{"empty", "", 0},
		{"credential form", `<form action="x"><input name="username"><input name="password"></form>`, 73},
		{"hidden and handler", `<div style="display:none"></div><img onerror="x">`, 35},
		{"case sensitive", `<FORM><INPUT name="PASSWORD">`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s := analyzeTemplate(tt.html); s.Delta != tt.delta {
				t.Errorf("delta = %d, want %d", s.Delta, tt.delta)
			}
		})
	}
}

func TestStaticFindingHints(t *testing.T) {
	static := []rules.Finding{
		findingInvalidDomain, findingKnownPhishing, findingDomainSpoof, findingDomainPattern,
		findingLongDomain, findingNumericDomain, findingTyposquat, findingSenderTLD, findingSenderSubdomain,
		findingExcessiveUrgency, findingUrgency, findingCredentials, findingAccountThreat,
		findingInformal, findingGenericGreeting, findingShortener, findingLinkTLD, findingLinkIP,
		findingLinkSubdomain, findingMalformedLink, findingSPFFail, findingDKIMFail, findingDMARCFail,
		findingAllAuthFail, findingReplyTo, findingSenderMarker, findingFreeMail, findingDoubleExt,
		findingExecMime, findingFakeInvoice, findingFakeSupport, findingPrizeScam, findingCEOFraud,
		findingCredForm, findingLoginForm, findingHiddenContent, findingEventHandlers,
	}
	for _, f := range static {
		if want := rules.HintFor(f.Indicator); f.Hint != want {
			t.Errorf("%q carries hint %d, text implies %d", f.Indicator, f.Hint, want)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestSenderDomain(t *testing.T) {
	tests := map[string]string{
		"Alice@Example.COM": "example.com",
		"no-at-sign":        "",
		"a@b@c":             "b",
		"":                  "",
	}
	for in, want := range tests {
		if got := senderDomain(in); got != want {
			t.Errorf("senderDomain(%q) = %q, want %q", in, got, want)
		}
	}
	if !strings.HasPrefix(findingDomainSpoof.Indicator, "Domain spoofing") {
		t.Error("unexpected spoof indicator text")
	}
}
