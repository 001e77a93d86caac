package filter

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/mikey/cybershield/internal/core"
)

const multipartMessage = "From: \"Amazon Security\" <security@amaz0n-verify.com>\r\n" +
	"To: Victim <victim@example.com>, other@example.com\r\n" +
	"Reply-To: collect@evil.example\r\n" +
	"Subject: =?UTF-8?B?VmVyaWZ5IHlvdXIgYWNjb3VudA==?=\r\n" +
	"Message-ID: <abc123@amaz0n-verify.com>\r\n" +
	"Received: from mx.example.com (mx.example.com [10.1.1.1])\r\n" +
	"Received: from unknown (evil-host [203.0.113.9])\r\n" +
	"Authentication-Results: mx.example.com; spf=fail smtp.mailfrom=amaz0n-verify.com;\r\n" +
	" dkim=none; dmarc=fail header.from=amaz0n-verify.com\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"outer\"\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: multipart/alternative; boundary=\"inner\"\r\n" +
	"\r\n" +
	"--inner\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"UGxlYXNlIHZlcmlmeSB5b3VyIHBhc3N3b3JkIGF0IGh0dHA6Ly9hbWF6MG4tbG9naW4udGsvdmVyaWZ5\r\n" +
	"--inner\r\n" +
	"Content-Type: text/html; charset=iso-8859-1\r\n" +
	"Content-Transfer-Encoding: quoted-printable\r\n" +
	"\r\n" +
	"<p>caf=E9</p>\r\n" +
	"--inner--\r\n" +
	"--outer\r\n" +
	"Content-Type: application/octet-stream; name=\"invoice.pdf.exe\"\r\n" +
	"Content-Disposition: attachment; filename=\"invoice.pdf.exe\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"TVqQAAMAAAAEAAAA\r\n" +
	"--outer--\r\n"

func TestParseMultipartMessage(t *testing.T) {
	m, err := ParseMessage([]byte(multipartMessage))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	rec := m.Record

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"message id", m.MessageID, "<abc123@amaz0n-verify.com>"},
		{"sender", rec.Sender, "security@amaz0n-verify.com"},
		{"sender name", rec.SenderName, "Amazon Security"},
		{"reply-to", rec.ReplyTo, "collect@evil.example"},
		{"recipient", rec.Recipient, "victim@example.com"},
		{"subject", rec.Subject, "Verify your account"},
		{"body", rec.Body, "Please verify your password at http://amaz0n-login.tk/verify"},
		{"html", rec.HTMLBody, "<p>café</p>"},
		{"ip", rec.IPAddress, "203.0.113.9"},
		{"spf", string(rec.SPF), "fail"},
		{"dkim", string(rec.DKIM), "none"},
		{"dmarc", string(rec.DMARC), "fail"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}

	if len(rec.Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(rec.Attachments))
	}
	if att := rec.Attachments[0]; att.Name != "invoice.pdf.exe" || att.MimeType != "application/octet-stream" {
		t.Errorf("attachment = %+v", att)
	}
}

func TestParseSinglePartMessage(t *testing.T) {
	raw := "From: news@legitimate-company.com\n" +
		"Subject: Monthly news\n" +
		"\n" +
		"Hello Alex\n"
	m, err := ParseMessage([]byte(raw))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if m.Record.Body != "Hello Alex" {
		t.Errorf("Body = %q", m.Record.Body)
	}
	if m.MessageID != "" || m.Record.SPF != core.AuthAbsent {
		t.Errorf("unexpected message id %q or spf %q", m.MessageID, m.Record.SPF)
	}
}

func TestParseMessageRejectsGarbage(t *testing.T) {
	if _, err := ParseMessage([]byte("not a header line\r\n")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestParseAuthResults(t *testing.T) {
	tests := []struct {
		name             string
		header           mail.Header
		spf, dkim, dmarc core.AuthResult
	}{
		{
			name:   "all pass",
			header: mail.Header{"Authentication-Results": {"mx; spf=pass smtp.mailfrom=a.com; dkim=pass header.d=a.com; dmarc=pass"}},
			spf:    core.AuthPass,
			dkim:   core.AuthPass,
			dmarc:  core.AuthPass,
		},
		{
			name:   "softfail is neutral",
			header: mail.Header{"Authentication-Results": {"mx; spf=softfail"}},
			spf:    core.AuthNeutral,
		},
		{
			name:   "first result wins",
			header: mail.Header{"Authentication-Results": {"mx; dkim=fail; dkim=pass"}},
			dkim:   core.AuthFail,
		},
		{
			name:   "received-spf fallback",
			header: mail.Header{"Received-Spf": {"Fail (mailfrom) identity=mailfrom"}},
			spf:    core.AuthFail,
		},
		{
			name: "authentication-results preferred",
			header: mail.Header{
				"Authentication-Results": {"mx; spf=pass"},
				"Received-Spf":           {"fail"},
			},
			spf: core.AuthPass,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spf, dkim, dmarc := parseAuthResults(tt.header)
			if spf != tt.spf || dkim != tt.dkim || dmarc != tt.dmarc {
				t.Errorf("got (%q, %q, %q), want (%q, %q, %q)", spf, dkim, dmarc, tt.spf, tt.dkim, tt.dmarc)
			}
		})
	}
}

func TestDecodeEncodedHeader(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"=?UTF-8?Q?caf=C3=A9?=", "café"},
		{"=?ISO-8859-1?Q?caf=E9?=", "café"},
		{"=?UTF-8?B?VmVyaWZ5IHlvdXIgYWNjb3VudA==?=", "Verify your account"},
	}
	for _, tt := range tests {
		if got := decodeEncodedHeader(tt.in); got != tt.want {
			t.Errorf("decodeEncodedHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCharsetReaderUnknown(t *testing.T) {
	if _, err := charsetReader("x-no-such-charset", strings.NewReader("")); err == nil {
		t.Fatal("expected an error for an unknown charset")
	}
}
