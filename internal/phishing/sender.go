package phishing

import (
	"fmt"
	"strings"

	"github.com/mikey/cybershield/internal/core"
	"github.com/mikey/cybershield/internal/rules"
)

var (
	findingSPFFail      = rules.Finding{Indicator: "SPF authentication failed - spoofing likely"}
	findingDKIMFail     = rules.Finding{Indicator: "DKIM signature invalid - email not from legitimate sender"}
	findingDMARCFail    = rules.Finding{Indicator: "DMARC policy violation - email failed authentication checks"}
	findingAllAuthFail  = rules.Finding{Indicator: "All email authentication methods failed"}
	findingReplyTo      = rules.Finding{Indicator: "Reply-To address differs from sender - potential phishing"}
	findingSenderMarker = rules.Finding{Indicator: "Suspicious sender pattern detected"}
	findingFreeMail     = rules.Finding{Indicator: "Free email service impersonating business entity"}
	findingDoubleExt    = rules.Finding{Indicator: "Double file extension detected - potential malware", Hint: rules.HintMalware}
	findingExecMime     = rules.Finding{Indicator: "Executable file disguised as document"}
)

func analyzeAuthentication(rec *core.EmailRecord) rules.Score {
	var s rules.Score
	spf, dkim, dmarc := rec.SPF == core.AuthFail, rec.DKIM == core.AuthFail, rec.DMARC == core.AuthFail
	if spf {
		s.Add(28, findingSPFFail)
	}
	if dkim {
		s.Add(22, findingDKIMFail)
	}
	if dmarc {
		s.Add(32, findingDMARCFail)
	}
	if spf && dkim && dmarc {
		s.Add(15, findingAllAuthFail)
	}
	return s
}

// analyzeSender checks the envelope identity. Address markers are matched
// against the raw sender, case-sensitively.
func analyzeSender(sender, senderName, replyTo string) rules.Score {
	var s rules.Score
	if replyTo != "" && replyTo != sender {
		s.Add(20, findingReplyTo)
	}

	domain := senderDomain(sender)
	if senderName != "" && sender != "" {
		brand, ok := rules.FirstContained(strings.ToLower(senderName), rules.SenderBrands)
		if ok && !strings.Contains(domain, brand) {
			s.Add(40, rules.Derived(fmt.Sprintf("Brand impersonation: Claims to be %s but from %s", brand, domain)))
		}
	}

	if rules.ContainsAny(sender, rules.SenderPatternMarkers) {
		s.Add(12, findingSenderMarker)
	}

	if rules.In(domain, rules.FreeMailDomains) &&
		rules.ContainsAny(strings.ToLower(sender+senderName), rules.BusinessClaimWords) {
		s.Add(25, findingFreeMail)
	}
	return s
}

// analyzeAttachments scores each attachment independently
func analyzeAttachments(attachments []core.Attachment) rules.Score {
	var s rules.Score
	for _, a := range attachments {
		ext := strings.ToLower(a.Name[strings.LastIndex(a.Name, ".")+1:])
		if ext != "" && rules.In("."+ext, rules.DangerousExtensions) {
			s.Add(35, rules.Derived(fmt.Sprintf("Malicious attachment detected: .%s file", ext)))
		}
		if rules.HasDoubleExtension(a.Name) {
			s.Add(20, findingDoubleExt)
		}
		if rules.ContainsAny(a.MimeType, rules.ExecutableMimeMarkers) {
			s.Add(30, findingExecMime)
		}
	}
	return s
}
