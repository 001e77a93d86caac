package phishing

import (
	"fmt"
	"strings"

	"github.com/mikey/cybershield/internal/rules"
)

var (
	findingExcessiveUrgency = rules.Finding{Indicator: "Excessive urgency tactics - hallmark of phishing"}
	findingUrgency          = rules.Finding{Indicator: "Multiple urgency indicators detected"}
	findingCredentials      = rules.Finding{Indicator: "Credential harvesting attempt detected", Hint: rules.HintCredential}
	findingAccountThreat    = rules.Finding{Indicator: "Account threat detected - common phishing tactic"}
	findingInformal         = rules.Finding{Indicator: "Informal/poor language usage detected"}
	findingGenericGreeting  = rules.Finding{Indicator: "Generic greeting instead of personalized - phishing indicator"}
)

// analyzeContent scores the lower-cased subject and body text
func analyzeContent(subject, body string) rules.Score {
	var s rules.Score
	content := strings.ToLower(subject + " " + body)

	keywords := rules.Contained(content, rules.PhishingKeywords)
	switch n := len(keywords); {
	case n >= 3:
		s.Add(15*n, rules.Derived(fmt.Sprintf("Multiple phishing keywords detected (%d): %s",
			n, strings.Join(keywords[:3], ", "))))
	case n > 0:
		s.Add(12*n, rules.Derived(fmt.Sprintf("Phishing keyword detected: %q", keywords[0])))
	}

	switch urgency := rules.CountContained(content, rules.UrgencyWords); {
	case urgency >= 3:
		s.Add(28, findingExcessiveUrgency)
	case urgency == 2:
		s.Add(18, findingUrgency)
	}

	if rules.ContainsAny(content, rules.CredentialWords) && rules.ContainsAny(content, rules.VerifyWords) {
		s.Add(32, findingCredentials)
	}

	if strings.Contains(content, "account") && rules.ContainsAny(content, rules.AccountThreatWords) {
		s.Add(30, findingAccountThreat)
	}

	if n := rules.CountContained(content, rules.Misspellings); n > 0 {
		s.Add(6*n, rules.Derived(fmt.Sprintf(
			"Poor spelling/grammar detected (%d) - professional emails are spell-checked", n)))
	}

	if rules.ContainsAny(content, rules.InformalMarkers) {
		s.Add(12, findingInformal)
	}

	if rules.ContainsAny(content, rules.GenericGreetings) {
		s.Add(15, findingGenericGreeting)
	}
	return s
}
