package phishing

import (
	"strings"
	"unicode/utf8"

	"github.com/mikey/cybershield/internal/core"
	"github.com/mikey/cybershield/internal/rules"
)

var (
	findingInvalidDomain   = rules.Finding{Indicator: "Invalid sender domain"}
	findingKnownPhishing   = rules.Finding{Indicator: "Known phishing domain detected"}
	findingDomainSpoof     = rules.Finding{Indicator: "Domain spoofing detected - mimics legitimate domain"}
	findingDomainPattern   = rules.Finding{Indicator: "Suspicious domain pattern detected"}
	findingLongDomain      = rules.Finding{Indicator: "Unusually long domain name"}
	findingNumericDomain   = rules.Finding{Indicator: "Multiple numbers in domain - suspicious pattern"}
	findingTyposquat       = rules.Finding{Indicator: "Typosquatting domain detected"}
	findingSenderTLD       = rules.Finding{Indicator: "Suspicious top-level domain used"}
	findingSenderSubdomain = rules.Finding{Indicator: "Multiple subdomains - potential subdomain spoofing"}
)

// senderDomain returns the lower-cased text between the first and second
// '@' of an address, or "" when there is no '@'
func senderDomain(sender string) string {
	parts := strings.SplitN(sender, "@", 3)
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

func analyzeDomain(domain string) (rules.Score, core.DomainReputation) {
	var s rules.Score
	if domain == "" {
		s.Add(20, findingInvalidDomain)
		return s, core.ReputationMalicious
	}

	switch {
	case rules.In(domain, rules.MaliciousSenderDomains):
		s.Add(40, findingKnownPhishing)
		return s, core.ReputationMalicious
	case mimicsLegitimate(domain):
		s.Add(35, findingDomainSpoof)
		return s, core.ReputationSuspicious
	case rules.In(domain, rules.LegitimateSenderDomains):
		return s, core.ReputationTrusted
	}

	reputation := core.ReputationUnknown
	if strings.Contains(domain, "-") && rules.ContainsAny(domain, rules.SecurityThemedWords) {
		s.Add(28, findingDomainPattern)
		reputation = core.ReputationSuspicious
	}
	if utf8.RuneCountInString(domain) > 25 {
		s.Add(18, findingLongDomain)
	}
	if rules.HasDigitRun(domain) && strings.Contains(domain, ".") {
		s.Add(22, findingNumericDomain)
	}
	if rules.ContainsAny(domain, rules.TyposquatFragments) {
		s.Add(38, findingTyposquat)
		reputation = core.ReputationMalicious
	}
	if rules.HasSuffixAny(domain, rules.EmailSuspiciousTLDs) {
		s.Add(25, findingSenderTLD)
		reputation = core.ReputationSuspicious
	}
	if rules.LabelCount(domain) > 3 {
		s.Add(15, findingSenderSubdomain)
	}
	return s, reputation
}

// mimicsLegitimate reports whether domain embeds a legitimate domain
// without being that domain
func mimicsLegitimate(domain string) bool {
	for _, legit := range rules.LegitimateSenderDomains {
		if domain != legit && strings.Contains(domain, legit) {
			return true
		}
	}
	return false
}
