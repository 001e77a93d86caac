package rules

import (
	"strings"

	"github.com/mikey/cybershield/internal/core"
)

// Hint is the threat family a finding points at. Higher values win when
// an email verdict is classified.
type Hint int

const (
	HintNone Hint = iota
	HintImpersonation
	HintFinancial
	HintMalware
	HintCredential
)

// hintTerms lists the indicator terms for each hint, highest priority first
var hintTerms = []struct {
	hint  Hint
	terms []string
}{
	{HintCredential, []string{"credential", "password"}},
	{HintMalware, []string{"malware", "attachment"}},
	{HintFinancial, []string{"financial", "banking", "payment"}},
	{HintImpersonation, []string{"brand", "impersonation"}},
}

// Finding is one indicator emitted by an analyzer
type Finding struct {
	Indicator string
	Hint      Hint
}

// HintFor derives the hint of an indicator text
func HintFor(text string) Hint {
	lower := strings.ToLower(text)
	for _, ht := range hintTerms {
		if ContainsAny(lower, ht.terms) {
			return ht.hint
		}
	}
	return HintNone
}

// Derived builds a finding whose text is only known at emission time
func Derived(text string) Finding {
	return Finding{Indicator: text, Hint: HintFor(text)}
}

// Score accumulates the delta and findings of one analyzer
type Score struct {
	Delta    int
	Findings []Finding
}

// Add records a finding worth delta points
func (s *Score) Add(delta int, f Finding) {
	s.Delta += delta
	s.Findings = append(s.Findings, f)
}

// Merge folds another analyzer's score into s
func (s *Score) Merge(o Score) {
	s.Delta += o.Delta
	s.Findings = append(s.Findings, o.Findings...)
}

// Clamp limits a score to the range 0-100
func Clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// Dedup removes repeated indicators, keeping the first occurrence
func Dedup(indicators []string) []string {
	seen := make(map[string]struct{}, len(indicators))
	out := make([]string, 0, len(indicators))
	for _, ind := range indicators {
		if _, ok := seen[ind]; ok {
			continue
		}
		seen[ind] = struct{}{}
		out = append(out, ind)
	}
	return out
}

// Indicators returns the de-duplicated indicator texts of the findings
func Indicators(findings []Finding) []string {
	texts := make([]string, 0, len(findings))
	for _, f := range findings {
		texts = append(texts, f.Indicator)
	}
	return Dedup(texts)
}

// Classify picks the threat class of the strongest hint among the findings
func Classify(findings []Finding) core.ThreatClass {
	best := HintNone
	for _, f := range findings {
		if f.Hint > best {
			best = f.Hint
		}
	}
	switch best {
	case HintCredential:
		return core.ClassCredentialTheft
	case HintMalware:
		return core.ClassMalwareDelivery
	case HintFinancial:
		return core.ClassFinancialFraud
	case HintImpersonation:
		return core.ClassBusinessEmailCompromise
	default:
		return core.ClassSocialEngineering
	}
}

// WebsiteTier maps a security score to its risk level
func WebsiteTier(score int) core.RiskLevel {
	switch {
	case score >= 80:
		return core.RiskSafe
	case score >= 60:
		return core.RiskLow
	case score >= 40:
		return core.RiskMedium
	case score >= 20:
		return core.RiskHigh
	default:
		return core.RiskCritical
	}
}
