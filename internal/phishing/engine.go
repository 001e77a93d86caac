// Package phishing scores emails for phishing risk with a fixed set of
// indicator analyzers. Scores grow with risk and are capped at 100.
package phishing

import (
	"github.com/mikey/cybershield/internal/core"
	"github.com/mikey/cybershield/internal/rules"
)

const (
	// PhishingThreshold is the lowest risk score reported as phishing
	PhishingThreshold = 30
	// ClassifyThreshold is the lowest risk score that gets a threat class
	ClassifyThreshold = 70
)

// Engine implements core.EmailAnalyzer. It holds no state and is safe for
// concurrent use.
type Engine struct{}

// NewEngine creates a new email risk engine
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze runs every analyzer over the record and aggregates the verdict
func (e *Engine) Analyze(rec *core.EmailRecord) *core.EmailAnalysis {
	if rec == nil {
		rec = &core.EmailRecord{}
	}

	domain := senderDomain(rec.Sender)
	domainScore, reputation := analyzeDomain(domain)

	var total rules.Score
	total.Merge(domainScore)
	total.Merge(analyzeContent(rec.Subject, rec.Body))
	total.Merge(analyzeLinks(rec.Body, rec.HTMLBody))
	total.Merge(analyzeAuthentication(rec))
	total.Merge(analyzeSender(rec.Sender, rec.SenderName, rec.ReplyTo))
	total.Merge(analyzeAttachments(rec.Attachments))
	total.Merge(analyzeBehavior(rec.Subject, rec.Body))
	total.Merge(analyzeTemplate(rec.HTMLBody))

	score := rules.Clamp(total.Delta)
	result := &core.EmailAnalysis{
		IsPhishing:       score >= PhishingThreshold,
		RiskScore:        score,
		RiskTier:         core.EmailTierSafe,
		Indicators:       rules.Indicators(total.Findings),
		Confidence:       score,
		DomainReputation: reputation,
	}
	if result.IsPhishing {
		result.RiskTier = core.EmailTierPhishing
	}
	if score >= ClassifyThreshold {
		result.Classification = rules.Classify(total.Findings)
	}
	return result
}
