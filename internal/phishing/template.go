package phishing

import (
	"strings"

	"github.com/mikey/cybershield/internal/rules"
)

var (
	findingFakeInvoice   = rules.Finding{Indicator: "Fake invoice/receipt with action request"}
	findingFakeSupport   = rules.Finding{Indicator: "Fake support message with action request"}
	findingPrizeScam     = rules.Finding{Indicator: "Prize/reward scam detected"}
	findingCEOFraud      = rules.Finding{Indicator: "CEO fraud / business email compromise pattern"}
	findingCredForm      = rules.Finding{Indicator: "HTML form for credential harvesting detected", Hint: rules.HintCredential}
	findingLoginForm     = rules.Finding{Indicator: "Login form injection detected"}
	findingHiddenContent = rules.Finding{Indicator: "Hidden content in HTML - potential phishing"}
	findingEventHandlers = rules.Finding{Indicator: "Event handlers in HTML - potential malicious behavior"}
)

// behaviorPatterns pairs a lure with the action it asks for
var behaviorPatterns = []struct {
	lure, action []string
	delta        int
	finding      rules.Finding
}{
	{rules.InvoiceWords, rules.InvoiceActions, 25, findingFakeInvoice},
	{rules.SupportWords, rules.SupportActions, 20, findingFakeSupport},
	{rules.PrizeWords, rules.PrizeActions, 32, findingPrizeScam},
	{rules.PressureWords, rules.TransferActions, 28, findingCEOFraud},
}

func analyzeBehavior(subject, body string) rules.Score {
	var s rules.Score
	content := strings.ToLower(subject + " " + body)
	for _, p := range behaviorPatterns {
		if rules.ContainsAny(content, p.lure) && rules.ContainsAny(content, p.action) {
			s.Add(p.delta, p.finding)
		}
	}
	return s
}

// analyzeTemplate inspects the raw HTML body, case-sensitively
func analyzeTemplate(html string) rules.Score {
	var s rules.Score
	if html == "" {
		return s
	}
	hasPassword := strings.Contains(html, "password")
	if strings.Contains(html, "<form") && hasPassword {
		s.Add(38, findingCredForm)
	}
	if strings.Contains(html, "username") && hasPassword && strings.Contains(html, "<input") {
		s.Add(35, findingLoginForm)
	}
	if rules.ContainsAny(html, rules.HiddenContentMarkers) {
		s.Add(15, findingHiddenContent)
	}
	if rules.ContainsAny(html, rules.EventHandlerMarkers) {
		s.Add(20, findingEventHandlers)
	}
	return s
}
