// Package website scores URLs for malicious-site risk. Sites start at a
// security score of 100 and lose points for each risk found, so a higher
// score means a safer site.
package website

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mikey/cybershield/internal/core"
	"github.com/mikey/cybershield/internal/rules"
)

// MaliciousBelow is the security score under which a site is malicious
const MaliciousBelow = 60

const (
	CategoryInvalid     = "Invalid URL"
	CategoryUnencrypted = "Unencrypted Connection"
	CategoryLegitimate  = "Legitimate Service"
	CategorySpoofing    = "Phishing/Domain Spoofing"
	CategoryIPPhishing  = "IP-based Phishing"
	CategorySuspectTLD  = "Suspicious TLD"
	CategoryMalware     = "Malware Distribution"
)

var defaultDescriptions = map[core.RiskLevel]string{
	core.RiskSafe:     "This website appears to be safe and secure.",
	core.RiskLow:      "This website has minimal security issues but should be used with caution.",
	core.RiskMedium:   "This website has moderate security concerns. Avoid entering sensitive information.",
	core.RiskHigh:     "This website has significant security risks. Do not visit or enter personal information.",
	core.RiskCritical: "This website is likely malicious. Block access immediately.",
}

var errInvalidURL = errors.New("url must have a scheme and a host")

// Engine implements core.WebsiteAnalyzer. It holds no state and is safe for
// concurrent use.
type Engine struct{}

// NewEngine creates a new website risk engine
func NewEngine() *Engine {
	return &Engine{}
}

type target struct {
	https bool
	host  string
	path  string
}

func parseTarget(raw string) (*target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return nil, errInvalidURL
	}
	host, err := rules.ASCIIHost(u.Hostname())
	if err != nil {
		return nil, err
	}
	return &target{
		https: strings.EqualFold(u.Scheme, "https"),
		host:  host,
		path:  strings.ToLower(u.EscapedPath()),
	}, nil
}

// verdict collects deductions along with the latest category and description
type verdict struct {
	score       int
	indicators  []string
	category    string
	description string
}

func (v *verdict) note(delta int, indicator string) {
	v.score += delta
	v.indicators = append(v.indicators, indicator)
}

func (v *verdict) label(category, description string) {
	v.category = category
	v.description = description
}

// Analyze applies every rule, in order, to the URL
func (e *Engine) Analyze(rawURL string) *core.WebsiteAnalysis {
	t, err := parseTarget(rawURL)
	if err != nil {
		return invalid()
	}

	v := &verdict{score: 100}
	if !t.https {
		v.note(-50, "No HTTPS encryption - data transmitted in plain text")
		v.note(0, "No SSL/TLS security certificate - cannot verify website identity")
		v.label(CategoryUnencrypted, "This website uses unencrypted HTTP protocol instead of secure HTTPS. All data is vulnerable to interception.")
	} else {
		v.note(0, "HTTPS secure connection enabled")
		v.note(0, "SSL/TLS certificate detected")
	}

	trusted := rules.IsTrustedHost(t.host)
	if trusted {
		v.note(30, "Verified trusted domain from security database")
		v.label(CategoryLegitimate, "This is a known legitimate website from a trusted company. Safe to visit.")
	} else if spoofsBrand(t.host) {
		v.note(-45, "Domain spoofing detected - mimics legitimate company")
		v.label(CategorySpoofing, "This domain is designed to look like a legitimate company but is actually fraudulent.")
	}

	if len(t.host) > 40 {
		v.note(-10, "Suspiciously long domain name")
	}

	if rules.LooksLikeIPv4(t.host) {
		v.note(-40, "Uses IP address instead of domain name - strong phishing indicator")
		v.label(CategoryIPPhishing, "Legitimate websites use domain names, not IP addresses. This is a phishing tactic.")
	}

	if rules.LabelCount(t.host) > 3 {
		v.note(-15, "Multiple subdomains - potential subdomain hijacking")
	}

	if rules.HasSuffixAny(t.host, rules.WebsiteSuspiciousTLDs) {
		tld := t.host[strings.LastIndex(t.host, ".")+1:]
		v.note(-30, fmt.Sprintf("Suspicious top-level domain (.%s)", tld))
		v.label(CategorySuspectTLD, "This domain uses a cheap, unrestricted TLD commonly used in phishing attacks.")
	}

	if !trusted && rules.ContainsAny(t.path, rules.SensitivePathTokens) {
		v.note(-20, "Admin/login path on untrusted domain")
	}

	if n := rules.CountContained(t.host, rules.SuspiciousHostKeywords); n > 2 && !trusted {
		v.note(-25, fmt.Sprintf("Multiple suspicious keywords in domain (%d)", n))
	}

	if t.https && !trusted {
		v.note(-10, "Self-signed certificate or certificate from untrusted CA")
	}

	if rules.ContainsAny(t.path, rules.MalwarePathTokens) {
		v.note(-50, "Malware/threat related content detected in URL")
		v.label(CategoryMalware, "This website appears to host malicious content or malware.")
	}

	if !trusted {
		v.note(-10, "Not found in trusted security databases")
	}

	score := rules.Clamp(v.score)
	level := rules.WebsiteTier(score)
	result := &core.WebsiteAnalysis{
		IsMalicious:            score < MaliciousBelow,
		RiskLevel:              level,
		SecurityScore:          score,
		Indicators:             rules.Dedup(v.indicators),
		Category:               v.category,
		Description:            v.description,
		UsesHTTPS:              t.https,
		IsTrustedDomain:        trusted,
		HasSecurityCertificate: t.https,
	}
	if result.Category == "" {
		result.Category = string(level)
	}
	if result.Description == "" {
		result.Description = defaultDescriptions[level]
	}
	return result
}

// spoofsBrand reports whether an untrusted host carries a major brand name
// without being that brand's own domain
func spoofsBrand(host string) bool {
	labels := strings.Split(host, ".")
	for _, brand := range rules.SpoofedBrands {
		if !strings.Contains(host, brand) {
			continue
		}
		owner, ok := brandDomain(brand)
		if ok && host == owner {
			continue
		}
		if len(labels) > 1 && !rules.In(brand, labels) {
			return true
		}
	}
	return false
}

// brandDomain returns the first trusted domain containing the brand
func brandDomain(brand string) (string, bool) {
	return rules.FirstContainedBy(rules.TrustedWebsiteDomains, brand)
}

func invalid() *core.WebsiteAnalysis {
	return &core.WebsiteAnalysis{
		IsMalicious:   true,
		RiskLevel:     core.RiskCritical,
		SecurityScore: 0,
		Indicators:    []string{"Invalid URL format"},
		Category:      CategoryInvalid,
		Description:   "The provided URL is invalid or malformed.",
	}
}
