package phishing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mikey/cybershield/internal/rules"
)

var (
	findingShortener     = rules.Finding{Indicator: "URL shortener detected - hides real destination"}
	findingLinkTLD       = rules.Finding{Indicator: "Suspicious TLD in URL"}
	findingLinkIP        = rules.Finding{Indicator: "URL uses IP address - strong phishing indicator"}
	findingLinkSubdomain = rules.Finding{Indicator: "Complex subdomain structure - potential phishing"}
	findingMalformedLink = rules.Finding{Indicator: "Malformed URL detected"}
)

var errNoHost = errors.New("url has no host")

// linkHost parses a link and returns its lower-cased ASCII host name
func linkHost(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", errNoHost
	}
	return rules.ASCIIHost(u.Hostname())
}

// analyzeLinks scores every http(s) link found in the plain and HTML bodies.
// The brand claim is read from the plain body only, case-sensitively.
func analyzeLinks(body, htmlBody string) rules.Score {
	var s rules.Score
	links := rules.ExtractLinks(body + htmlBody)
	if len(links) == 0 {
		return s
	}
	claimed, hasClaim := rules.FirstContained(body, rules.LinkClaimBrands)

	for _, link := range links {
		host, err := linkHost(link)
		if err != nil {
			s.Add(12, findingMalformedLink)
			continue
		}
		if rules.ContainsAny(host, rules.URLShorteners) {
			s.Add(35, findingShortener)
		}
		if hasClaim && !strings.Contains(host, claimed) {
			s.Add(45, rules.Derived(fmt.Sprintf("URL domain mismatch - claims to be %s but links to %s", claimed, host)))
		}
		if rules.HasSuffixAny(host, rules.EmailSuspiciousTLDs) {
			s.Add(35, findingLinkTLD)
		}
		if rules.LooksLikeIPv4(host) {
			s.Add(40, findingLinkIP)
		}
		if rules.LabelCount(host) > 3 {
			s.Add(12, findingLinkSubdomain)
		}
	}
	return s
}
