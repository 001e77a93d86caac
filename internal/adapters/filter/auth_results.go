package filter

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/mikey/cybershield/internal/core"
)

var (
	authMethodRE = regexp.MustCompile(`(?i)(?:^|[\s;])(spf|dkim|dmarc)\s*=\s*([a-z]+)`)
	receivedIPRE = regexp.MustCompile(`\[(\d{1,3}(?:\.\d{1,3}){3})\]`)
)

// parseAuthResults reads SPF, DKIM and DMARC outcomes from
// Authentication-Results headers. Received-SPF fills in a missing SPF result.
// The first result reported for each method wins.
func parseAuthResults(h mail.Header) (spf, dkim, dmarc core.AuthResult) {
	for _, value := range h["Authentication-Results"] {
		for _, m := range authMethodRE.FindAllStringSubmatch(value, -1) {
			result := core.ParseAuthResult(m[2])
			switch strings.ToLower(m[1]) {
			case "spf":
				if spf == core.AuthAbsent {
					spf = result
				}
			case "dkim":
				if dkim == core.AuthAbsent {
					dkim = result
				}
			case "dmarc":
				if dmarc == core.AuthAbsent {
					dmarc = result
				}
			}
		}
	}

	if spf == core.AuthAbsent {
		if fields := strings.Fields(h.Get("Received-Spf")); len(fields) > 0 {
			spf = core.ParseAuthResult(fields[0])
		}
	}
	return spf, dkim, dmarc
}

// originatingIP returns the bracketed IPv4 address of the oldest Received
// header
func originatingIP(h mail.Header) string {
	received := h["Received"]
	for i := len(received) - 1; i >= 0; i-- {
		if m := receivedIPRE.FindStringSubmatch(received[i]); m != nil {
			return m[1]
		}
	}
	return ""
}
