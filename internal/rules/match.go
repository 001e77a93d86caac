package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// unicodeSpaces are the whitespace code points RE2's \s leaves out
const unicodeSpaces = `\x{0B}\x{A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

var (
	ipv4PrefixRE   = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+`)
	digitRunRE     = regexp.MustCompile(`\d{2,}`)
	doubleExtRE    = regexp.MustCompile(`\.\w+\.\w+$`)
	urlCharClass   = "[^\\s" + unicodeSpaces + "<>\"'{}|\\\\^`\\[\\]"
	embeddedLinkRE = regexp.MustCompile(`(?i)https?://` + urlCharClass + `]*` + urlCharClass + `,.]`)
)

// ContainsAny reports whether s contains any of the needles
func ContainsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// FirstContained returns the first needle, in table order, contained in s
func FirstContained(s string, needles []string) (string, bool) {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return n, true
		}
	}
	return "", false
}

// Contained returns every needle contained in s, in table order
func Contained(s string, needles []string) []string {
	var out []string
	for _, n := range needles {
		if strings.Contains(s, n) {
			out = append(out, n)
		}
	}
	return out
}

// FirstContainedBy returns the first entry that contains needle
func FirstContainedBy(entries []string, needle string) (string, bool) {
	for _, e := range entries {
		if strings.Contains(e, needle) {
			return e, true
		}
	}
	return "", false
}

// CountContained counts the needles contained in s
func CountContained(s string, needles []string) int {
	n := 0
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			n++
		}
	}
	return n
}

// HasSuffixAny reports whether s ends with any of the suffixes
func HasSuffixAny(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// In reports whether s equals one of the entries
func In(s string, entries []string) bool {
	for _, e := range entries {
		if s == e {
			return true
		}
	}
	return false
}

// LabelCount returns the number of dot-separated labels in a host name
func LabelCount(host string) int {
	return strings.Count(host, ".") + 1
}

// LooksLikeIPv4 reports whether host starts with a dotted-quad of digits
func LooksLikeIPv4(host string) bool {
	return ipv4PrefixRE.MatchString(host)
}

// HasDigitRun reports whether s holds two or more consecutive digits
func HasDigitRun(s string) bool {
	return digitRunRE.MatchString(s)
}

// HasDoubleExtension reports whether a filename ends in two extensions
func HasDoubleExtension(name string) bool {
	return doubleExtRE.MatchString(name)
}

// ExtractLinks returns every http or https URL embedded in text, in order
func ExtractLinks(text string) []string {
	return embeddedLinkRE.FindAllString(text, -1)
}

// IsTrustedHost reports whether host is a trusted website domain or a
// subdomain of one
func IsTrustedHost(host string) bool {
	for _, trusted := range TrustedWebsiteDomains {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return true
		}
	}
	return false
}

// ASCIIHost lower-cases a host name and converts internationalized names to
// their punycode form
func ASCIIHost(host string) (string, error) {
	host = strings.ToLower(host)
	for i := 0; i < len(host); i++ {
		if host[i] >= utf8.RuneSelf {
			ascii, err := idna.Lookup.ToASCII(host)
			if err != nil {
				return "", fmt.Errorf("converting host %q to ascii: %w", host, err)
			}
			return ascii, nil
		}
	}
	return host, nil
}
