package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender is exempt from automatic quarantine.
// A listed domain also covers its subdomains.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new whitelist checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized quarantine exemptions", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsWhitelisted checks if the sender's domain is exempt
func (c *Checker) IsWhitelisted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	from = strings.Trim(strings.TrimSpace(from), "<>")
	at := strings.LastIndex(from, "@")
	if at <= 0 || at == len(from)-1 {
		return false
	}
	domain := strings.ToLower(from[at+1:])

	for _, exempt := range c.domains {
		if domain == exempt || strings.HasSuffix(domain, "."+exempt) {
			if c.logger != nil {
				c.logger.Debug("Sender is exempt from quarantine",
					zap.String("domain", domain),
					zap.String("email", from))
			}
			return true
		}
	}
	return false
}
