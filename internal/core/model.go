package core

import (
	"strings"
	"time"
)

// AuthResult is the outcome of an SPF, DKIM or DMARC check
type AuthResult string

const (
	AuthPass    AuthResult = "pass"
	AuthFail    AuthResult = "fail"
	AuthNeutral AuthResult = "neutral"
	AuthNone    AuthResult = "none"
	// AuthAbsent means the check result was not supplied at all
	AuthAbsent AuthResult = ""
)

// ParseAuthResult normalizes a free-form result string. Anything that is not
// a recognized result is reported as absent.
func ParseAuthResult(s string) AuthResult {
	switch r := AuthResult(strings.ToLower(strings.TrimSpace(s))); r {
	case AuthPass, AuthFail, AuthNeutral, AuthNone:
		return r
	case "softfail", "permerror", "temperror":
		// Authentication-Results uses these; only a hard fail counts as fail
		return AuthNeutral
	default:
		return AuthAbsent
	}
}

// Attachment describes a file attached to an email
type Attachment struct {
	Name     string `json:"name" yaml:"name"`
	MimeType string `json:"mimeType" yaml:"mimeType"`
}

// EmailRecord is the input to the email risk engine
type EmailRecord struct {
	Sender      string       `json:"sender" yaml:"sender"`
	SenderName  string       `json:"senderName,omitempty" yaml:"senderName,omitempty"`
	Subject     string       `json:"subject" yaml:"subject"`
	Body        string       `json:"body" yaml:"body"`
	HTMLBody    string       `json:"htmlBody,omitempty" yaml:"htmlBody,omitempty"`
	Recipient   string       `json:"recipient" yaml:"recipient"`
	IPAddress   string       `json:"ipAddress,omitempty" yaml:"ipAddress,omitempty"`
	SPF         AuthResult   `json:"spfResult,omitempty" yaml:"spfResult,omitempty"`
	DKIM        AuthResult   `json:"dkimResult,omitempty" yaml:"dkimResult,omitempty"`
	DMARC       AuthResult   `json:"dmarcResult,omitempty" yaml:"dmarcResult,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	ReplyTo     string       `json:"replyTo,omitempty" yaml:"replyTo,omitempty"`
}

// DomainReputation is the sender domain label produced by the domain analyzer
type DomainReputation string

const (
	ReputationUnknown    DomainReputation = "unknown"
	ReputationTrusted    DomainReputation = "trusted"
	ReputationSuspicious DomainReputation = "suspicious"
	ReputationMalicious  DomainReputation = "malicious"
)

// ThreatClass names the dominant threat family of a phishing email
type ThreatClass string

const (
	ClassNone                    ThreatClass = ""
	ClassCredentialTheft         ThreatClass = "credential_theft"
	ClassMalwareDelivery         ThreatClass = "malware_delivery"
	ClassFinancialFraud          ThreatClass = "financial_fraud"
	ClassBusinessEmailCompromise ThreatClass = "business_email_compromise"
	ClassSocialEngineering       ThreatClass = "social_engineering"
)

// EmailTier is the effective email risk tier, surfaced alongside the score
type EmailTier string

const (
	EmailTierSafe     EmailTier = "safe"
	EmailTierPhishing EmailTier = "phishing"
)

// EmailAnalysis is the verdict of the email risk engine.
// RiskScore runs the opposite way to WebsiteAnalysis.SecurityScore: higher is worse.
type EmailAnalysis struct {
	IsPhishing       bool             `json:"isPhishing" yaml:"isPhishing"`
	RiskScore        int              `json:"riskScore" yaml:"riskScore"`
	RiskTier         EmailTier        `json:"riskTier" yaml:"riskTier"`
	Indicators       []string         `json:"indicators" yaml:"indicators"`
	Confidence       int              `json:"confidence" yaml:"confidence"`
	Classification   ThreatClass      `json:"classification,omitempty" yaml:"classification,omitempty"`
	DomainReputation DomainReputation `json:"domainReputation" yaml:"domainReputation"`
}

// RiskLevel is the five-step website tier
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// WebsiteAnalysis is the verdict of the website risk engine.
// SecurityScore is higher for safer sites.
type WebsiteAnalysis struct {
	IsMalicious            bool      `json:"isMalicious" yaml:"isMalicious"`
	RiskLevel              RiskLevel `json:"riskLevel" yaml:"riskLevel"`
	SecurityScore          int       `json:"securityScore" yaml:"securityScore"`
	Indicators             []string  `json:"indicators" yaml:"indicators"`
	Category               string    `json:"category" yaml:"category"`
	Description            string    `json:"description" yaml:"description"`
	UsesHTTPS              bool      `json:"usesHttps" yaml:"usesHttps"`
	IsTrustedDomain        bool      `json:"isTrustedDomain" yaml:"isTrustedDomain"`
	HasSecurityCertificate bool      `json:"hasSecurityCertificate" yaml:"hasSecurityCertificate"`
}

// Severity grades threats for activity records and alerts
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// EmailSeverity maps a phishing risk score to a severity
func EmailSeverity(riskScore int) Severity {
	switch {
	case riskScore >= 80:
		return SeverityCritical
	case riskScore >= 60:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// WebsiteSeverity maps a website risk level to a severity
func WebsiteSeverity(level RiskLevel) Severity {
	switch level {
	case RiskCritical:
		return SeverityCritical
	case RiskHigh:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// Severe reports whether a severity warrants an alert
func (s Severity) Severe() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// Source identifies how an email entered the system
type Source string

const (
	SourceSMTP    Source = "smtp"
	SourceWebhook Source = "webhook"
	SourceAPI     Source = "api"
)

// IncomingEmail is an email handed to the service by an ingestion adapter
type IncomingEmail struct {
	MessageID string
	Source    Source
	Record    EmailRecord
}

// StoredEmail is a persisted email together with its latest analysis
type StoredEmail struct {
	ID             string        `json:"id" yaml:"id"`
	MessageID      string        `json:"messageId" yaml:"messageId"`
	Source         Source        `json:"source" yaml:"source"`
	ReceivedAt     time.Time     `json:"receivedAt" yaml:"receivedAt"`
	Record         EmailRecord   `json:"email" yaml:"email"`
	Analysis       EmailAnalysis `json:"analysis" yaml:"analysis"`
	AnalysisStatus string        `json:"analysisStatus" yaml:"analysisStatus"`
	Quarantined    bool          `json:"quarantined" yaml:"quarantined"`
	// Duplicate is set when the message was already seen and nothing was stored
	Duplicate bool `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
}

// WebsiteCheck is a persisted website analysis
type WebsiteCheck struct {
	ID        string          `json:"id" yaml:"id"`
	URL       string          `json:"url" yaml:"url"`
	CheckedAt time.Time       `json:"checkedAt" yaml:"checkedAt"`
	Analysis  WebsiteAnalysis `json:"analysis" yaml:"analysis"`
}

// ActivityType classifies activity log entries
type ActivityType string

const (
	ActivityBlocked  ActivityType = "blocked"
	ActivityDetected ActivityType = "detected"
	ActivityUpdated  ActivityType = "updated"
	ActivityAnalysis ActivityType = "analysis"
)

// Activity is an entry of the security activity log
type Activity struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Type        ActivityType `json:"type" yaml:"type"`
	Severity    Severity     `json:"severity,omitempty" yaml:"severity,omitempty"`
	Timestamp   time.Time    `json:"timestamp" yaml:"timestamp"`
	RelatedID   string       `json:"relatedId,omitempty" yaml:"relatedId,omitempty"`
}

// Alert kinds
const (
	AlertPhishingEmail    = "phishing_email"
	AlertMaliciousWebsite = "malicious_website"
)

// Alert is the notification payload for a severe positive verdict
type Alert struct {
	Kind       string    `json:"kind"`
	Subject    string    `json:"subject"`
	Target     string    `json:"target"`
	Score      int       `json:"score"`
	Severity   Severity  `json:"severity"`
	Indicators []string  `json:"indicators"`
	Timestamp  time.Time `json:"timestamp"`
}

// EmailQuery filters email listings
type EmailQuery struct {
	// Phishing restricts results to the given verdict when set
	Phishing *bool
	Limit    int
}
