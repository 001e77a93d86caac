// Package rules holds the fixed rule tables shared by the email and website
// risk engines together with the matching and verdict helpers built on them.
// Every table is read-only after package initialization.
package rules

// Sender domains known to be used for phishing
var MaliciousSenderDomains = []string{
	"amaz0n-verify.com", "paypal-security.net", "microsoft-365.org",
	"google-security.net", "apple-verification.com", "facebook-security.org",
	"instagram-support.net", "twitter-verification.org", "linkedin-security.com",
	"bank-update.com", "account-verify.net", "security-alert.org",
}

// Legitimate sender domains. A sender domain that contains one of these
// without being equal to it is treated as spoofing.
var LegitimateSenderDomains = []string{
	"amazon.com", "paypal.com", "microsoft.com", "google.com", "apple.com",
	"facebook.com", "instagram.com", "twitter.com", "linkedin.com",
	"bank.com", "chase.com", "wellsfargo.com", "bankofamerica.com",
	"gmail.com", "outlook.com", "yahoo.com", "zoho.com",
}

// Brand misspellings seen in typosquatted sender domains
var TyposquatFragments = []string{
	"micorsoft", "gogle", "amazn", "paypa", "appel", "facebok", "linkedn",
}

// Words that make a hyphenated sender domain look like a security notice
var SecurityThemedWords = []string{"verify", "secure", "update", "alert"}

// TLD suffixes favored by phishing senders
var EmailSuspiciousTLDs = []string{
	".tk", ".ml", ".ga", ".cf", ".xyz", ".download", ".racing", ".webcam",
	".accountant", ".cricket", ".faith", ".gdn", ".loan", ".science",
}

// Phrases scored by the content analyzer
var PhishingKeywords = []string{
	"verify account", "suspended account", "urgent action required",
	"click here immediately", "confirm identity", "security alert",
	"unusual activity", "account limitation", "expires today",
	"act now", "limited time", "winning prize", "congratulations you won",
	"tax refund", "inheritance", "lottery winner", "prince nigeria",
	"update payment", "confirm billing", "update card", "confirm password",
	"re-activate account", "unlock account", "verify banking", "confirm transaction",
	"click here now", "do not ignore", "urgent notice", "final notice",
	"immediate action", "action required", "respond now", "confirm details",
	"validate account", "authorize transaction", "resolve issue", "complete verification",
	"attack", "compromised", "breached", "hacked", "malware", "virus", "threat",
	"infected", "unauthorized access", "data breach", "ransomware", "click link",
	"open attachment", "download file", "enable macros", "install update",
}

var UrgencyWords = []string{
	"urgent", "immediately", "expires", "suspend", "limited time", "act now", "asap", "quickly",
}

var CredentialWords = []string{"password", "pin", "ssn", "social security", "credit card", "cvv"}

var VerifyWords = []string{"verify", "confirm", "validate", "authenticate", "authorize"}

// Verbs that, next to the word "account", form an account threat
var AccountThreatWords = []string{"suspend", "close", "freeze", "lock", "block", "deactivate", "terminate"}

var Misspellings = []string{"recieve", "seperate", "occured", "untill", "goverment", "adress", "sincerly"}

// Informal markers are matched as plain substrings
var InformalMarkers = []string{"u r", "ur", "wud", "shud", "cud"}

var GenericGreetings = []string{"dear user", "dear customer", "dear valued", "dear sir", "dear madam"}

var URLShorteners = []string{
	"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly", "shortened.link", "short.link",
}

// Brands whose mention in a plain-text body is checked against link hosts.
// Matching is case-sensitive and the first brand found wins.
var LinkClaimBrands = []string{"paypal", "amazon", "microsoft", "bank"}

// Brands checked against the sender display name
var SenderBrands = []string{
	"amazon", "paypal", "microsoft", "google", "apple", "facebook",
	"bank", "chase", "wells", "irs", "netflix", "uber",
}

var SenderPatternMarkers = []string{"+", "noreply", "donotreply", "no-reply"}

var FreeMailDomains = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "aol.com"}

// Business words that a free-mail sender should not be using
var BusinessClaimWords = []string{"bank", "paypal", "amazon", "company"}

var DangerousExtensions = []string{
	".exe", ".scr", ".bat", ".cmd", ".com", ".pif", ".vbs", ".js",
	".jar", ".zip", ".rar", ".7z", ".iso",
}

var ExecutableMimeMarkers = []string{"x-msdownload", "x-msdos"}

// Behavioral pattern word groups
var (
	InvoiceWords    = []string{"invoice", "receipt", "billing"}
	InvoiceActions  = []string{"click", "verify", "confirm"}
	SupportWords    = []string{"support", "help", "ticket"}
	SupportActions  = []string{"click", "confirm", "verify"}
	PrizeWords      = []string{"winner", "prize", "reward", "congratulations"}
	PrizeActions    = []string{"claim", "click", "verify"}
	PressureWords   = []string{"urgent", "confidential"}
	TransferActions = []string{"transfer", "wire", "payment"}
)

// HTML template markers, matched case-sensitively against the raw HTML body
var (
	HiddenContentMarkers = []string{"display:none", "visibility:hidden", "color:#ffffff"}
	EventHandlerMarkers  = []string{"onclick", "onload", "onerror"}
)

// Trusted website domains. A host matches when it equals an entry or is a
// subdomain of one.
var TrustedWebsiteDomains = []string{
	"google.com", "apple.com", "microsoft.com", "amazon.com", "facebook.com",
	"github.com", "stackoverflow.com", "wikipedia.org", "reddit.com", "twitter.com",
	"linkedin.com", "youtube.com", "instagram.com", "paypal.com", "stripe.com",
	"twilio.com", "openai.com", "slack.com", "zoom.com", "netflix.com",
	"adobe.com", "atlassian.com", "ibm.com", "oracle.com", "salesforce.com",
	"okta.com", "auth0.com", "cloudflare.com", "heroku.com", "vercel.com",
	"verifiedbydigiticert.com", "digicert.com", "sectigo.com",
	"chase.com", "bofa.com", "wellsfargo.com", "hsbc.com", "citigroup.com",
	"capitalone.com", "bankofamerica.com", "americanexpress.com",
	"google-analytics.com", "googleapis.com", "cdn.jsdelivr.net", "cdnjs.cloudflare.com",
}

// Brand tokens that indicate spoofing when found in an untrusted host
var SpoofedBrands = []string{"paypal", "amazon", "microsoft", "apple", "google", "facebook", "bank", "chase"}

// Host tokens counted by the website keyword rule
var SuspiciousHostKeywords = []string{
	"verify", "confirm", "update", "secure", "alert", "urgent", "warning",
	"banking", "account", "login", "auth", "signin", "paypal", "amazon",
	"apple", "microsoft", "google", "bank", "crypto", "wallet",
}

var WebsiteSuspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".xyz", ".download", ".racing", ".webcam"}

// Path tokens marking a sensitive page
var SensitivePathTokens = []string{"admin", "login", "verify"}

// Path tokens marking malware distribution
var MalwarePathTokens = []string{"malware", "virus", "trojan", "ransomware"}
