package models

// Analysis report types. The full report is stored as the opaque raw_data
// blob on a ScanResult; the summarized columns are derived from it.

// TrackerRisk grades an identified tracker
type TrackerRisk string

const (
	TrackerRiskLow    TrackerRisk = "low"
	TrackerRiskMedium TrackerRisk = "medium"
	TrackerRiskHigh   TrackerRisk = "high"
)

// TrackerFinding is one identified tracking company
type TrackerFinding struct {
	Company  string      `json:"company"`
	Category string      `json:"category"`
	Risk     TrackerRisk `json:"risk"`
	Matched  string      `json:"matched"` // URL that matched the pattern
}

// CookiePurpose classifies what a cookie is for
type CookiePurpose string

const (
	CookiePurposeSession    CookiePurpose = "session"
	CookiePurposeAnalytics  CookiePurpose = "analytics"
	CookiePurposeTracking   CookiePurpose = "tracking"
	CookiePurposeFunctional CookiePurpose = "functional"
	CookiePurposeUnknown    CookiePurpose = "unknown"
)

// CookieLifetimeRisk buckets cookie lifetime
type CookieLifetimeRisk string

const (
	LifetimeRiskSafe     CookieLifetimeRisk = "safe"     // Session cookie
	LifetimeRiskLow      CookieLifetimeRisk = "low"      // < 30 days
	LifetimeRiskMedium   CookieLifetimeRisk = "medium"   // < 365 days
	LifetimeRiskHigh     CookieLifetimeRisk = "high"     // < 730 days
	LifetimeRiskCritical CookieLifetimeRisk = "critical" // >= 730 days
)

// CookieReport is the deep analysis of a single cookie
type CookieReport struct {
	Name           string             `json:"name"`
	Domain         string             `json:"domain"`
	Company        string             `json:"company"`
	Purpose        CookiePurpose      `json:"purpose"`
	Risk           string             `json:"risk"`
	LifetimeDays   *float64           `json:"lifetimeDays"` // nil for session cookies; negative when expired
	LifetimeRisk   CookieLifetimeRisk `json:"lifetimeRisk"`
	ThirdParty     bool               `json:"thirdParty"`
	SecurityIssues []string           `json:"securityIssues,omitempty"`
}

// CookieSummary aggregates the cookie audit
type CookieSummary struct {
	Total              int            `json:"total"`
	ThirdPartyTracking int            `json:"thirdPartyTracking"`
	ByPurpose          map[string]int `json:"byPurpose"`
	ByRisk             map[string]int `json:"byRisk"`
	SecurityIssues     int            `json:"securityIssues"`
	LongestLivedDays   float64        `json:"longestLivedDays"`
	LongestLivedName   string         `json:"longestLivedName"`
}

// CookieAnalysis is the full cookie audit output
type CookieAnalysis struct {
	Cookies []CookieReport `json:"cookies"`
	Summary CookieSummary  `json:"summary"`
}

// ScriptReport is the intelligence gathered on one external script
type ScriptReport struct {
	URL                string  `json:"url"`
	SHA256             string  `json:"sha256"`
	KnownBad           bool    `json:"knownBad"`
	SizeBytes          int     `json:"sizeBytes"`
	Entropy            float64 `json:"entropy"`
	ObfuscationScore   int     `json:"obfuscationScore"`
	ObfuscationSignals int     `json:"obfuscationSignals"`
	ExfiltrationHits   int     `json:"exfiltrationHits"`
	Risk               string  `json:"risk"`
	FetchError         string  `json:"fetchError,omitempty"`
}

// OwnershipNode links the scanned site to a parent corporation
type OwnershipNode struct {
	Parent    string   `json:"parent"`
	Category  string   `json:"category"`
	Color     string   `json:"color"`
	Brands    []string `json:"brands"`
	Domains   []string `json:"domains"`
	EdgeCount int      `json:"edgeCount"`
}

// OwnershipStats summarizes the ownership graph
type OwnershipStats struct {
	TotalCompanies         int            `json:"totalCompanies"`
	IdentifiedDomains      int            `json:"identifiedDomains"`
	UnknownDomains         int            `json:"unknownDomains"`
	CorporateConcentration int            `json:"corporateConcentration"`
	TopCompanies           []string       `json:"topCompanies"`
	CategoryBreakdown      map[string]int `json:"categoryBreakdown"`
}

// OwnershipGraph maps the site's external traffic to parent corporations
type OwnershipGraph struct {
	Site  string          `json:"site"`
	Nodes []OwnershipNode `json:"nodes"`
	Stats OwnershipStats  `json:"stats"`
}

// SignalType grades a security signal
type SignalType string

const (
	SignalSafe    SignalType = "safe"
	SignalInfo    SignalType = "info"
	SignalWarning SignalType = "warning"
	SignalDanger  SignalType = "danger"
)

// SecuritySignal is one observation surfaced to the report
type SecuritySignal struct {
	Type     SignalType `json:"type"`
	Category string     `json:"category"`
	Message  string     `json:"message"`
}

// AnalysisReport is the complete analysis output for one crawl record
type AnalysisReport struct {
	Score     int       `json:"score"`
	RiskLevel RiskLevel `json:"riskLevel"`
	Summary   string    `json:"summary"`

	TrackerCount        int `json:"trackerCount"`
	CookieCount         int `json:"cookieCount"`
	ExternalDomainCount int `json:"externalDomainCount"`
	PagesCrawled        int `json:"pagesCrawled"`

	IsHTTPS           bool `json:"isHttps"`
	HasCSP            bool `json:"hasCsp"`
	CanvasFingerprint bool `json:"canvasFingerprint"`
	WebGLFingerprint  bool `json:"webglFingerprint"`
	FontFingerprint   bool `json:"fontFingerprint"`
	Keylogger         bool `json:"keylogger"`

	Trackers  []TrackerFinding `json:"trackers"`
	Cookies   CookieAnalysis   `json:"cookies"`
	Scripts   []ScriptReport   `json:"scripts"`
	Ownership OwnershipGraph   `json:"ownership"`
	Signals   []SecuritySignal `json:"signals"`
}
