package analysis

import (
	"regexp"

	"github.com/ternarybob/vigil/internal/models"
)

// trackerPattern matches a tracking company by URL keyword substring
type trackerPattern struct {
	Keyword  string
	Company  string
	Category string
	Risk     models.TrackerRisk
}

// Order matters: the first matching keyword wins
var trackerPatterns = []trackerPattern{
	{"google-analytics", "Google Analytics", "analytics", models.TrackerRiskMedium},
	{"googletagmanager", "Google Tag Manager", "tag-manager", models.TrackerRiskMedium},
	{"doubleclick", "Google DoubleClick", "advertising", models.TrackerRiskHigh},
	{"googlesyndication", "Google AdSense", "advertising", models.TrackerRiskHigh},
	{"googleadservices", "Google Ads", "advertising", models.TrackerRiskHigh},
	{"connect.facebook", "Meta Pixel", "advertising", models.TrackerRiskHigh},
	{"facebook.com/tr", "Meta Pixel", "advertising", models.TrackerRiskHigh},
	{"fbcdn", "Meta", "social", models.TrackerRiskMedium},
	{"analytics.tiktok", "TikTok Pixel", "advertising", models.TrackerRiskHigh},
	{"tiktok.com/i18n", "TikTok", "social", models.TrackerRiskMedium},
	{"ads-twitter", "X Ads", "advertising", models.TrackerRiskHigh},
	{"static.ads-twitter", "X Ads", "advertising", models.TrackerRiskHigh},
	{"snap.licdn", "LinkedIn Insight", "advertising", models.TrackerRiskMedium},
	{"hotjar", "Hotjar", "session-replay", models.TrackerRiskHigh},
	{"fullstory", "FullStory", "session-replay", models.TrackerRiskHigh},
	{"mouseflow", "Mouseflow", "session-replay", models.TrackerRiskHigh},
	{"clarity.ms", "Microsoft Clarity", "session-replay", models.TrackerRiskHigh},
	{"bat.bing", "Microsoft Advertising", "advertising", models.TrackerRiskMedium},
	{"segment.com", "Segment", "analytics", models.TrackerRiskMedium},
	{"segment.io", "Segment", "analytics", models.TrackerRiskMedium},
	{"mixpanel", "Mixpanel", "analytics", models.TrackerRiskMedium},
	{"amplitude", "Amplitude", "analytics", models.TrackerRiskMedium},
	{"heap.io", "Heap", "analytics", models.TrackerRiskMedium},
	{"matomo", "Matomo", "analytics", models.TrackerRiskLow},
	{"plausible.io", "Plausible", "analytics", models.TrackerRiskLow},
	{"criteo", "Criteo", "advertising", models.TrackerRiskHigh},
	{"taboola", "Taboola", "advertising", models.TrackerRiskHigh},
	{"outbrain", "Outbrain", "advertising", models.TrackerRiskHigh},
	{"adnxs", "Xandr", "advertising", models.TrackerRiskHigh},
	{"rubiconproject", "Magnite", "advertising", models.TrackerRiskHigh},
	{"pubmatic", "PubMatic", "advertising", models.TrackerRiskHigh},
	{"quantserve", "Quantcast", "advertising", models.TrackerRiskHigh},
	{"scorecardresearch", "Comscore", "analytics", models.TrackerRiskMedium},
	{"newrelic", "New Relic", "performance", models.TrackerRiskLow},
	{"sentry.io", "Sentry", "performance", models.TrackerRiskLow},
	{"sentry-cdn", "Sentry", "performance", models.TrackerRiskLow},
	{"intercom", "Intercom", "customer-messaging", models.TrackerRiskMedium},
	{"hs-scripts", "HubSpot", "marketing", models.TrackerRiskMedium},
	{"hubspot", "HubSpot", "marketing", models.TrackerRiskMedium},
	{"pardot", "Salesforce Pardot", "marketing", models.TrackerRiskMedium},
	{"klaviyo", "Klaviyo", "marketing", models.TrackerRiskMedium},
	{"braze", "Braze", "marketing", models.TrackerRiskMedium},
	{"onesignal", "OneSignal", "push-notifications", models.TrackerRiskMedium},
	{"optimizely", "Optimizely", "ab-testing", models.TrackerRiskMedium},
	{"crazyegg", "Crazy Egg", "session-replay", models.TrackerRiskHigh},
	{"yandex.ru/metrika", "Yandex Metrica", "analytics", models.TrackerRiskHigh},
	{"mc.yandex", "Yandex Metrica", "analytics", models.TrackerRiskHigh},
	{"pinimg", "Pinterest", "advertising", models.TrackerRiskMedium},
	{"ct.pinterest", "Pinterest Tag", "advertising", models.TrackerRiskHigh},
	{"sc-static", "Snap Pixel", "advertising", models.TrackerRiskHigh},
	{"tr.snapchat", "Snap Pixel", "advertising", models.TrackerRiskHigh},
	{"amazon-adsystem", "Amazon Advertising", "advertising", models.TrackerRiskHigh},
}

// CDN hosts excluded from tracker detection, script intelligence, and the
// external-domain counts. Serving assets from a CDN is not surveillance.
var cdnAllowlist = []string{
	"cdnjs.cloudflare.com",
	"cdn.jsdelivr.net",
	"unpkg.com",
	"ajax.googleapis.com",
	"fonts.googleapis.com",
	"fonts.gstatic.com",
	"code.jquery.com",
	"stackpath.bootstrapcdn.com",
	"maxcdn.bootstrapcdn.com",
	"cdn.shopify.com",
	"use.fontawesome.com",
	"kit.fontawesome.com",
	"polyfill.io",
}

// cookieNameEntry classifies a cookie by exact name or name prefix
type cookieNameEntry struct {
	Name    string
	Prefix  bool
	Company string
	Purpose models.CookiePurpose
	Risk    string
}

var cookieNameTable = []cookieNameEntry{
	{"_ga", true, "Google Analytics", models.CookiePurposeAnalytics, "medium"},
	{"_gid", false, "Google Analytics", models.CookiePurposeAnalytics, "medium"},
	{"_gat", true, "Google Analytics", models.CookiePurposeAnalytics, "low"},
	{"_gcl_au", false, "Google Ads", models.CookiePurposeTracking, "high"},
	{"IDE", false, "Google DoubleClick", models.CookiePurposeTracking, "high"},
	{"NID", false, "Google", models.CookiePurposeTracking, "medium"},
	{"_fbp", false, "Meta", models.CookiePurposeTracking, "high"},
	{"_fbc", false, "Meta", models.CookiePurposeTracking, "high"},
	{"fr", false, "Meta", models.CookiePurposeTracking, "high"},
	{"_ttp", false, "TikTok", models.CookiePurposeTracking, "high"},
	{"_tt_enable_cookie", false, "TikTok", models.CookiePurposeTracking, "high"},
	{"_pin_unauth", false, "Pinterest", models.CookiePurposeTracking, "high"},
	{"_scid", false, "Snap", models.CookiePurposeTracking, "high"},
	{"_uetsid", false, "Microsoft Advertising", models.CookiePurposeTracking, "medium"},
	{"_uetvid", false, "Microsoft Advertising", models.CookiePurposeTracking, "medium"},
	{"MUID", false, "Microsoft", models.CookiePurposeTracking, "medium"},
	{"_hj", true, "Hotjar", models.CookiePurposeAnalytics, "medium"},
	{"_clck", false, "Microsoft Clarity", models.CookiePurposeAnalytics, "medium"},
	{"_clsk", false, "Microsoft Clarity", models.CookiePurposeAnalytics, "medium"},
	{"ajs_anonymous_id", false, "Segment", models.CookiePurposeAnalytics, "medium"},
	{"mp_", true, "Mixpanel", models.CookiePurposeAnalytics, "medium"},
	{"amplitude_", true, "Amplitude", models.CookiePurposeAnalytics, "medium"},
	{"intercom-", true, "Intercom", models.CookiePurposeFunctional, "low"},
	{"hubspotutk", false, "HubSpot", models.CookiePurposeTracking, "medium"},
	{"__hstc", false, "HubSpot", models.CookiePurposeTracking, "medium"},
	{"__hssrc", false, "HubSpot", models.CookiePurposeAnalytics, "low"},
	{"_mkto_trk", false, "Marketo", models.CookiePurposeTracking, "medium"},
	{"__kla_id", false, "Klaviyo", models.CookiePurposeTracking, "medium"},
	{"_ym_", true, "Yandex Metrica", models.CookiePurposeAnalytics, "high"},
	{"yandexuid", false, "Yandex", models.CookiePurposeTracking, "high"},
	{"PHPSESSID", false, "", models.CookiePurposeSession, "low"},
	{"JSESSIONID", false, "", models.CookiePurposeSession, "low"},
	{"ASP.NET_SessionId", false, "", models.CookiePurposeSession, "low"},
	{"connect.sid", false, "", models.CookiePurposeSession, "low"},
	{"csrftoken", false, "", models.CookiePurposeSession, "low"},
	{"XSRF-TOKEN", false, "", models.CookiePurposeSession, "low"},
	{"__cf_bm", false, "Cloudflare", models.CookiePurposeFunctional, "low"},
	{"cf_clearance", false, "Cloudflare", models.CookiePurposeFunctional, "low"},
	{"OptanonConsent", false, "OneTrust", models.CookiePurposeFunctional, "low"},
	{"CookieConsent", false, "Cookiebot", models.CookiePurposeFunctional, "low"},
}

// cookiePatternEntry is the regex fallback when no name entry matches
type cookiePatternEntry struct {
	Pattern *regexp.Regexp
	Purpose models.CookiePurpose
	Risk    string
}

var cookiePatternTable = []cookiePatternEntry{
	{regexp.MustCompile(`(?i)(sess|sid)`), models.CookiePurposeSession, "low"},
	{regexp.MustCompile(`(?i)(analytic|stat|metric)`), models.CookiePurposeAnalytics, "medium"},
	{regexp.MustCompile(`(?i)(track|pixel|visitor|uid|uuid|guid)`), models.CookiePurposeTracking, "medium"},
	{regexp.MustCompile(`(?i)(pref|lang|locale|theme|consent|gdpr)`), models.CookiePurposeFunctional, "low"},
	{regexp.MustCompile(`(?i)(ad|campaign|utm)`), models.CookiePurposeTracking, "high"},
}

// domainOwner maps an external domain to its parent corporation
type domainOwner struct {
	Parent   string
	Brand    string
	Color    string
	Category string
}

var domainOwners = map[string]domainOwner{
	"google.com":             {"Alphabet", "Google", "#4285F4", "advertising"},
	"google-analytics.com":   {"Alphabet", "Google Analytics", "#4285F4", "analytics"},
	"googletagmanager.com":   {"Alphabet", "Google Tag Manager", "#4285F4", "tag-manager"},
	"doubleclick.net":        {"Alphabet", "DoubleClick", "#4285F4", "advertising"},
	"googlesyndication.com":  {"Alphabet", "AdSense", "#4285F4", "advertising"},
	"googleadservices.com":   {"Alphabet", "Google Ads", "#4285F4", "advertising"},
	"gstatic.com":            {"Alphabet", "Google Static", "#4285F4", "infrastructure"},
	"googleapis.com":         {"Alphabet", "Google APIs", "#4285F4", "infrastructure"},
	"youtube.com":            {"Alphabet", "YouTube", "#FF0000", "media"},
	"ytimg.com":              {"Alphabet", "YouTube", "#FF0000", "media"},
	"facebook.com":           {"Meta", "Facebook", "#1877F2", "social"},
	"facebook.net":           {"Meta", "Meta Pixel", "#1877F2", "advertising"},
	"fbcdn.net":              {"Meta", "Facebook CDN", "#1877F2", "infrastructure"},
	"instagram.com":          {"Meta", "Instagram", "#E4405F", "social"},
	"tiktok.com":             {"ByteDance", "TikTok", "#010101", "social"},
	"tiktokcdn.com":          {"ByteDance", "TikTok CDN", "#010101", "infrastructure"},
	"twitter.com":            {"X Corp", "X", "#000000", "social"},
	"x.com":                  {"X Corp", "X", "#000000", "social"},
	"ads-twitter.com":        {"X Corp", "X Ads", "#000000", "advertising"},
	"linkedin.com":           {"Microsoft", "LinkedIn", "#0A66C2", "social"},
	"licdn.com":              {"Microsoft", "LinkedIn CDN", "#0A66C2", "infrastructure"},
	"bing.com":               {"Microsoft", "Bing", "#008373", "advertising"},
	"clarity.ms":             {"Microsoft", "Clarity", "#008373", "session-replay"},
	"microsoft.com":          {"Microsoft", "Microsoft", "#737373", "infrastructure"},
	"amazon-adsystem.com":    {"Amazon", "Amazon Ads", "#FF9900", "advertising"},
	"amazonaws.com":          {"Amazon", "AWS", "#FF9900", "infrastructure"},
	"cloudfront.net":         {"Amazon", "CloudFront", "#FF9900", "infrastructure"},
	"hotjar.com":             {"Contentsquare", "Hotjar", "#FD3A5C", "session-replay"},
	"fullstory.com":          {"FullStory", "FullStory", "#2E3A4E", "session-replay"},
	"segment.com":            {"Twilio", "Segment", "#52BD94", "analytics"},
	"segment.io":             {"Twilio", "Segment", "#52BD94", "analytics"},
	"mixpanel.com":           {"Mixpanel", "Mixpanel", "#7856FF", "analytics"},
	"amplitude.com":          {"Amplitude", "Amplitude", "#1E61F0", "analytics"},
	"criteo.com":             {"Criteo", "Criteo", "#F48120", "advertising"},
	"criteo.net":             {"Criteo", "Criteo", "#F48120", "advertising"},
	"taboola.com":            {"Taboola", "Taboola", "#004B7A", "advertising"},
	"outbrain.com":           {"Outbrain", "Outbrain", "#F18421", "advertising"},
	"adnxs.com":              {"Microsoft", "Xandr", "#737373", "advertising"},
	"pubmatic.com":           {"PubMatic", "PubMatic", "#1B8AF0", "advertising"},
	"rubiconproject.com":     {"Magnite", "Rubicon", "#D4202C", "advertising"},
	"quantserve.com":         {"Quantcast", "Quantcast", "#F26722", "advertising"},
	"scorecardresearch.com":  {"Comscore", "Scorecard Research", "#0054A6", "analytics"},
	"newrelic.com":           {"New Relic", "New Relic", "#1CE783", "performance"},
	"nr-data.net":            {"New Relic", "New Relic", "#1CE783", "performance"},
	"sentry.io":              {"Sentry", "Sentry", "#362D59", "performance"},
	"intercom.io":            {"Intercom", "Intercom", "#1F8DED", "customer-messaging"},
	"intercomcdn.com":        {"Intercom", "Intercom", "#1F8DED", "customer-messaging"},
	"hubspot.com":            {"HubSpot", "HubSpot", "#FF7A59", "marketing"},
	"hs-scripts.com":         {"HubSpot", "HubSpot", "#FF7A59", "marketing"},
	"hsforms.com":            {"HubSpot", "HubSpot Forms", "#FF7A59", "marketing"},
	"klaviyo.com":            {"Klaviyo", "Klaviyo", "#232426", "marketing"},
	"onesignal.com":          {"OneSignal", "OneSignal", "#E54B4D", "push-notifications"},
	"optimizely.com":         {"Optimizely", "Optimizely", "#0037FF", "ab-testing"},
	"cloudflare.com":         {"Cloudflare", "Cloudflare", "#F38020", "infrastructure"},
	"cloudflareinsights.com": {"Cloudflare", "Cloudflare Analytics", "#F38020", "analytics"},
	"jsdelivr.net":           {"jsDelivr", "jsDelivr", "#E84D3D", "infrastructure"},
	"unpkg.com":              {"Cloudflare", "unpkg", "#F38020", "infrastructure"},
	"yandex.ru":              {"Yandex", "Yandex", "#FC3F1D", "analytics"},
	"snapchat.com":           {"Snap", "Snapchat", "#FFFC00", "advertising"},
	"pinterest.com":          {"Pinterest", "Pinterest", "#E60023", "advertising"},
	"pinimg.com":             {"Pinterest", "Pinterest CDN", "#E60023", "infrastructure"},
	"shopify.com":            {"Shopify", "Shopify", "#96BF48", "commerce"},
	"stripe.com":             {"Stripe", "Stripe", "#635BFF", "payments"},
	"paypal.com":             {"PayPal", "PayPal", "#003087", "payments"},
	"vimeo.com":              {"Vimeo", "Vimeo", "#1AB7EA", "media"},
	"wistia.com":             {"Wistia", "Wistia", "#54BBFF", "media"},
	"disqus.com":             {"Disqus", "Disqus", "#2E9FFF", "comments"},
	"addthis.com":            {"Oracle", "AddThis", "#FF6550", "social"},
	"sharethis.com":          {"ShareThis", "ShareThis", "#01BF01", "social"},
}

// obfuscationSignature is one suspicious construct in script source
type obfuscationSignature struct {
	Name         string
	Pattern      *regexp.Regexp
	HighSeverity bool
}

var obfuscationSignatures = []obfuscationSignature{
	{"eval", regexp.MustCompile(`\beval\s*\(`), true},
	{"new-function", regexp.MustCompile(`new\s+Function\s*\(`), true},
	{"hex-escape", regexp.MustCompile(`\\x[0-9a-fA-F]{2}`), false},
	{"unicode-escape", regexp.MustCompile(`\\u[0-9a-fA-F]{4}`), false},
	{"atob", regexp.MustCompile(`\batob\s*\(`), false},
	{"fromcharcode", regexp.MustCompile(`String\.fromCharCode`), true},
	{"bracket-call", regexp.MustCompile(`\[\s*['"][a-zA-Z_$]+['"]\s*\]\s*\(`), false},
	{"settimeout-string", regexp.MustCompile(`setTimeout\s*\(\s*['"]`), true},
	{"obfuscated-global", regexp.MustCompile(`(?:window|document)\s*\[\s*['"]`), false},
}

// exfiltrationPattern is one data-access construct worth counting
var exfiltrationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`document\.cookie`),
	regexp.MustCompile(`localStorage|sessionStorage`),
	regexp.MustCompile(`navigator\.(userAgent|platform|language|plugins|hardwareConcurrency|deviceMemory)`),
	regexp.MustCompile(`screen\.(width|height|colorDepth|availWidth|availHeight)`),
	regexp.MustCompile(`\bfetch\s*\(|XMLHttpRequest`),
	regexp.MustCompile(`sendBeacon`),
	regexp.MustCompile(`new\s+WebSocket`),
	regexp.MustCompile(`geolocation`),
	regexp.MustCompile(`getBattery`),
	regexp.MustCompile(`getBoundingClientRect|offsetWidth|offsetHeight`),
}

// KnownBadHashes is the SHA-256 threat list cross-checked during script
// intelligence. Empty by default; deployments can load a feed into it at
// startup before workers run.
var KnownBadHashes = map[string]bool{}
