package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/vigil/internal/models"
)

const secondsPerDay = 86400

// classifyCookieName matches the known-name table, exact names first,
// then prefixes, then the regex fallback.
func classifyCookieName(name string) (company string, purpose models.CookiePurpose, risk string) {
	for _, entry := range cookieNameTable {
		if entry.Prefix {
			if strings.HasPrefix(name, entry.Name) {
				return entry.Company, entry.Purpose, entry.Risk
			}
		} else if name == entry.Name {
			return entry.Company, entry.Purpose, entry.Risk
		}
	}
	for _, entry := range cookiePatternTable {
		if entry.Pattern.MatchString(name) {
			return "", entry.Purpose, entry.Risk
		}
	}
	return "", models.CookiePurposeUnknown, "low"
}

// lifetimeDays converts the expiry to days from now. Session cookies
// yield nil; an already-expired cookie yields a negative value.
func lifetimeDays(expires float64, now time.Time) *float64 {
	if expires <= 0 {
		return nil
	}
	days := (expires - float64(now.Unix())) / secondsPerDay
	return &days
}

func lifetimeRisk(days *float64) models.CookieLifetimeRisk {
	if days == nil {
		return models.LifetimeRiskSafe
	}
	switch {
	case *days < 30:
		return models.LifetimeRiskLow
	case *days < 365:
		return models.LifetimeRiskMedium
	case *days < 730:
		return models.LifetimeRiskHigh
	default:
		return models.LifetimeRiskCritical
	}
}

// normalizeDomain strips the leading dot and a www. prefix
func normalizeDomain(domain string) string {
	domain = strings.TrimPrefix(strings.ToLower(domain), ".")
	return strings.TrimPrefix(domain, "www.")
}

// isThirdPartyCookie compares the cookie domain against the page hostname
func isThirdPartyCookie(cookieDomain, pageHost string) bool {
	cd := normalizeDomain(cookieDomain)
	ph := normalizeDomain(pageHost)
	if cd == "" || ph == "" || cd == ph {
		return false
	}
	if strings.HasSuffix(ph, "."+cd) || strings.HasSuffix(cd, "."+ph) {
		return false
	}
	return true
}

// cookieSecurityIssues audits the cookie's attribute hygiene
func cookieSecurityIssues(cookie models.CapturedCookie) []string {
	var issues []string
	if !cookie.Secure {
		issues = append(issues, "missing Secure attribute")
	}
	if !cookie.HTTPOnly {
		issues = append(issues, "missing HttpOnly attribute")
	}
	sameSite := strings.ToLower(cookie.SameSite)
	if sameSite == "" {
		issues = append(issues, "missing SameSite attribute")
	} else if sameSite == "none" {
		issues = append(issues, "SameSite=None allows cross-site sending")
	}
	return issues
}

var cookieRiskRank = map[string]int{"high": 0, "medium": 1, "low": 2}

// analyzeCookies runs the deep cookie audit over the captured context
// cookies. maxReports bounds the returned records; the summary always
// covers every cookie.
func analyzeCookies(cookies []models.CapturedCookie, pageHost string, maxReports int, now time.Time) models.CookieAnalysis {
	summary := models.CookieSummary{
		Total:     len(cookies),
		ByPurpose: make(map[string]int),
		ByRisk:    make(map[string]int),
	}

	reports := make([]models.CookieReport, 0, len(cookies))
	for _, cookie := range cookies {
		company, purpose, risk := classifyCookieName(cookie.Name)
		days := lifetimeDays(cookie.Expires, now)
		lifeRisk := lifetimeRisk(days)
		thirdParty := isThirdPartyCookie(cookie.Domain, pageHost)
		issues := cookieSecurityIssues(cookie)

		// A long-lived or cross-site tracking cookie is high risk no
		// matter what the name table said
		if purpose == models.CookiePurposeTracking && (lifeRisk == models.LifetimeRiskCritical || thirdParty) {
			risk = "high"
		}

		report := models.CookieReport{
			Name:           cookie.Name,
			Domain:         cookie.Domain,
			Company:        company,
			Purpose:        purpose,
			Risk:           risk,
			LifetimeDays:   days,
			LifetimeRisk:   lifeRisk,
			ThirdParty:     thirdParty,
			SecurityIssues: issues,
		}
		reports = append(reports, report)

		summary.ByPurpose[string(purpose)]++
		summary.ByRisk[risk]++
		summary.SecurityIssues += len(issues)
		if thirdParty && purpose == models.CookiePurposeTracking {
			summary.ThirdPartyTracking++
		}
		if days != nil && *days > summary.LongestLivedDays {
			summary.LongestLivedDays = *days
			summary.LongestLivedName = cookie.Name
		}
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return cookieRiskRank[reports[i].Risk] < cookieRiskRank[reports[j].Risk]
	})
	if maxReports > 0 && len(reports) > maxReports {
		reports = reports[:maxReports]
	}

	return models.CookieAnalysis{Cookies: reports, Summary: summary}
}
