package ingress

import (
	"net"
	"net/url"
	"strings"
)

const maxURLLength = 2048

// ValidateURL normalizes a raw submission into a canonical URL and its
// hostname. Inputs without a scheme are treated as https. Raw IP literals
// are refused here regardless of where they resolve; the SSRF guard only
// sees hostnames that survived validation.
func ValidateURL(raw string) (canonical string, hostname string, err error) {
	if raw == "" {
		return "", "", NewError(CodeURLMissing, "url is required")
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", NewError(CodeURLEmpty, "url is empty")
	}
	if len(trimmed) > maxURLLength {
		return "", "", NewError(CodeURLMalformed, "url exceeds %d characters", maxURLLength)
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, perr := url.Parse(trimmed)
	if perr != nil {
		return "", "", NewError(CodeURLMalformed, "url could not be parsed: %v", perr)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", NewError(CodeInvalidProtocol, "unsupported protocol %q", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return "", "", NewError(CodeInvalidHostname, "url has no hostname")
	}

	if ip := net.ParseIP(host); ip != nil {
		return "", "", NewError(CodeRawIP, "raw IP addresses are not supported")
	}

	host = strings.ToLower(host)
	if !validHostname(host) {
		return "", "", NewError(CodeInvalidHostname, "hostname %q is not valid", host)
	}
	if !strings.Contains(host, ".") {
		return "", "", NewError(CodeNoTLD, "hostname %q has no top-level domain", host)
	}

	parsed.Scheme = scheme
	parsed.Host = canonicalHost(parsed.Host, scheme)
	return parsed.String(), host, nil
}

// validHostname applies a conservative character check. Full RFC hostname
// validation is the resolver's job; this just rejects obvious garbage.
func validHostname(host string) bool {
	if len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for _, r := range label {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
				return false
			}
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
	}
	return true
}

// canonicalHost lowercases the host portion and elides the scheme's
// default port, so explicit and implicit spellings of the same origin
// collapse to one canonical URL.
func canonicalHost(hostport, scheme string) string {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return strings.ToLower(hostport)
	}
	host = strings.ToLower(host)
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		return host
	}
	return net.JoinHostPort(host, port)
}
