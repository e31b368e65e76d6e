package ingress

import (
	"net"
	"strings"
)

// Hostnames refused outright before any address check
var blockedHostnames = map[string]struct{}{
	"localhost":                {},
	"0.0.0.0":                  {},
	"metadata.google.internal": {},
	"169.254.169.254":          {},
}

// Private-zone suffixes that never leave an internal network
var blockedSuffixes = []string{
	".local",
	".internal",
	".corp",
	".lan",
	".intranet",
}

// Address ranges the crawler must never reach. Checks run against the
// resolved address rather than the submitted hostname, which closes the
// DNS-rebinding hole where a public name resolves somewhere private.
var blockedRanges = mustParseCIDRs(
	"127.0.0.0/8",
	"10.0.0.0/8",
	"192.168.0.0/16",
	"172.16.0.0/12",
	"169.254.0.0/16",
	"100.64.0.0/10",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic("ssrf: bad CIDR " + c)
		}
		nets = append(nets, n)
	}
	return nets
}

// GuardSSRF rejects hostnames and resolved addresses that would let a scan
// reach internal infrastructure
func GuardSSRF(hostname string, addr net.IP) error {
	host := strings.ToLower(hostname)

	if _, blocked := blockedHostnames[host]; blocked {
		return NewError(CodeSSRFHostname, "hostname %s is blocked", host)
	}
	for _, suffix := range blockedSuffixes {
		if strings.HasSuffix(host, suffix) {
			return NewError(CodeSSRFPattern, "hostname %s matches blocked pattern %s", host, suffix)
		}
	}
	for _, ipNet := range blockedRanges {
		if ipNet.Contains(addr) {
			return NewError(CodeSSRFPrivateIP, "%s resolves to private address %s", host, addr)
		}
	}
	return nil
}
