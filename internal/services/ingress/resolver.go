package ingress

import (
	"context"
	"errors"
	"net"
	"time"
)

const dnsTimeout = 5 * time.Second

// Resolver performs the pre-admission DNS lookup. Referenced by interface
// so tests can stub resolution without touching the network.
type Resolver interface {
	Resolve(ctx context.Context, hostname string) (net.IP, error)
}

// NetResolver resolves against the system resolver with a hard deadline
type NetResolver struct {
	resolver *net.Resolver
}

// NewNetResolver creates the default resolver
func NewNetResolver() *NetResolver {
	return &NetResolver{resolver: net.DefaultResolver}
}

// Resolve returns the first address the resolver yields for the hostname.
// Resolution runs before any downstream resource is allocated, and the
// returned address (not the hostname) is what the SSRF guard inspects.
func (r *NetResolver) Resolve(ctx context.Context, hostname string) (net.IP, error) {
	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	addrs, err := r.resolver.LookupIPAddr(ctx, hostname)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewError(CodeDNSTimeout, "DNS lookup for %s timed out", hostname)
		}
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			if dnsErr.IsTimeout {
				return nil, NewError(CodeDNSTimeout, "DNS lookup for %s timed out", hostname)
			}
			return nil, NewError(dnsFailedCode(dnsErr), "DNS lookup for %s failed: %s", hostname, dnsErr.Err)
		}
		return nil, NewError(CodeDNSFailed, "DNS lookup for %s failed: %v", hostname, err)
	}
	if len(addrs) == 0 {
		return nil, NewError(CodeDNSFailed+":NODATA", "DNS lookup for %s returned no addresses", hostname)
	}
	return addrs[0].IP, nil
}

// dnsFailedCode appends the resolver's error class to the base code
func dnsFailedCode(dnsErr *net.DNSError) string {
	if dnsErr.IsNotFound {
		return CodeDNSFailed + ":NXDOMAIN"
	}
	if dnsErr.IsTemporary {
		return CodeDNSFailed + ":TEMPORARY"
	}
	return CodeDNSFailed
}
