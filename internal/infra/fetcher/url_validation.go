// Package fetcher retrieves remote pages for link previews within fixed
// safety limits.
package fetcher

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"syscall"
	"time"
)

// sharedAddressSpace is the carrier-grade NAT range, reachable only from
// inside the provider network.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// validateURL rejects URLs the fetcher must never request: anything that is
// not http(s) with a host, and literal addresses in private ranges when
// denyPrivateIPs is set. Hostnames are checked later, at dial time, against
// the address actually connected to.
func validateURL(urlStr string, denyPrivateIPs bool) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}
	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}

	if !denyPrivateIPs {
		return nil
	}
	if addr, err := netip.ParseAddr(hostname); err == nil && isPrivateAddr(addr) {
		return fmt.Errorf("%w: %s", ErrPrivateIP, addr)
	}
	return nil
}

// newDialer returns the dialer used for every fetch. With denyPrivateIPs it
// refuses connections to private addresses after DNS resolution, which also
// covers redirects and hostnames that re-resolve between checks.
func newDialer(denyPrivateIPs bool) *net.Dialer {
	d := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if denyPrivateIPs {
		d.Control = func(_, address string, _ syscall.RawConn) error {
			ap, err := netip.ParseAddrPort(address)
			if err != nil {
				return fmt.Errorf("%w: unexpected dial address %q", ErrInvalidURL, address)
			}
			if isPrivateAddr(ap.Addr()) {
				return fmt.Errorf("%w: %s", ErrPrivateIP, ap.Addr())
			}
			return nil
		}
	}
	return d
}

// isPrivateAddr reports whether addr is loopback, private, unspecified,
// link-local (which includes the 169.254.169.254 cloud metadata endpoint)
// or carrier-grade NAT.
func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		sharedAddressSpace.Contains(addr)
}
