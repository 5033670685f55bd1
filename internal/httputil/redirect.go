package httputil

import (
	"fmt"
	"net"
	"net/http"
)

// lookupIP is replaced in tests.
var lookupIP = net.LookupIP

func redirectChecker(maxRedirects int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if req.URL.Scheme != "https" {
			return fmt.Errorf("redirect to non-HTTPS URL is not allowed: %s", req.URL)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("too many redirects")
		}

		host := req.URL.Hostname()
		if ip := net.ParseIP(host); ip != nil {
			return checkAddress(ip, host)
		}

		// Every resolved address must pass, or a rebinding DNS answer could
		// slip an internal one through.
		ips, err := lookupIP(host)
		if err != nil {
			return fmt.Errorf("failed to resolve redirect host %s: %w", host, err)
		}
		for _, ip := range ips {
			if err := checkAddress(ip, host); err != nil {
				return err
			}
		}
		return nil
	}
}

// checkAddress rejects addresses that are not publicly routable.
func checkAddress(ip net.IP, host string) error {
	var kind string
	switch {
	case ip.IsPrivate():
		kind = "private"
	case ip.IsLoopback():
		kind = "loopback"
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		kind = "link-local"
	case ip.IsMulticast():
		kind = "multicast"
	case ip.IsUnspecified():
		kind = "unspecified"
	default:
		return nil
	}
	return fmt.Errorf("refusing redirect to %s address: %s (%s)", kind, host, ip)
}
