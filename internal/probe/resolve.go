package probe

import (
	"context"
	"errors"
	"net"
	"strings"
)

var errNoAddress = errors.New("no address for host")

// resolveIP returns the first address for host, preferring IPv4.
func resolveIP(ctx context.Context, r *net.Resolver, host string) (net.IP, error) {
	host = strings.TrimSpace(host)
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	if len(addrs) > 0 {
		return addrs[0].IP, nil
	}
	return nil, errNoAddress
}
