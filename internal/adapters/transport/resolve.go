package transport

import (
	"context"
	"net"
	"time"
)

const resolveTimeout = 2 * time.Second

// Resolver is satisfied by *net.Resolver.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// ResolveHost returns the first address the system resolver reports for
// host, or host itself when it is already an IP or cannot be resolved.
// The system resolver follows nsswitch, so .local names work where the OS
// has mDNS configured.
func ResolveHost(ctx context.Context, host string) string {
	return resolveWith(ctx, net.DefaultResolver, host)
}

func resolveWith(ctx context.Context, r Resolver, host string) string {
	if host == "" || net.ParseIP(host) != nil || r == nil {
		return host
	}
	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()
	addrs, err := r.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		return host
	}
	return addrs[0]
}
