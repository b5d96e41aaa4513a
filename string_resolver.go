package ddns

import (
	"context"
	"strings"
)

// FromString constructs a resolver that always returns addr.
// It fails if addr is not an IPv4 address.
func FromString(addr string) (Resolver, error) {
	addr = strings.TrimSpace(addr)
	if !ValidIPv4(addr) {
		return nil, invalidArgument("%q is not an IPv4 address", addr)
	}
	return stringResolver(addr), nil
}

type stringResolver string

func (s stringResolver) Resolve(context.Context) (string, error) {
	return string(s), nil
}
