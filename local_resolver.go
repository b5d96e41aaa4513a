package ddns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// InterfaceResolver constructs a resolver that returns the first IPv4 address reported by the given interfaces.
// Interfaces are checked in order. If none are provided then all interfaces will be used.
// Loopback addresses are always skipped.
//
// This is only useful for names that should point at a LAN address.
func InterfaceResolver(iface ...string) Resolver {
	return interfaceResolver{ifaces: iface}
}

type interfaceResolver struct {
	ifaces []string
}

func (r interfaceResolver) Resolve(ctx context.Context) (string, error) {
	if len(r.ifaces) == 0 {
		addrs, err := net.InterfaceAddrs()
		if err != nil {
			return "", fmt.Errorf("error getting interface addresses: %w", err)
		}
		if ip, ok := firstIPv4(addrs); ok {
			return ip, nil
		}
		return "", fmt.Errorf("%w: no interface has a non-loopback IPv4 address", ErrAllSourcesFailed)
	}

	var errs []error
	for _, name := range r.ifaces {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("error getting interface %s by name: %w", name, err))
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			errs = append(errs, fmt.Errorf("error looking up addresses for interface %s: %w", name, err))
			continue
		}
		if ip, ok := firstIPv4(addrs); ok {
			return ip, nil
		}
		errs = append(errs, fmt.Errorf("interface %s has no non-loopback IPv4 address", name))
	}
	return "", fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
}

func firstIPv4(addrs []net.Addr) (string, bool) {
	// addr: ip+net:192.168.86.253/24
	// addr: ip+net:fe80::2cc9:801b:3551:9a43/64
	for _, addr := range addrs {
		p, err := netip.ParsePrefix(addr.String())
		if err != nil {
			continue
		}
		a := p.Addr().Unmap()
		if a.Is4() && !a.IsLoopback() {
			return a.String(), true
		}
	}
	return "", false
}
