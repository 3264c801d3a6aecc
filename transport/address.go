package transport

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// IsValidIP reports whether addr is a global unicast address worth
// advertising.
func IsValidIP(addr string) bool {
	ip := net.ParseIP(addr)
	return ip.IsGlobalUnicast() && !ip.IsInterfaceLocalMulticast()
}

func ExtractPort(lis net.Listener) (int, bool) {
	if addr, ok := lis.Addr().(*net.TCPAddr); ok {
		return addr.Port, true
	}
	return 0, false
}

// AdjustAddress turns a listen address into one a peer can dial. The port
// comes from lis when given; an unspecified host is replaced by the address
// of the lowest-indexed interface that is up.
func AdjustAddress(hostPort string, lis net.Listener) (string, error) {
	addr, port, err := net.SplitHostPort(hostPort)
	if err != nil && lis == nil {
		return "", err
	}
	if lis != nil {
		p, ok := ExtractPort(lis)
		if !ok {
			return "", fmt.Errorf("failed to extract port: %v", lis.Addr())
		}
		port = strconv.Itoa(p)
	}
	if len(addr) > 0 && (addr != "0.0.0.0" && addr != "[::]" && addr != "::") {
		return net.JoinHostPort(addr, port), nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	var (
		best     net.IP
		minIndex = int(^uint(0) >> 1)
	)
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Index >= minIndex {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, rawAddr := range addrs {
			var ip net.IP
			switch a := rawAddr.(type) {
			case *net.IPAddr:
				ip = a.IP
			case *net.IPNet:
				ip = a.IP
			default:
				continue
			}
			if !IsValidIP(ip.String()) {
				continue
			}
			if best == nil || iface.Index < minIndex || ip.To4() != nil {
				best = ip
				minIndex = iface.Index
			}
			if ip.To4() != nil {
				break
			}
		}
	}
	if best == nil {
		return "", nil
	}
	return net.JoinHostPort(best.String(), port), nil
}

// NewRegistryEndpoint creates the endpoint URL a server registers under.
func NewRegistryEndpoint(kind string, host string) *url.URL {
	return &url.URL{Scheme: kind, Host: host}
}
