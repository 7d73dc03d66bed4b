package bar123

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// GetPublicIP fetches the public IP address from ifconfig.me
func GetPublicIP(ctx context.Context) (string, error) {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			// Force the use of IPv4 by specifying 'tcp4' as the network
			return (&net.Dialer{}).DialContext(ctx, "tcp4", addr)
		},
		TLSHandshakeTimeout: 10 * time.Second,
	}
	client := &http.Client{
		Transport: transport,
	}
	req, err := http.NewRequestWithContext(ctx, "GET", "https://ifconfig.me/ip", nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), resp.Body.Close()
}

// parsePeerAddr parses a full p2p multiaddress into an AddrInfo.
func parsePeerAddr(addr string) (*peer.AddrInfo, error) {
	maddr, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return nil, err
	}

	return peer.AddrInfoFromP2pAddr(maddr)
}

func extractIPFromMultiaddr(multiaddr multiaddr.Multiaddr) string {
	str := multiaddr.String()

	parts := strings.Split(str, "/")
	for i, part := range parts {
		if part == "ip4" || part == "ip6" {
			if i+1 < len(parts) {
				return parts[i+1]
			}
		}
	}

	return ""
}

// getIPFromMultiaddr returns the DNS name or IP component of a multiaddr.
func getIPFromMultiaddr(addr multiaddr.Multiaddr) (string, error) {
	// First try to get DNS component
	if value, err := addr.ValueForProtocol(multiaddr.P_DNS4); err == nil {
		return value, nil
	}

	if value, err := addr.ValueForProtocol(multiaddr.P_DNS6); err == nil {
		return value, nil
	}

	// If no DNS, try IP
	if value, err := addr.ValueForProtocol(multiaddr.P_IP4); err == nil {
		return value, nil
	}

	if value, err := addr.ValueForProtocol(multiaddr.P_IP6); err == nil {
		return value, nil
	}

	return "", fmt.Errorf("no IP or DNS component found in multiaddr")
}

// isPrivateIP checks if an IP address is private according to RFC 1918 and RFC 3927
func isPrivateIP(addr multiaddr.Multiaddr) bool {
	ipStr := extractIPFromMultiaddr(addr)
	if ipStr == "" {
		return false
	}

	ip := net.ParseIP(ipStr)
	if ip == nil || ip.To4() == nil {
		return false
	}

	// Private IPv4 ranges according to RFC 1918 and RFC 3927
	privateRanges := []*net.IPNet{
		{IP: net.ParseIP("10.0.0.0"), Mask: net.CIDRMask(8, 32)},     // RFC 1918: Class A private network
		{IP: net.ParseIP("172.16.0.0"), Mask: net.CIDRMask(12, 32)},  // RFC 1918: Class B private network
		{IP: net.ParseIP("192.168.0.0"), Mask: net.CIDRMask(16, 32)}, // RFC 1918: Class C private network
		{IP: net.ParseIP("127.0.0.0"), Mask: net.CIDRMask(8, 32)},    // RFC 3927: Loopback addresses
	}

	// Check if the IP falls into any of the private ranges
	for _, r := range privateRanges {
		if r.Contains(ip) {
			return true
		}
	}

	return false
}
