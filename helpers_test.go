package bar123

import (
	"testing"

	"github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMultiaddr(t *testing.T, s string) multiaddr.Multiaddr {
	t.Helper()

	maddr, err := multiaddr.NewMultiaddr(s)
	require.NoError(t, err)

	return maddr
}

func TestParsePeerAddr(t *testing.T) {
	t.Run("valid p2p address", func(t *testing.T) {
		peerID := newTestPeerID(t)
		addr := "/ip4/192.168.1.10/tcp/4001/p2p/" + peerID.String()

		info, err := parsePeerAddr(addr)
		require.NoError(t, err)
		assert.Equal(t, peerID, info.ID)
		assert.Len(t, info.Addrs, 1)
	})

	t.Run("missing p2p component", func(t *testing.T) {
		_, err := parsePeerAddr("/ip4/192.168.1.10/tcp/4001")
		assert.Error(t, err)
	})

	t.Run("not a multiaddr", func(t *testing.T) {
		_, err := parsePeerAddr("192.168.1.10:4001")
		assert.Error(t, err)
	})
}

func TestExtractIPFromMultiaddr(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected string
	}{
		{name: "ipv4", addr: "/ip4/192.168.1.10/tcp/4001", expected: "192.168.1.10"},
		{name: "ipv6", addr: "/ip6/::1/tcp/4001", expected: "::1"},
		{name: "dns only", addr: "/dns4/example.com/tcp/4001", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractIPFromMultiaddr(mustMultiaddr(t, tt.addr)))
		})
	}
}

func TestGetIPFromMultiaddr(t *testing.T) {
	tests := []struct {
		name        string
		addr        string
		expected    string
		expectError bool
	}{
		{name: "ipv4", addr: "/ip4/8.8.8.8/tcp/4001", expected: "8.8.8.8"},
		{name: "ipv6", addr: "/ip6/2001:db8::1/tcp/4001", expected: "2001:db8::1"},
		{name: "dns4 preferred over nothing", addr: "/dns4/example.com/tcp/4001", expected: "example.com"},
		{name: "dns6", addr: "/dns6/example.com/tcp/4001", expected: "example.com"},
		{name: "no ip or dns", addr: "/unix/tmp/sock", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := getIPFromMultiaddr(mustMultiaddr(t, tt.addr))

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected bool
	}{
		{name: "class A private", addr: "/ip4/10.1.2.3/tcp/4001", expected: true},
		{name: "class B private", addr: "/ip4/172.16.0.1/tcp/4001", expected: true},
		{name: "class B private upper bound", addr: "/ip4/172.31.255.255/tcp/4001", expected: true},
		{name: "class C private", addr: "/ip4/192.168.1.10/tcp/4001", expected: true},
		{name: "loopback", addr: "/ip4/127.0.0.1/tcp/4001", expected: true},
		{name: "public", addr: "/ip4/8.8.8.8/tcp/4001", expected: false},
		{name: "just outside class B range", addr: "/ip4/172.32.0.1/tcp/4001", expected: false},
		{name: "ipv6 not classified", addr: "/ip6/::1/tcp/4001", expected: false},
		{name: "dns has no ip", addr: "/dns4/example.com/tcp/4001", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isPrivateIP(mustMultiaddr(t, tt.addr)))
		})
	}
}
