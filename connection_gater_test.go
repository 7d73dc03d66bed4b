package bar123

import (
	"testing"
	"time"

	"github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionGaterPeerBlocking(t *testing.T) {
	gater := NewConnectionGater(createTestLogger(t), 0)
	peerID := newTestPeerID(t)

	t.Run("unblocked peer is allowed", func(t *testing.T) {
		assert.True(t, gater.InterceptPeerDial(peerID))
	})

	t.Run("blocked peer is rejected", func(t *testing.T) {
		gater.BlockPeer(peerID, time.Hour)

		assert.False(t, gater.InterceptPeerDial(peerID))
		assert.False(t, gater.InterceptAddrDial(peerID, nil))
		assert.False(t, gater.InterceptSecured(0, peerID, nil))
	})

	t.Run("unblock restores access", func(t *testing.T) {
		gater.UnblockPeer(peerID)

		assert.True(t, gater.InterceptPeerDial(peerID))
	})

	t.Run("block expires", func(t *testing.T) {
		gater.BlockPeer(peerID, 10*time.Millisecond)
		assert.False(t, gater.InterceptPeerDial(peerID))

		time.Sleep(20 * time.Millisecond)
		assert.True(t, gater.InterceptPeerDial(peerID))
	})
}

func TestConnectionGaterSubnetBlocking(t *testing.T) {
	gater := NewConnectionGater(createTestLogger(t), 0)
	peerID := newTestPeerID(t)

	blockedAddr, err := multiaddr.NewMultiaddr("/ip4/10.1.2.3/tcp/4001")
	require.NoError(t, err)

	allowedAddr, err := multiaddr.NewMultiaddr("/ip4/192.168.1.10/tcp/4001")
	require.NoError(t, err)

	t.Run("invalid cidr is rejected", func(t *testing.T) {
		assert.Error(t, gater.BlockSubnet("not-a-cidr"))
	})

	t.Run("nothing blocked by default", func(t *testing.T) {
		assert.True(t, gater.InterceptAddrDial(peerID, blockedAddr))
	})

	t.Run("addresses in blocked subnet are rejected", func(t *testing.T) {
		require.NoError(t, gater.BlockSubnet("10.0.0.0/8"))

		assert.False(t, gater.InterceptAddrDial(peerID, blockedAddr))
		assert.True(t, gater.InterceptAddrDial(peerID, allowedAddr))
	})

	t.Run("multiple subnets", func(t *testing.T) {
		require.NoError(t, gater.BlockSubnet("192.168.0.0/16"))

		assert.False(t, gater.InterceptAddrDial(peerID, allowedAddr))
	})
}

func TestConnectionGaterMaxConnsPerPeer(t *testing.T) {
	gater := NewConnectionGater(createTestLogger(t), 2)
	peerID := newTestPeerID(t)

	assert.True(t, gater.InterceptSecured(0, peerID, nil))
	assert.True(t, gater.InterceptSecured(0, peerID, nil))

	// Third connection exceeds the cap
	assert.False(t, gater.InterceptSecured(0, peerID, nil))

	// Other peers are unaffected
	assert.True(t, gater.InterceptSecured(0, newTestPeerID(t), nil))
}

func TestConnectionGaterInterceptUpgraded(t *testing.T) {
	gater := NewConnectionGater(createTestLogger(t), 0)

	allow, reason := gater.InterceptUpgraded(nil)
	assert.True(t, allow)
	assert.Zero(t, reason)
}
