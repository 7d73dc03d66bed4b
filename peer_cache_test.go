package bar123

import (
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPeerID generates a random peer ID for cache tests.
func newTestPeerID(t *testing.T) peer.ID {
	t.Helper()

	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)

	id, err := peer.IDFromPrivateKey(priv)
	require.NoError(t, err)

	return id
}

func TestPeerCacheAddOrUpdate(t *testing.T) {
	cache := NewPeerCache()
	peerID := newTestPeerID(t)
	addrs := []string{"/ip4/192.168.1.10/tcp/4001"}

	t.Run("new peer", func(t *testing.T) {
		cache.AddOrUpdatePeer(peerID, addrs, "", true)

		p, ok := cache.Get(peerID)
		require.True(t, ok)
		assert.Equal(t, peerID.String(), p.ID)
		assert.Equal(t, addrs, p.Addresses)
		assert.Equal(t, 1, p.ConnectionCount)
		assert.Zero(t, p.FailureCount)
		assert.False(t, p.LastConnected.IsZero())
	})

	t.Run("failure increments failure count", func(t *testing.T) {
		cache.AddOrUpdatePeer(peerID, nil, "", false)

		p, ok := cache.Get(peerID)
		require.True(t, ok)
		assert.Equal(t, 1, p.FailureCount)
		// Empty address list does not wipe known addresses
		assert.Equal(t, addrs, p.Addresses)
	})

	t.Run("success resets failures", func(t *testing.T) {
		cache.AddOrUpdatePeer(peerID, addrs, "", true)

		p, ok := cache.Get(peerID)
		require.True(t, ok)
		assert.Equal(t, 2, p.ConnectionCount)
		assert.Zero(t, p.FailureCount)
	})

	t.Run("rooms accumulate without duplicates", func(t *testing.T) {
		cache.AddOrUpdatePeer(peerID, nil, "room-a", true)
		cache.AddOrUpdatePeer(peerID, nil, "room-b", true)
		cache.AddOrUpdatePeer(peerID, nil, "room-a", true)

		p, ok := cache.Get(peerID)
		require.True(t, ok)
		assert.Equal(t, []string{"room-a", "room-b"}, p.Rooms)
	})

	t.Run("remove peer", func(t *testing.T) {
		cache.RemovePeer(peerID)

		_, ok := cache.Get(peerID)
		assert.False(t, ok)
		assert.Zero(t, cache.Count())
	})
}

func TestPeerCacheGetBestPeers(t *testing.T) {
	cache := NewPeerCache()

	reliable := newTestPeerID(t)
	flaky := newTestPeerID(t)
	neverConnected := newTestPeerID(t)
	broken := newTestPeerID(t)

	for i := 0; i < 5; i++ {
		cache.AddOrUpdatePeer(reliable, []string{"/ip4/10.0.0.1/tcp/4001"}, "", true)
	}

	cache.AddOrUpdatePeer(flaky, []string{"/ip4/10.0.0.2/tcp/4001"}, "", true)
	cache.AddOrUpdatePeer(flaky, nil, "", false)
	cache.AddOrUpdatePeer(flaky, nil, "", false)

	cache.AddOrUpdatePeer(neverConnected, []string{"/ip4/10.0.0.3/tcp/4001"}, "", false)

	// Five failures pushes a peer over the eligibility threshold
	for i := 0; i < 5; i++ {
		cache.AddOrUpdatePeer(broken, []string{"/ip4/10.0.0.4/tcp/4001"}, "", false)
	}

	t.Run("ordering prefers connected then score", func(t *testing.T) {
		best := cache.GetBestPeers(10, DefaultCacheTTL)
		require.Len(t, best, 3) // broken peer filtered out

		assert.Equal(t, reliable.String(), best[0].ID)
		assert.Equal(t, flaky.String(), best[1].ID)
		assert.Equal(t, neverConnected.String(), best[2].ID)
	})

	t.Run("limit is honored", func(t *testing.T) {
		best := cache.GetBestPeers(1, DefaultCacheTTL)
		require.Len(t, best, 1)
		assert.Equal(t, reliable.String(), best[0].ID)
	})

	t.Run("expired peers are excluded", func(t *testing.T) {
		best := cache.GetBestPeers(10, time.Nanosecond)
		assert.Empty(t, best)
	})
}

func TestPeerCacheGetRoomPeers(t *testing.T) {
	cache := NewPeerCache()

	inRoom := newTestPeerID(t)
	otherRoom := newTestPeerID(t)

	cache.AddOrUpdatePeer(inRoom, []string{"/ip4/10.0.0.1/tcp/4001"}, "room-a", true)
	cache.AddOrUpdatePeer(otherRoom, []string{"/ip4/10.0.0.2/tcp/4001"}, "room-b", true)

	roomPeers := cache.GetRoomPeers("room-a", 10, DefaultCacheTTL)
	require.Len(t, roomPeers, 1)
	assert.Equal(t, inRoom.String(), roomPeers[0].ID)

	assert.Empty(t, cache.GetRoomPeers("room-c", 10, DefaultCacheTTL))
}

func TestPeerCachePrune(t *testing.T) {
	t.Run("removes unreliable peers", func(t *testing.T) {
		cache := NewPeerCache()
		bad := newTestPeerID(t)
		good := newTestPeerID(t)

		for i := 0; i < 10; i++ {
			cache.AddOrUpdatePeer(bad, nil, "", false)
		}

		cache.AddOrUpdatePeer(good, []string{"/ip4/10.0.0.1/tcp/4001"}, "", true)

		cache.Prune(100, DefaultCacheTTL)

		_, ok := cache.Get(bad)
		assert.False(t, ok)

		_, ok = cache.Get(good)
		assert.True(t, ok)
	})

	t.Run("enforces max peers keeping the best", func(t *testing.T) {
		cache := NewPeerCache()

		best := newTestPeerID(t)
		for i := 0; i < 5; i++ {
			cache.AddOrUpdatePeer(best, []string{"/ip4/10.0.0.1/tcp/4001"}, "", true)
		}

		for i := 0; i < 5; i++ {
			cache.AddOrUpdatePeer(newTestPeerID(t), []string{"/ip4/10.0.0.2/tcp/4001"}, "", false)
		}

		cache.Prune(3, DefaultCacheTTL)

		assert.Equal(t, 3, cache.Count())

		_, ok := cache.Get(best)
		assert.True(t, ok)
	})
}

func TestPeerCacheSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peers.json")

	peerID := newTestPeerID(t)

	cache := NewPeerCache()
	cache.AddOrUpdatePeer(peerID, []string{"/ip4/192.168.1.10/tcp/4001"}, "room-a", true)

	require.NoError(t, cache.Save(path))

	t.Run("roundtrip", func(t *testing.T) {
		loaded, err := LoadPeerCache(path)
		require.NoError(t, err)
		require.Equal(t, 1, loaded.Count())

		p, ok := loaded.Get(peerID)
		require.True(t, ok)
		assert.Equal(t, []string{"/ip4/192.168.1.10/tcp/4001"}, p.Addresses)
		assert.Equal(t, []string{"room-a"}, p.Rooms)
		assert.Equal(t, 1, p.ConnectionCount)
	})

	t.Run("missing file yields empty cache", func(t *testing.T) {
		loaded, err := LoadPeerCache(filepath.Join(dir, "missing.json"))
		require.NoError(t, err)
		assert.Zero(t, loaded.Count())
	})

	t.Run("save creates parent directories", func(t *testing.T) {
		nested := filepath.Join(dir, "nested", "deeper", "peers.json")
		require.NoError(t, cache.Save(nested))

		loaded, err := LoadPeerCache(nested)
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Count())
	})
}

func TestCachedPeerAddrInfo(t *testing.T) {
	peerID := newTestPeerID(t)

	t.Run("valid record", func(t *testing.T) {
		cp := CachedPeer{
			ID:        peerID.String(),
			Addresses: []string{"/ip4/192.168.1.10/tcp/4001", "not-a-multiaddr"},
		}

		info, err := cp.AddrInfo()
		require.NoError(t, err)
		assert.Equal(t, peerID, info.ID)
		// Invalid addresses are skipped
		assert.Len(t, info.Addrs, 1)
	})

	t.Run("invalid peer id", func(t *testing.T) {
		cp := CachedPeer{ID: "garbage", Addresses: []string{"/ip4/192.168.1.10/tcp/4001"}}

		_, err := cp.AddrInfo()
		assert.Error(t, err)
	})

	t.Run("no valid addresses", func(t *testing.T) {
		cp := CachedPeer{ID: peerID.String(), Addresses: []string{"bogus"}}

		_, err := cp.AddrInfo()
		assert.Error(t, err)
	})
}
