package bar123

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

const (
	// PeerCacheVersion defines the version of the peer cache format
	PeerCacheVersion = 1
	// DefaultCacheTTL defines the default time-to-live for cached peers
	DefaultCacheTTL = 30 * 24 * time.Hour // 30 days
	// DefaultMaxCachedPeers defines the default maximum number of peers to cache
	DefaultMaxCachedPeers = 100

	defaultPeerCacheFile = "~/.bar123/peers.json"
)

// CachedPeer represents a peer saved to disk for persistence across restarts.
// Rooms records which rooms this node shared with the peer, so reconnects can
// prioritize peers from the room being rejoined.
type CachedPeer struct {
	ID              string    `json:"id"`
	Addresses       []string  `json:"addresses"`
	Rooms           []string  `json:"rooms,omitempty"`
	LastSeen        time.Time `json:"last_seen"`
	LastConnected   time.Time `json:"last_connected"`
	ConnectionCount int       `json:"connection_count"`
	FailureCount    int       `json:"failure_count"`
}

// AddrInfo converts the cached peer record back into a dialable AddrInfo.
func (cp *CachedPeer) AddrInfo() (*peer.AddrInfo, error) {
	id, err := peer.Decode(cp.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid cached peer id: %w", err)
	}

	addrs := make([]multiaddr.Multiaddr, 0, len(cp.Addresses))

	for _, a := range cp.Addresses {
		maddr, err := multiaddr.NewMultiaddr(a)
		if err != nil {
			continue
		}

		addrs = append(addrs, maddr)
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("cached peer %s has no valid addresses", cp.ID)
	}

	return &peer.AddrInfo{ID: id, Addrs: addrs}, nil
}

// score rates a peer for reconnection ordering. Successfully connected peers
// beat never-connected ones, then the success ratio, then recency.
func (cp *CachedPeer) score() float64 {
	return float64(cp.ConnectionCount) / float64(cp.ConnectionCount+cp.FailureCount+1)
}

// PeerCache manages persistent peer storage to improve network connectivity
// across restarts by remembering successful peer connections.
type PeerCache struct {
	mu      sync.RWMutex
	peers   map[string]*CachedPeer
	version int
}

// peerCacheFile is the on-disk representation of the cache.
type peerCacheFile struct {
	Peers   []CachedPeer `json:"peers"`
	Version int          `json:"version"`
}

// NewPeerCache creates a new peer cache instance
func NewPeerCache() *PeerCache {
	return &PeerCache{
		peers:   make(map[string]*CachedPeer),
		version: PeerCacheVersion,
	}
}

// expandHome expands a leading "~/" to the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, path[2:]), nil
}

// LoadPeerCache loads peer cache from disk. A missing file yields an empty
// cache, as does a version mismatch.
func LoadPeerCache(path string) (*PeerCache, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	if _, err = os.Stat(path); os.IsNotExist(err) {
		return NewPeerCache(), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read peer cache: %w", err)
	}

	var file peerCacheFile
	if err = json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse peer cache: %w", err)
	}

	if file.Version != PeerCacheVersion {
		return NewPeerCache(), nil
	}

	cache := NewPeerCache()
	for i := range file.Peers {
		p := file.Peers[i]
		cache.peers[p.ID] = &p
	}

	return cache, nil
}

// Save writes the peer cache to disk atomically.
func (pc *PeerCache) Save(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	pc.mu.RLock()
	file := peerCacheFile{Version: pc.version, Peers: make([]CachedPeer, 0, len(pc.peers))}
	for _, p := range pc.peers {
		file.Peers = append(file.Peers, *p)
	}
	pc.mu.RUnlock()

	// Stable output ordering keeps the file diffable.
	sort.Slice(file.Peers, func(i, j int) bool { return file.Peers[i].ID < file.Peers[j].ID })

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal peer cache: %w", err)
	}

	// Write to temp file first (atomic write)
	tmpFile := path + ".tmp"
	if err = os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write peer cache: %w", err)
	}

	if err = os.Rename(tmpFile, path); err != nil {
		return fmt.Errorf("failed to rename peer cache: %w", err)
	}

	return nil
}

// AddOrUpdatePeer records a connection attempt to a peer. room, when
// non-empty, is remembered as a room shared with the peer.
func (pc *PeerCache) AddOrUpdatePeer(peerID peer.ID, addresses []string, room string, connected bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	id := peerID.String()
	now := time.Now()

	p, ok := pc.peers[id]
	if !ok {
		p = &CachedPeer{ID: id}
		pc.peers[id] = p
	}

	p.LastSeen = now

	// Only update addresses if we have new ones
	if len(addresses) > 0 {
		p.Addresses = addresses
	}

	if room != "" && !containsString(p.Rooms, room) {
		p.Rooms = append(p.Rooms, room)
	}

	if connected {
		p.LastConnected = now
		p.ConnectionCount++
		p.FailureCount = 0 // Reset failures on success
	} else {
		p.FailureCount++
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

// GetBestPeers returns the best peers sorted by reliability and recency.
func (pc *PeerCache) GetBestPeers(limit int, ttl time.Duration) []CachedPeer {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	// Filter out old peers
	cutoff := time.Now().Add(-ttl)
	validPeers := make([]CachedPeer, 0, len(pc.peers))

	for _, p := range pc.peers {
		if p.LastSeen.After(cutoff) && p.FailureCount < 5 {
			validPeers = append(validPeers, *p)
		}
	}

	sort.Slice(validPeers, func(i, j int) bool {
		// First, prioritize peers we've successfully connected to
		if validPeers[i].ConnectionCount > 0 && validPeers[j].ConnectionCount == 0 {
			return true
		}
		if validPeers[i].ConnectionCount == 0 && validPeers[j].ConnectionCount > 0 {
			return false
		}

		// Then sort by success ratio
		if validPeers[i].score() != validPeers[j].score() {
			return validPeers[i].score() > validPeers[j].score()
		}

		// Finally, sort by last connected time
		return validPeers[i].LastConnected.After(validPeers[j].LastConnected)
	})

	if limit > len(validPeers) {
		limit = len(validPeers)
	}

	return validPeers[:limit]
}

// GetRoomPeers returns the cached peers that shared the given room, best
// first.
func (pc *PeerCache) GetRoomPeers(room string, limit int, ttl time.Duration) []CachedPeer {
	best := pc.GetBestPeers(pc.Count(), ttl)

	roomPeers := make([]CachedPeer, 0, len(best))

	for _, p := range best {
		if containsString(p.Rooms, room) {
			roomPeers = append(roomPeers, p)
		}
	}

	if limit > len(roomPeers) {
		limit = len(roomPeers)
	}

	return roomPeers[:limit]
}

// Prune removes old or unreliable peers, keeping at most maxPeers.
func (pc *PeerCache) Prune(maxPeers int, ttl time.Duration) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	cutoff := time.Now().Add(-ttl)

	for id, p := range pc.peers {
		if !p.LastSeen.After(cutoff) || p.FailureCount >= 10 {
			delete(pc.peers, id)
		}
	}

	// If still over limit, keep only the best peers
	if len(pc.peers) > maxPeers {
		kept := make([]*CachedPeer, 0, len(pc.peers))
		for _, p := range pc.peers {
			kept = append(kept, p)
		}

		sort.Slice(kept, func(i, j int) bool {
			if kept[i].score() != kept[j].score() {
				return kept[i].score() > kept[j].score()
			}
			return kept[i].LastConnected.After(kept[j].LastConnected)
		})

		for _, p := range kept[maxPeers:] {
			delete(pc.peers, p.ID)
		}
	}
}

// Count returns the number of cached peers
func (pc *PeerCache) Count() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.peers)
}

// Get returns the cached record for a peer, if present.
func (pc *PeerCache) Get(peerID peer.ID) (CachedPeer, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	p, ok := pc.peers[peerID.String()]
	if !ok {
		return CachedPeer{}, false
	}

	return *p, true
}

// RemovePeer removes a specific peer from the cache
func (pc *PeerCache) RemovePeer(peerID peer.ID) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	delete(pc.peers, peerID.String())
}

// savePeerCache prunes and persists the peer cache using the configured
// limits.
func (s *Node) savePeerCache() {
	maxPeers := s.config.MaxCachedPeers
	if maxPeers == 0 {
		maxPeers = DefaultMaxCachedPeers
	}

	ttl := s.config.PeerCacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}

	s.peerCache.Prune(maxPeers, ttl)

	cacheFile := s.config.PeerCacheFile
	if cacheFile == "" {
		cacheFile = defaultPeerCacheFile
	}

	if err := s.peerCache.Save(cacheFile); err != nil {
		s.logger.Warnf("[Node] error saving peer cache: %v", err)
	} else {
		s.logger.Infof("[Node] peer cache saved with %d peers", s.peerCache.Count())
	}
}
