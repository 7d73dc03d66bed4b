package bar123

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
)

const (
	errorCreatingDhtMessage = "[Node] error creating DHT: %w"
	multiAddrIPTemplate     = "/ip4/%s/tcp/%d"

	// RoomTopicPrefix is prepended to a room identifier to form its pubsub topic name.
	RoomTopicPrefix = "bar123-room-"
	// HistorySyncTopic is the always-joined topic used for history synchronization
	// between devices that have not joined a common room.
	HistorySyncTopic = "bar123-history-sync"
	// ProtocolID identifies direct peer-to-peer streams between bar123 nodes.
	ProtocolID = "/bar123/1.0.0"

	// SyncMessageType is the message_type value carried by history sync payloads.
	SyncMessageType = "history_sync"
)

// Sentinel errors returned by node operations called in the wrong lifecycle
// state. Callers branch on these with errors.Is.
var (
	// ErrNotStarted is returned when a room or publish operation is attempted
	// before Start has completed.
	ErrNotStarted = errors.New("node not started")
	// ErrStopped is returned when any operation is attempted after Stop.
	ErrStopped = errors.New("node stopped")
	// ErrNoRoom is returned by SendMessage and SendHistorySync when the node
	// has not joined a room.
	ErrNoRoom = errors.New("not connected to a room")
)

// Node provides the core peer-to-peer functionality for bar123 history
// synchronization using libp2p. It manages peer connections, room
// subscriptions, message routing, history sync distribution, and network
// discovery.
//
// The Node encapsulates several critical components:
// - libp2p host for network transport and connection management
// - GossipSub for room-based message distribution
// - History store for deduplicating received sync entries
// - Peer cache for reconnecting to known peers across restarts
//
// Thread safety is maintained for all concurrent operations across multiple goroutines.
type Node struct {
	config         Config                   // Configuration parameters for the node
	host           host.Host                // libp2p host for network communication
	pubSub         *pubsub.PubSub           // Publish-subscribe system for topic-based messaging
	topics         map[string]*pubsub.Topic // Map of topic names to topic objects
	topicsMu       sync.RWMutex             // Guards topics and handlerByTopic
	logger         Logger                   // Logger for node operations
	handlerByTopic map[string]Handler       // Map of topic handlers for message processing
	startTime      time.Time                // Time when the node was created
	deviceID       string                   // Identifier for this device in history sync payloads
	history        *HistoryStore            // Deduplicating store of received history entries
	peerCache      *PeerCache               // Peer cache for persistence across restarts
	gater          *ConnectionGater         // Optional connection gater
	mdns           mdnsService              // Optional mDNS discovery service

	// Room state. A node is a member of at most one room at a time.
	roomMu     sync.Mutex
	roomID     string
	roomTopic  *pubsub.Topic
	roomSub    *pubsub.Subscription
	roomCancel context.CancelFunc

	// Registered handlers. Setting a handler replaces any previous registration.
	callbackMutex  sync.RWMutex
	messageHandler MessageHandler
	peerHandler    PeerHandler
	syncHandler    SyncHandler

	started atomic.Bool
	stopped atomic.Bool

	// IMPORTANT: The following variables must only be used atomically.
	bytesReceived uint64   // Counter for bytes received over the network
	bytesSent     uint64   // Counter for bytes sent over the network
	lastRecv      int64    // Timestamp of last message received
	lastSend      int64    // Timestamp of last message sent
	peerConnTimes sync.Map // Thread-safe map tracking peer connection times (peer.ID -> time.Time)
}

// mdnsService is the subset of the libp2p mDNS service the node holds on to.
type mdnsService interface {
	Close() error
}

// Message is the view of a received room message passed to a MessageHandler.
// Data is only valid for the duration of the handler invocation; handlers
// that retain the payload must copy it.
type Message struct {
	PeerID string // Peer that published the message
	Topic  string // Topic the message arrived on
	Data   []byte // Raw message payload, borrowed for the callback duration
}

// Handler defines the function signature for topic message handlers.
// Each topic can have a dedicated handler that processes incoming messages.
//
// Parameters:
//   - ctx: Context for the handler execution, allowing for cancellation and timeouts
//   - msg: Raw message bytes received from the network
//   - from: Identifier of the peer that sent the message
//
// Handlers should process messages efficiently as they may be called frequently
// in high-traffic scenarios. Any long-running operations should be delegated to separate goroutines.
type Handler func(ctx context.Context, msg []byte, from string)

// MessageHandler receives room messages that are not history sync payloads.
type MessageHandler func(ctx context.Context, msg Message)

// PeerHandler is invoked when a peer connects (connected=true) or
// disconnects (connected=false).
type PeerHandler func(peerID string, connected bool)

// SyncHandler receives decoded history sync messages.
type SyncHandler func(ctx context.Context, msg SyncMessage, from string)

// Config defines the configuration parameters for a bar123 node.
// It encapsulates all settings needed to establish and maintain
// a functional peer-to-peer network presence.
type Config struct {
	ProcessName        string   // Identifier for this node in logs and mDNS service tags
	DeviceID           string   // Device identifier for history sync payloads (generated if empty)
	BootstrapAddresses []string // Initial peer addresses to connect to for network discovery
	ListenAddresses    []string // Network addresses to listen on for incoming connections
	AdvertiseAddresses []string // Addresses to advertise to other peers (may differ from listen addresses)
	Port               int      // Port number for P2P communication
	DHTProtocolID      string   // Protocol ID for the DHT used by this node
	PrivateKey         string   // Hex-encoded ed25519 private key for the node identity
	SharedKey          string   // Shared key for private network communication
	UsePrivateDHT      bool     // Whether to use a private DHT instead of the public IPFS DHT
	OptimiseRetries    bool     // Whether to optimize connection retry behavior
	Advertise          bool     // Whether to advertise joined topics on the DHT
	EnableMDNS         bool     // Whether to discover peers on the local network via mDNS
	StaticPeers        []string // List of peer addresses to always attempt to connect to
	EnableNATService   bool     // Whether to enable NAT service for peer connectivity
	EnableHolePunching bool     // Whether to enable NAT hole punching
	EnableRelay        bool     // Whether to enable relay functionality
	EnableNATPortMap   bool     // Whether to enable NAT port mapping
	EnableAutoNATv2    bool     // Whether to enable AutoNAT v2 for better address discovery
	ForceReachability  string   // Force reachability: "public", "private", or "" (auto-detect)
	EnableRelayService bool     // Whether to act as a relay for other nodes (requires EnableRelay)
	// Peer persistence configuration
	EnablePeerCache bool          // Whether to enable peer caching for persistence across restarts
	PeerCacheFile   string        // Path to the peer cache file (default: "~/.bar123/peers.json")
	MaxCachedPeers  int           // Maximum number of peers to cache (default: 100)
	PeerCacheTTL    time.Duration // How long to keep cached peers (default: 30 days)
	// Connection management configuration
	EnableConnManager bool          // Whether to enable connection manager with high/low water marks
	ConnLowWater      int           // Minimum number of connections to maintain (default: 200)
	ConnHighWater     int           // Maximum number of connections before pruning (default: 400)
	ConnGracePeriod   time.Duration // Grace period before pruning new connections (default: 60s)
	EnableConnGater   bool          // Whether to enable connection gater for fine-grained control
	MaxConnsPerPeer   int           // Maximum connections allowed per peer (default: 3)
}

// Logger defines the interface for logging within the node.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// RoomTopicName returns the pubsub topic name for a room identifier.
func RoomTopicName(roomID string) string {
	return RoomTopicPrefix + roomID
}
