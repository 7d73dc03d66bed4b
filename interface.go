package bar123

import (
	"context"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
)

// NodeI defines the interface for bar123 node functionality.
// This interface abstracts the concrete implementation to allow for better testability.
// It provides methods for managing core peer-to-peer networking operations, including
// node lifecycle management, room membership, history synchronization, peer
// discovery, and message propagation.
//
// The interface is designed to be robust for both standard network operation and
// specialized testing scenarios. It encapsulates all libp2p functionality behind
// a clean API that integrates with bar123 applications.
type NodeI interface {
	// Core lifecycle methods
	Start(ctx context.Context, streamHandler func(network.Stream), topicNames ...string) error
	Stop(ctx context.Context) error

	// Room methods
	JoinRoom(ctx context.Context, roomID string) error
	LeaveRoom(ctx context.Context) error
	CurrentRoom() string
	SendMessage(ctx context.Context, data []byte) error

	// History sync methods
	SendHistorySync(ctx context.Context, entries []HistoryEntry, deviceID string) error
	SendHistorySyncJSON(ctx context.Context, entriesJSON []byte, deviceID string) error
	History() *HistoryStore
	DeviceID() string

	// Topic-related methods
	SetTopicHandler(ctx context.Context, topicName string, handler Handler) error
	GetTopic(topicName string) *pubsub.Topic
	Publish(ctx context.Context, topicName string, msgBytes []byte) error

	// Handler registration. Each setter replaces any previous registration.
	SetMessageHandler(handler MessageHandler)
	SetPeerHandler(handler PeerHandler)
	SetSyncHandler(handler SyncHandler)

	// Peer management methods
	HostID() peer.ID
	PeerID() string
	ConnectedPeers() []PeerInfo
	CurrentlyConnectedPeers() []PeerInfo
	DisconnectPeer(ctx context.Context, peerID peer.ID) error
	SendToPeer(ctx context.Context, pid peer.ID, msg []byte) error
	GetPeerIPs(peerID peer.ID) []string

	// Stats methods
	LastSend() time.Time
	LastRecv() time.Time
	BytesSent() uint64
	BytesReceived() uint64

	// Additional accessors
	GetProcessName() string
	UpdateBytesReceived(bytesCount uint64)
	UpdateLastReceived()
}

// Ensure Node implements the interface
var _ NodeI = (*Node)(nil)
