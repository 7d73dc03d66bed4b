// Package mocks provides mock implementations for bar123 node interfaces used in testing.
package mocks

import (
	"context"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/mock"

	bar123 "github.com/posix4e/bar123"
)

// MockNode is a mock implementation of the NodeI interface
type MockNode struct {
	mock.Mock
}

// Start mocks the Start method
func (m *MockNode) Start(ctx context.Context, streamHandler func(network.Stream), topicNames ...string) error {
	args := m.Called(ctx, streamHandler, topicNames)
	return args.Error(0)
}

// Stop mocks the Stop method
func (m *MockNode) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// JoinRoom mocks the JoinRoom method
func (m *MockNode) JoinRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// LeaveRoom mocks the LeaveRoom method
func (m *MockNode) LeaveRoom(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// CurrentRoom mocks the CurrentRoom method
func (m *MockNode) CurrentRoom() string {
	args := m.Called()
	return args.String(0)
}

// SendMessage mocks the SendMessage method
func (m *MockNode) SendMessage(ctx context.Context, data []byte) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

// SendHistorySync mocks the SendHistorySync method
func (m *MockNode) SendHistorySync(ctx context.Context, entries []bar123.HistoryEntry, deviceID string) error {
	args := m.Called(ctx, entries, deviceID)
	return args.Error(0)
}

// SendHistorySyncJSON mocks the SendHistorySyncJSON method
func (m *MockNode) SendHistorySyncJSON(ctx context.Context, entriesJSON []byte, deviceID string) error {
	args := m.Called(ctx, entriesJSON, deviceID)
	return args.Error(0)
}

// History mocks the History method
func (m *MockNode) History() *bar123.HistoryStore {
	args := m.Called()
	if store := args.Get(0); store != nil {
		return store.(*bar123.HistoryStore)
	}
	return nil
}

// DeviceID mocks the DeviceID method
func (m *MockNode) DeviceID() string {
	args := m.Called()
	return args.String(0)
}

// SetTopicHandler mocks the SetTopicHandler method
func (m *MockNode) SetTopicHandler(ctx context.Context, topicName string, handler bar123.Handler) error {
	args := m.Called(ctx, topicName, handler)
	return args.Error(0)
}

// GetTopic mocks the GetTopic method
func (m *MockNode) GetTopic(topicName string) *pubsub.Topic {
	args := m.Called(topicName)
	if topic := args.Get(0); topic != nil {
		return topic.(*pubsub.Topic)
	}
	return nil
}

// Publish mocks the Publish method
func (m *MockNode) Publish(ctx context.Context, topicName string, msgBytes []byte) error {
	args := m.Called(ctx, topicName, msgBytes)
	return args.Error(0)
}

// SetMessageHandler mocks the SetMessageHandler method
func (m *MockNode) SetMessageHandler(handler bar123.MessageHandler) {
	m.Called(handler)
}

// SetPeerHandler mocks the SetPeerHandler method
func (m *MockNode) SetPeerHandler(handler bar123.PeerHandler) {
	m.Called(handler)
}

// SetSyncHandler mocks the SetSyncHandler method
func (m *MockNode) SetSyncHandler(handler bar123.SyncHandler) {
	m.Called(handler)
}

// HostID mocks the HostID method
func (m *MockNode) HostID() peer.ID {
	args := m.Called()
	return args.Get(0).(peer.ID)
}

// PeerID mocks the PeerID method
func (m *MockNode) PeerID() string {
	args := m.Called()
	return args.String(0)
}

// ConnectedPeers mocks the ConnectedPeers method
func (m *MockNode) ConnectedPeers() []bar123.PeerInfo {
	args := m.Called()
	if peers := args.Get(0); peers != nil {
		return peers.([]bar123.PeerInfo)
	}
	return nil
}

// CurrentlyConnectedPeers mocks the CurrentlyConnectedPeers method
func (m *MockNode) CurrentlyConnectedPeers() []bar123.PeerInfo {
	args := m.Called()
	if peers := args.Get(0); peers != nil {
		return peers.([]bar123.PeerInfo)
	}
	return nil
}

// DisconnectPeer mocks the DisconnectPeer method
func (m *MockNode) DisconnectPeer(ctx context.Context, peerID peer.ID) error {
	args := m.Called(ctx, peerID)
	return args.Error(0)
}

// SendToPeer mocks the SendToPeer method
func (m *MockNode) SendToPeer(ctx context.Context, pid peer.ID, msg []byte) error {
	args := m.Called(ctx, pid, msg)
	return args.Error(0)
}

// GetPeerIPs mocks the GetPeerIPs method
func (m *MockNode) GetPeerIPs(peerID peer.ID) []string {
	args := m.Called(peerID)
	if ips := args.Get(0); ips != nil {
		return ips.([]string)
	}
	return nil
}

// LastSend mocks the LastSend method
func (m *MockNode) LastSend() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}

// LastRecv mocks the LastRecv method
func (m *MockNode) LastRecv() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}

// BytesSent mocks the BytesSent method
func (m *MockNode) BytesSent() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

// BytesReceived mocks the BytesReceived method
func (m *MockNode) BytesReceived() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

// GetProcessName mocks the GetProcessName method
func (m *MockNode) GetProcessName() string {
	args := m.Called()
	return args.String(0)
}

// UpdateBytesReceived mocks the UpdateBytesReceived method
func (m *MockNode) UpdateBytesReceived(bytesCount uint64) {
	m.Called(bytesCount)
}

// UpdateLastReceived mocks the UpdateLastReceived method
func (m *MockNode) UpdateLastReceived() {
	m.Called()
}

// Ensure MockNode implements the interface
var _ bar123.NodeI = (*MockNode)(nil)
