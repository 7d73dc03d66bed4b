package bar123

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeTopicOperations(t *testing.T) {
	ctx, cancel := createTestContext(60 * time.Second)
	defer cancel()

	node := startTestNode(ctx, t, "topic-test", "topic1", "topic2")

	t.Run("GetTopic existing", func(t *testing.T) {
		topic := node.GetTopic("topic1")
		assert.NotNil(t, topic)

		topic2 := node.GetTopic("topic2")
		assert.NotNil(t, topic2)
		assert.NotEqual(t, topic, topic2) // Different topics
	})

	t.Run("GetTopic non-existing", func(t *testing.T) {
		topic := node.GetTopic("non-existent")
		assert.Nil(t, topic)
	})

	t.Run("history sync topic always joined", func(t *testing.T) {
		assert.NotNil(t, node.GetTopic(HistorySyncTopic))
	})

	t.Run("SetTopicHandler", func(t *testing.T) {
		handler := func(_ context.Context, _ []byte, _ string) {}

		err := node.SetTopicHandler(ctx, "topic1", handler)
		assert.NoError(t, err)

		// Handler is stored
		node.topicsMu.RLock()
		_, ok := node.handlerByTopic["topic1"]
		node.topicsMu.RUnlock()
		assert.True(t, ok)
	})

	t.Run("SetTopicHandler duplicate", func(t *testing.T) {
		handler := func(_ context.Context, _ []byte, _ string) {}

		// First handler already set above
		err := node.SetTopicHandler(ctx, "topic1", handler)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "handler already exists")
	})

	t.Run("SetTopicHandler non-existent topic", func(t *testing.T) {
		handler := func(_ context.Context, _ []byte, _ string) {}

		err := node.SetTopicHandler(ctx, "non-existent", handler)
		assert.Error(t, err)
	})
}

func TestNodePublishing(t *testing.T) {
	ctx, cancel := createTestContext(60 * time.Second)
	defer cancel()

	node := startTestNode(ctx, t, "publish-test", "test-topic")

	t.Run("Publish to valid topic", func(t *testing.T) {
		beforeBytes := node.BytesSent()
		beforeTime := node.LastSend()

		msg := []byte("test message")
		err := node.Publish(ctx, "test-topic", msg)
		assert.NoError(t, err)

		// Check metrics updated
		assert.Equal(t, beforeBytes+uint64(len(msg)), node.BytesSent())
		assert.False(t, node.LastSend().Before(beforeTime))
	})

	t.Run("Publish to non-existent topic", func(t *testing.T) {
		err := node.Publish(ctx, "non-existent", []byte("message"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "topic not found")
	})

	t.Run("Publish empty message", func(t *testing.T) {
		err := node.Publish(ctx, "test-topic", []byte{})
		assert.NoError(t, err)
	})

	t.Run("Publish large message", func(t *testing.T) {
		largeMsg := make([]byte, 512*1024)
		for i := range largeMsg {
			largeMsg[i] = byte(i % 256)
		}

		beforeBytes := node.BytesSent()
		err := node.Publish(ctx, "test-topic", largeMsg)
		assert.NoError(t, err)
		assert.Equal(t, beforeBytes+uint64(len(largeMsg)), node.BytesSent())
	})
}

func TestNodeRoomMembership(t *testing.T) {
	ctx, cancel := createTestContext(60 * time.Second)
	defer cancel()

	node := startTestNode(ctx, t, "room-test")

	t.Run("no room initially", func(t *testing.T) {
		assert.Empty(t, node.CurrentRoom())
	})

	t.Run("send without room", func(t *testing.T) {
		err := node.SendMessage(ctx, []byte("message"))
		assert.ErrorIs(t, err, ErrNoRoom)
	})

	t.Run("join room", func(t *testing.T) {
		err := node.JoinRoom(ctx, "room-a")
		require.NoError(t, err)
		assert.Equal(t, "room-a", node.CurrentRoom())
	})

	t.Run("join same room is a no-op", func(t *testing.T) {
		err := node.JoinRoom(ctx, "room-a")
		require.NoError(t, err)
		assert.Equal(t, "room-a", node.CurrentRoom())
	})

	t.Run("empty room id is rejected", func(t *testing.T) {
		err := node.JoinRoom(ctx, "")
		assert.Error(t, err)
	})

	t.Run("send with room", func(t *testing.T) {
		beforeBytes := node.BytesSent()

		msg := []byte("room message")
		err := node.SendMessage(ctx, msg)
		assert.NoError(t, err)
		assert.Equal(t, beforeBytes+uint64(len(msg)), node.BytesSent())
	})

	t.Run("switching rooms leaves the previous one", func(t *testing.T) {
		err := node.JoinRoom(ctx, "room-b")
		require.NoError(t, err)
		assert.Equal(t, "room-b", node.CurrentRoom())
	})

	t.Run("leave room", func(t *testing.T) {
		err := node.LeaveRoom(ctx)
		require.NoError(t, err)
		assert.Empty(t, node.CurrentRoom())

		err = node.SendMessage(ctx, []byte("message"))
		assert.ErrorIs(t, err, ErrNoRoom)
	})

	t.Run("leave without room is a no-op", func(t *testing.T) {
		err := node.LeaveRoom(ctx)
		assert.NoError(t, err)
	})

	t.Run("rejoining a left room works", func(t *testing.T) {
		err := node.JoinRoom(ctx, "room-a")
		require.NoError(t, err)
		assert.Equal(t, "room-a", node.CurrentRoom())
	})
}

// connectNodes establishes a direct connection between two test nodes.
func connectNodes(ctx context.Context, t *testing.T, a, b *Node) {
	t.Helper()

	err := a.host.Connect(ctx, peer.AddrInfo{
		ID:    b.host.ID(),
		Addrs: b.host.Addrs(),
	})
	require.NoError(t, err)
}

func TestTwoNodeRoomExchange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network exchange test in short mode")
	}

	ctx, cancel := createTestContext(120 * time.Second)
	defer cancel()

	node1 := startTestNode(ctx, t, "exchange-node-1")
	node2 := startTestNode(ctx, t, "exchange-node-2")

	connectNodes(ctx, t, node1, node2)

	require.NoError(t, node1.JoinRoom(ctx, "shared-room"))
	require.NoError(t, node2.JoinRoom(ctx, "shared-room"))

	var mu sync.Mutex
	var received []Message

	node2.SetMessageHandler(func(_ context.Context, msg Message) {
		mu.Lock()
		defer mu.Unlock()

		// Handlers only borrow the payload
		received = append(received, Message{
			PeerID: msg.PeerID,
			Topic:  msg.Topic,
			Data:   append([]byte(nil), msg.Data...),
		})
	})

	// Give the gossipsub mesh time to form, then publish until delivery
	payload := []byte("hello from node1")
	require.Eventually(t, func() bool {
		_ = node1.SendMessage(ctx, payload)

		mu.Lock()
		defer mu.Unlock()
		return len(received) > 0
	}, 60*time.Second, 500*time.Millisecond, "node2 never received the room message")

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, node1.PeerID(), received[0].PeerID)
	assert.Equal(t, RoomTopicName("shared-room"), received[0].Topic)
	assert.Equal(t, payload, received[0].Data)
	assert.Positive(t, node2.BytesReceived())
}

func BenchmarkPublish(b *testing.B) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := &MockLogger{t: b}

	node, err := NewNode(ctx, logger, Config{
		ProcessName:     "bench-node",
		ListenAddresses: []string{testLocalhost},
		Port:            0,
	})
	if err != nil {
		b.Fatalf("failed to create node: %v", err)
	}

	defer func() { _ = node.Stop(ctx) }()

	if err = node.Start(ctx, nil, "bench-topic"); err != nil {
		b.Fatalf("failed to start node: %v", err)
	}

	msg := []byte(fmt.Sprintf("benchmark message %d", time.Now().UnixNano()))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err = node.Publish(ctx, "bench-topic", msg); err != nil {
			b.Fatalf("publish failed: %v", err)
		}
	}
}
