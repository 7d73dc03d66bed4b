package bar123

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
)

func (s *Node) initGossipSub(ctx context.Context, topicNames []string) error {
	ps, err := pubsub.NewGossipSub(ctx, s.host,
		pubsub.WithMessageSignaturePolicy(pubsub.StrictSign)) // Ensure messages are signed and verified
	if err != nil {
		return err
	}

	topics, err := subscribeToTopics(topicNames, ps, s)
	if err != nil {
		return err
	}

	s.topicsMu.Lock()
	s.pubSub = ps
	s.topics = topics
	s.topicsMu.Unlock()

	return nil
}

// subscribeToTopics joins the node to multiple pubsub topics for message distribution.
// This function iterates through the provided topic names and joins each one using the
// libp2p pubsub system. It creates a mapping of topic names to topic objects that can
// be used for publishing and subscribing to messages.
func subscribeToTopics(topicNames []string, ps *pubsub.PubSub, s *Node) (map[string]*pubsub.Topic, error) {
	topics := map[string]*pubsub.Topic{}

	for _, topicName := range topicNames {
		topic, err := ps.Join(topicName)
		if err != nil {
			return nil, err
		}

		s.logger.Infof("[Node] joined topic: %s", topicName)

		topics[topicName] = topic
	}

	return topics, nil
}

// SetTopicHandler sets a message handler for the specified topic.
func (s *Node) SetTopicHandler(ctx context.Context, topicName string, handler Handler) error {
	if err := s.requireStarted(); err != nil {
		return err
	}

	s.topicsMu.Lock()

	_, ok := s.handlerByTopic[topicName]
	if ok {
		s.topicsMu.Unlock()
		return fmt.Errorf("[Node][SetTopicHandler] handler already exists for topic: %s", topicName)
	}

	topic := s.topics[topicName]
	if topic == nil {
		s.topicsMu.Unlock()
		return fmt.Errorf("[Node][SetTopicHandler] topic not found: %s", topicName)
	}

	sub, err := topic.Subscribe()
	if err != nil {
		s.topicsMu.Unlock()
		return err
	}

	s.handlerByTopic[topicName] = handler
	s.topicsMu.Unlock()

	go func() {
		s.logger.Infof("[Node][SetTopicHandler] starting handler for topic: %s", topicName)

		for {
			select {
			case <-ctx.Done():
				s.logger.Infof("[Node][SetTopicHandler] shutting down")
				return
			default:
				m, err := sub.Next(ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						s.logger.Errorf("[Node][SetTopicHandler] error getting msg from %s topic: %v", topicName, err)
					}

					continue
				}

				s.logger.Debugf("[Node][SetTopicHandler]: topic: %s - from: %s - message: %s\n", *m.Message.Topic, m.ReceivedFrom.ShortString(), strings.TrimSpace(string(m.Message.Data)))
				handler(ctx, m.Data, m.ReceivedFrom.String())
			}
		}
	}()

	return nil
}

// GetTopic returns the topic instance for the given topic name.
func (s *Node) GetTopic(topicName string) *pubsub.Topic {
	s.topicsMu.RLock()
	defer s.topicsMu.RUnlock()

	return s.topics[topicName]
}

// Publish sends a message to all subscribers of the specified topic.
func (s *Node) Publish(ctx context.Context, topicName string, msgBytes []byte) error {
	if err := s.requireStarted(); err != nil {
		return err
	}

	s.topicsMu.RLock()
	topic := s.topics[topicName]
	s.topicsMu.RUnlock()

	if topic == nil {
		return fmt.Errorf("[Node][Publish] topic not found: %s", topicName)
	}

	if err := topic.Publish(ctx, msgBytes); err != nil {
		return fmt.Errorf("[Node][Publish] publish error: %w", err)
	}

	s.logger.Debugf("[Node][Publish] topic: %s - %d bytes", topicName, len(msgBytes))

	// Increment bytesSent using atomic operations
	atomic.AddUint64(&s.bytesSent, uint64(len(msgBytes)))

	// Update lastSend timestamp
	atomic.StoreInt64(&s.lastSend, time.Now().Unix())

	return nil
}

// JoinRoom subscribes the node to the pubsub topic for the given room
// identifier and starts dispatching its messages to the registered handlers.
// A node is a member of at most one room at a time; joining a new room
// leaves the previous one first. Joining the room the node is already a
// member of is a no-op.
func (s *Node) JoinRoom(ctx context.Context, roomID string) error {
	if err := s.requireStarted(); err != nil {
		return err
	}

	if roomID == "" {
		return errors.New("[Node][JoinRoom] empty room id")
	}

	s.roomMu.Lock()
	defer s.roomMu.Unlock()

	if s.roomID == roomID {
		return nil
	}

	if s.roomTopic != nil {
		s.closeRoomLocked()
	}

	topicName := RoomTopicName(roomID)

	s.topicsMu.RLock()
	ps := s.pubSub
	s.topicsMu.RUnlock()

	topic, err := ps.Join(topicName)
	if err != nil {
		return fmt.Errorf("[Node][JoinRoom] error joining room topic %s: %w", topicName, err)
	}

	sub, err := topic.Subscribe()
	if err != nil {
		_ = topic.Close()
		return fmt.Errorf("[Node][JoinRoom] error subscribing to room topic %s: %w", topicName, err)
	}

	readCtx, cancel := context.WithCancel(ctx)

	s.roomID = roomID
	s.roomTopic = topic
	s.roomSub = sub
	s.roomCancel = cancel

	go s.readTopicLoop(readCtx, sub, topicName)

	s.logger.Infof("[Node] joined room: %s", roomID)

	return nil
}

// LeaveRoom unsubscribes from the current room topic. It is a no-op when the
// node is not a member of any room.
func (s *Node) LeaveRoom(_ context.Context) error {
	if err := s.requireStarted(); err != nil {
		return err
	}

	s.roomMu.Lock()
	defer s.roomMu.Unlock()

	if s.roomTopic == nil {
		return nil
	}

	roomID := s.roomID
	s.closeRoomLocked()

	s.logger.Infof("[Node] left room: %s", roomID)

	return nil
}

// closeRoomLocked tears down the current room subscription.
// The caller must hold roomMu.
func (s *Node) closeRoomLocked() {
	if s.roomCancel != nil {
		s.roomCancel()
	}

	if s.roomSub != nil {
		s.roomSub.Cancel()
	}

	if s.roomTopic != nil {
		if err := s.roomTopic.Close(); err != nil {
			s.logger.Debugf("[Node] error closing room topic: %v", err)
		}
	}

	s.roomID = ""
	s.roomTopic = nil
	s.roomSub = nil
	s.roomCancel = nil
}

// closeCurrentRoom tears down the room subscription, taking the room lock.
func (s *Node) closeCurrentRoom() {
	s.roomMu.Lock()
	defer s.roomMu.Unlock()

	s.closeRoomLocked()
}

// CurrentRoom returns the identifier of the room the node is a member of,
// or the empty string when no room is joined.
func (s *Node) CurrentRoom() string {
	s.roomMu.Lock()
	defer s.roomMu.Unlock()

	return s.roomID
}

// SendMessage publishes a message to the current room.
// Returns ErrNoRoom when the node has not joined a room.
func (s *Node) SendMessage(ctx context.Context, data []byte) error {
	if err := s.requireStarted(); err != nil {
		return err
	}

	s.roomMu.Lock()
	topic := s.roomTopic
	s.roomMu.Unlock()

	if topic == nil {
		return ErrNoRoom
	}

	if err := topic.Publish(ctx, data); err != nil {
		return fmt.Errorf("[Node][SendMessage] publish error: %w", err)
	}

	atomic.AddUint64(&s.bytesSent, uint64(len(data)))
	atomic.StoreInt64(&s.lastSend, time.Now().Unix())

	return nil
}

// startSyncTopicReader begins dispatching messages arriving on the always-on
// history sync topic.
func (s *Node) startSyncTopicReader(ctx context.Context) error {
	s.topicsMu.RLock()
	topic := s.topics[HistorySyncTopic]
	s.topicsMu.RUnlock()

	if topic == nil {
		return fmt.Errorf("[Node] history sync topic not joined")
	}

	sub, err := topic.Subscribe()
	if err != nil {
		return fmt.Errorf("[Node] error subscribing to history sync topic: %w", err)
	}

	go s.readTopicLoop(ctx, sub, HistorySyncTopic)

	return nil
}

// readTopicLoop consumes a subscription and routes each message to the sync
// handler or the plain message handler. Messages published by this node are
// skipped.
func (s *Node) readTopicLoop(ctx context.Context, sub *pubsub.Subscription, topicName string) {
	for {
		m, err := sub.Next(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && ctx.Err() == nil {
				s.logger.Errorf("[Node] error getting msg from %s topic: %v", topicName, err)
			}

			return
		}

		if m.ReceivedFrom == s.host.ID() {
			continue
		}

		atomic.AddUint64(&s.bytesReceived, uint64(len(m.Data)))
		atomic.StoreInt64(&s.lastRecv, time.Now().Unix())

		s.dispatchMessage(ctx, topicName, m)
	}
}

// dispatchMessage decodes a received payload. History sync payloads are
// recorded in the history store and delivered to the sync handler; anything
// else goes to the plain message handler.
func (s *Node) dispatchMessage(ctx context.Context, topicName string, m *pubsub.Message) {
	from := m.ReceivedFrom.String()

	if syncMsg, ok := decodeSyncMessage(m.Data); ok {
		added := s.history.AddEntries(syncMsg.Entries)
		s.logger.Debugf("[Node] history sync from %s: %d entries, %d new", from, len(syncMsg.Entries), added)

		s.callSyncHandler(ctx, syncMsg, from)

		return
	}

	s.callMessageHandler(ctx, Message{
		PeerID: from,
		Topic:  topicName,
		Data:   m.Data,
	})
}
