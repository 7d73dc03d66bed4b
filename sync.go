package bar123

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// HistoryEntry is a single browsing history record exchanged between devices.
// Field names are part of the wire format and must not change.
type HistoryEntry struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	VisitTime   int64   `json:"visit_time"`
	Duration    *int64  `json:"duration"`
	DeviceID    string  `json:"device_id"`
	IsArticle   bool    `json:"is_article"`
	Content     *string `json:"content"`
	ReadingTime *int32  `json:"reading_time"`
}

// SyncMessage is the envelope published for a batch of history entries.
// Timestamp is in Unix milliseconds.
type SyncMessage struct {
	MessageType string         `json:"message_type"`
	Entries     []HistoryEntry `json:"entries"`
	DeviceID    string         `json:"device_id"`
	Timestamp   int64          `json:"timestamp"`
}

// decodeSyncMessage attempts to decode a payload as a history sync envelope.
// Payloads that are not JSON objects with message_type "history_sync" are
// reported as not-a-sync-message so they can fall through to the plain
// message handler.
func decodeSyncMessage(data []byte) (SyncMessage, bool) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SyncMessage{}, false
	}

	if msg.MessageType != SyncMessageType {
		return SyncMessage{}, false
	}

	return msg, true
}

// SendHistorySync wraps the entries in a sync envelope tagged with the device
// identifier and publishes it. The envelope goes to the current room when one
// is joined, otherwise to the shared history sync topic.
// An empty deviceID falls back to the node's own device identifier.
func (s *Node) SendHistorySync(ctx context.Context, entries []HistoryEntry, deviceID string) error {
	if err := s.requireStarted(); err != nil {
		return err
	}

	if deviceID == "" {
		deviceID = s.deviceID
	}

	msg := SyncMessage{
		MessageType: SyncMessageType,
		Entries:     entries,
		DeviceID:    deviceID,
		Timestamp:   time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("[Node][SendHistorySync] error encoding sync message: %w", err)
	}

	s.roomMu.Lock()
	topic := s.roomTopic
	s.roomMu.Unlock()

	if topic != nil {
		if err = s.SendMessage(ctx, payload); err != nil {
			return err
		}
	} else if err = s.Publish(ctx, HistorySyncTopic, payload); err != nil {
		return err
	}

	s.logger.Debugf("[Node][SendHistorySync] sent %d entries for device %s", len(entries), deviceID)

	return nil
}

// SendHistorySyncJSON is SendHistorySync for callers that already hold the
// entries as encoded JSON.
func (s *Node) SendHistorySyncJSON(ctx context.Context, entriesJSON []byte, deviceID string) error {
	var entries []HistoryEntry
	if err := json.Unmarshal(entriesJSON, &entries); err != nil {
		return fmt.Errorf("[Node][SendHistorySync] error parsing history entries: %w", err)
	}

	return s.SendHistorySync(ctx, entries, deviceID)
}

// entryKey identifies a history entry for deduplication.
type entryKey struct {
	deviceID  string
	url       string
	visitTime int64
}

// HistoryStore is a deduplicating in-memory store of history entries received
// from other devices. Entries are keyed by (device, url, visit time) so
// repeated sync batches are cheap to absorb.
type HistoryStore struct {
	mu           sync.RWMutex
	entries      map[entryKey]HistoryEntry
	deviceLatest map[string]int64
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		entries:      make(map[entryKey]HistoryEntry),
		deviceLatest: make(map[string]int64),
	}
}

// Add records a single entry. Returns true if the entry was not already
// present.
func (hs *HistoryStore) Add(entry HistoryEntry) bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	return hs.addLocked(entry)
}

// AddEntries records a batch of entries and returns the number that were new.
func (hs *HistoryStore) AddEntries(entries []HistoryEntry) int {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	added := 0

	for _, entry := range entries {
		if hs.addLocked(entry) {
			added++
		}
	}

	return added
}

func (hs *HistoryStore) addLocked(entry HistoryEntry) bool {
	key := entryKey{deviceID: entry.DeviceID, url: entry.URL, visitTime: entry.VisitTime}

	if _, ok := hs.entries[key]; ok {
		return false
	}

	hs.entries[key] = entry

	if entry.VisitTime > hs.deviceLatest[entry.DeviceID] {
		hs.deviceLatest[entry.DeviceID] = entry.VisitTime
	}

	return true
}

// Entries returns all stored entries ordered by visit time.
func (hs *HistoryStore) Entries() []HistoryEntry {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	entries := make([]HistoryEntry, 0, len(hs.entries))
	for _, entry := range hs.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].VisitTime < entries[j].VisitTime
	})

	return entries
}

// EntriesForDevice returns the stored entries for one device, ordered by
// visit time.
func (hs *HistoryStore) EntriesForDevice(deviceID string) []HistoryEntry {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	var entries []HistoryEntry

	for _, entry := range hs.entries {
		if entry.DeviceID == deviceID {
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].VisitTime < entries[j].VisitTime
	})

	return entries
}

// Devices returns the identifiers of all devices entries have been received
// from.
func (hs *HistoryStore) Devices() []string {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	devices := make([]string, 0, len(hs.deviceLatest))
	for deviceID := range hs.deviceLatest {
		devices = append(devices, deviceID)
	}

	sort.Strings(devices)

	return devices
}

// LatestForDevice returns the most recent visit time seen from a device, or
// zero when nothing has been received from it.
func (hs *HistoryStore) LatestForDevice(deviceID string) int64 {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	return hs.deviceLatest[deviceID]
}

// Count returns the number of stored entries.
func (hs *HistoryStore) Count() int {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	return len(hs.entries)
}
