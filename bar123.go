// Package bar123 provides a peer-to-peer networking layer built on libp2p for
// synchronizing browsing history between devices, offering secure room-based
// publish/subscribe messaging, local and DHT-based peer discovery, and
// deduplicated history sync storage.
package bar123
