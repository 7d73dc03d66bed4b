package bar123

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/pnet"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"github.com/multiformats/go-multiaddr"
)

// NewNode creates and initializes a new bar123 network node with the provided configuration.
// This constructor performs the core setup of the libp2p networking stack, including:
//   - Setting up the node's cryptographic identity (private key)
//   - Configuring network transports, listeners, and NAT traversal options
//   - Loading the peer cache for reconnection across restarts
//   - Preparing room handlers and the history store
//
// Parameters:
//   - ctx: Context for controlling the initialization process
//   - logger: Logger for recording initialization and operational events
//   - config: Configuration parameters defining network behavior
//
// Returns a fully initialized node ready for starting, or an error if initialization fails.
func NewNode(ctx context.Context, logger Logger, config Config) (*Node, error) {
	logger.Infof("[Node] Creating node")

	var (
		err error
		h   host.Host       // the libp2p host for the node
		pk  *crypto.PrivKey // the private key for the node's identity
	)

	if config.PrivateKey == "" {
		pk, err = generatePrivateKey(ctx)
		if err != nil {
			return nil, fmt.Errorf("[Node] error generating private key: %w", err)
		}
	} else {
		// Decode the provided private key from hex format
		pk, err = decodeHexEd25519PrivateKey(config.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("[Node] error decoding private key: %w", err)
		}
	}

	var gater *ConnectionGater
	if config.EnableConnGater {
		gater = NewConnectionGater(logger, config.MaxConnsPerPeer)
	}

	// If a private DHT is configured, set up the private network
	if config.UsePrivateDHT {
		h, err = setUpPrivateNetwork(logger, config, pk, gater)
		if err != nil {
			return nil, fmt.Errorf("[Node] error setting up private network: %w", err)
		}
	} else {
		// If no private DHT is configured, create a standard libp2p host
		var listenMultiAddresses []string
		for _, addr := range config.ListenAddresses {
			listenMultiAddresses = append(listenMultiAddresses, fmt.Sprintf(multiAddrIPTemplate, addr, config.Port))
		}

		opts := []libp2p.Option{
			libp2p.ListenAddrStrings(listenMultiAddresses...),
			libp2p.Identity(*pk),
		}

		opts = append(opts, natOptions(config)...)

		if gater != nil {
			opts = append(opts, libp2p.ConnectionGater(gater))
		}

		if config.EnableConnManager {
			var cm *connmgr.BasicConnMgr

			cm, err = newConnManager(config)
			if err != nil {
				return nil, fmt.Errorf("[Node] error creating connection manager: %w", err)
			}

			opts = append(opts, libp2p.ConnectionManager(cm))
		}

		// If advertise addresses are specified, add them to the options
		addrsToAdvertise := buildAdvertiseMultiAddrs(logger, config.AdvertiseAddresses, config.Port)
		if len(addrsToAdvertise) > 0 {
			opts = append(opts, libp2p.AddrsFactory(func(_ []multiaddr.Multiaddr) []multiaddr.Multiaddr {
				return addrsToAdvertise
			}))
		} else {
			// User has not specified any broadcast addresses in their config, and we are not using a private DHT
			// define address factory to remove all private IPs from being advertised
			opts = append(opts, libp2p.AddrsFactory(func(addrs []multiaddr.Multiaddr) []multiaddr.Multiaddr {
				var publicAddrs []multiaddr.Multiaddr

				for _, addr := range addrs {
					// if IP is not private add it to the list
					if !isPrivateIP(addr) {
						publicAddrs = append(publicAddrs, addr)
					}
				}

				// If we still don't have any advertisable addresses then attempt to grab it from `https://ifconfig.me/ip`
				if len(publicAddrs) > 0 {
					return publicAddrs
				}

				// If no public addresses are set, let's attempt to grab it publicly
				// Ignore errors because we don't care if we can't find it
				ifconfig, localErr := GetPublicIP(context.Background())
				if localErr != nil {
					logger.Debugf("[Node] error getting public IP: %v", localErr)
				}

				if len(ifconfig) == 0 {
					return publicAddrs
				}

				var addr multiaddr.Multiaddr
				addr, localErr = multiaddr.NewMultiaddr(fmt.Sprintf(multiAddrIPTemplate, strings.TrimSpace(ifconfig), config.Port))
				if localErr != nil {
					logger.Debugf("[Node] error creating public multiaddr: %v", localErr)
				}

				if addr != nil {
					publicAddrs = append(publicAddrs, addr)
				}

				return publicAddrs
			}))
		}

		h, err = libp2p.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("[Node] error creating libp2p host: %w", err)
		}
	}

	logger.Infof("[Node] peer ID: %s", h.ID().String())
	logger.Infof("[Node] Connect to me on:")

	for _, addr := range h.Addrs() {
		logger.Infof("[Node]   %s/p2p/%s", addr, h.ID().String())
	}

	deviceID := config.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
		logger.Infof("[Node] generated device ID: %s", deviceID)
	}

	node := &Node{
		config:         config,
		logger:         logger,
		host:           h,
		deviceID:       deviceID,
		history:        NewHistoryStore(),
		gater:          gater,
		handlerByTopic: make(map[string]Handler),
		startTime:      time.Now(),
	}

	if config.EnablePeerCache {
		cacheFile := config.PeerCacheFile
		if cacheFile == "" {
			cacheFile = defaultPeerCacheFile
		}

		cache, cacheErr := LoadPeerCache(cacheFile)
		if cacheErr != nil {
			logger.Warnf("[Node] error loading peer cache: %v", cacheErr)

			cache = NewPeerCache()
		}

		node.peerCache = cache

		logger.Infof("[Node] peer cache loaded with %d peers", cache.Count())
	}

	// Set up connection notifications
	h.Network().Notify(&network.NotifyBundle{
		ConnectedF: func(_ network.Network, conn network.Conn) {
			peerID := conn.RemotePeer()
			node.logger.Debugf("[Node] Peer connected: %s", peerID.String())

			// Store connection time
			node.peerConnTimes.Store(peerID, time.Now())

			if node.peerCache != nil {
				node.peerCache.AddOrUpdatePeer(peerID, []string{conn.RemoteMultiaddr().String()}, node.CurrentRoom(), true)
			}

			// Notify the registered peer handler about the new peer
			node.callPeerHandler(peerID, true)
		},
		DisconnectedF: func(_ network.Network, conn network.Conn) {
			peerID := conn.RemotePeer()
			node.logger.Debugf("[Node] Peer disconnected: %s", peerID.String())

			// Remove connection time when peer disconnects
			node.peerConnTimes.Delete(peerID)

			node.callPeerHandler(peerID, false)
		},
	})

	return node, nil
}

// natOptions translates the NAT and relay configuration flags into libp2p options.
func natOptions(config Config) []libp2p.Option {
	var opts []libp2p.Option

	if config.EnableNATService {
		opts = append(opts, libp2p.EnableNATService())
	}

	if config.EnableNATPortMap {
		opts = append(opts, libp2p.NATPortMap())
	}

	if config.EnableHolePunching {
		opts = append(opts, libp2p.EnableHolePunching())
	}

	if config.EnableRelay {
		opts = append(opts, libp2p.EnableRelay())

		if config.EnableRelayService {
			opts = append(opts, libp2p.EnableRelayService())
		}
	}

	if config.EnableAutoNATv2 {
		opts = append(opts, libp2p.EnableAutoNATv2())
	}

	switch config.ForceReachability {
	case "public":
		opts = append(opts, libp2p.ForceReachabilityPublic())
	case "private":
		opts = append(opts, libp2p.ForceReachabilityPrivate())
	}

	return opts
}

func newConnManager(config Config) (*connmgr.BasicConnMgr, error) {
	low := config.ConnLowWater
	if low == 0 {
		low = 200
	}

	high := config.ConnHighWater
	if high == 0 {
		high = 400
	}

	grace := config.ConnGracePeriod
	if grace == 0 {
		grace = time.Minute
	}

	return connmgr.NewConnManager(low, high, connmgr.WithGracePeriod(grace))
}

// setUpPrivateNetwork creates a libp2p host configured for a private network using a pre-shared key.
// This function establishes a secure, isolated P2P network that only allows connections between
// nodes that possess the same shared key. It's used for keeping a household's browsing
// history sync off the public network, or for testing environments.
//
// The function constructs a pre-shared key (PSK) from the provided shared key string and
// configures the libp2p host to use this PSK for all network communications. Only peers
// with the matching PSK can establish connections and participate in the network.
func setUpPrivateNetwork(logger Logger, config Config, pk *crypto.PrivKey, gater *ConnectionGater) (host.Host, error) {
	var h host.Host

	s := ""
	s += fmt.Sprintln("/key/swarm/psk/1.0.0/")
	s += fmt.Sprintln("/base16/")
	s += config.SharedKey

	buf := bytes.NewBufferString(s)
	psk, err := pnet.DecodeV1PSK(buf)
	if err != nil {
		return nil, fmt.Errorf("[Node] error decoding shared key: %w", err)
	}

	listenMultiAddresses := make([]string, 0, len(config.ListenAddresses))
	for _, addr := range config.ListenAddresses {
		listenMultiAddresses = append(listenMultiAddresses, fmt.Sprintf(multiAddrIPTemplate, addr, config.Port))
	}

	// Set up libp2p options
	opts := []libp2p.Option{
		libp2p.ListenAddrStrings(listenMultiAddresses...),
		libp2p.Identity(*pk),
		libp2p.PrivateNetwork(psk),
	}

	if gater != nil {
		opts = append(opts, libp2p.ConnectionGater(gater))
	}

	// If advertise addresses are specified, add them to the options
	addrsToAdvertise := buildAdvertiseMultiAddrs(logger, config.AdvertiseAddresses, config.Port)
	if len(addrsToAdvertise) > 0 {
		opts = append(opts, libp2p.AddrsFactory(func(_ []multiaddr.Multiaddr) []multiaddr.Multiaddr {
			return addrsToAdvertise
		}))
	}

	h, err = libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("[Node] error creating libp2p node: %w", err)
	}

	return h, nil
}

// buildAdvertiseMultiAddrs constructs multiaddrs from host strings with optional ports.
func buildAdvertiseMultiAddrs(log Logger, addrs []string, defaultPort int) []multiaddr.Multiaddr {
	result := make([]multiaddr.Multiaddr, 0, len(addrs))

	for _, addr := range addrs {
		hostStr := addr
		portNum := defaultPort

		if h, p, err := net.SplitHostPort(addr); err == nil {
			hostStr = h

			var pi int
			pi, err = strconv.Atoi(p)
			if err != nil {
				log.Debugf("invalid port in advertise address: %s, error: %v\n", addr, err)
				continue
			}
			portNum = pi
		}

		var maddr multiaddr.Multiaddr

		var err error

		if net.ParseIP(hostStr) != nil {
			maddr, err = multiaddr.NewMultiaddr(fmt.Sprintf(multiAddrIPTemplate, hostStr, portNum))
		} else {
			// If the host is not an IP address, assume it's a DNS name
			// Validate that the host is a valid DNS name
			if strings.Contains(hostStr, ":") {
				log.Debugf("invalid DNS name in advertise address: %s, error: %v\n", addr, err)
				continue
			}
			maddr, err = multiaddr.NewMultiaddr(fmt.Sprintf("/dns4/%s/tcp/%d", hostStr, portNum))
		}

		if err != nil {
			log.Debugf("invalid advertise address: %s, error: %v\n", addr, err)
			continue
		}

		result = append(result, maddr)
	}

	return result
}

func (s *Node) startStaticPeerConnector(ctx context.Context) {
	if len(s.config.StaticPeers) == 0 {
		s.logger.Infof("[Node] no static peers to connect to - skipping connection attempt")
		return
	}

	go func() {
		logged := false

		delay := 0 * time.Second

		for {
			// Use a ticker with context to handle cancellation during sleep
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
				// Timer completed, continue as normal
			case <-ctx.Done():
				// Context was canceled during wait, clean up and return
				if !timer.Stop() {
					<-timer.C
				}

				s.logger.Infof("[Node] shutting down")

				return
			}

			allConnected := s.connectToStaticPeers(ctx, s.config.StaticPeers)

			select {
			case <-ctx.Done():
				return
			default:
			}

			if allConnected {
				if !logged {
					s.logger.Infof("[Node] all static peers connected")
				}

				logged = true
				delay = 30 * time.Second // it is possible that a peer disconnects, so we need to keep checking
			} else {
				s.logger.Infof("[Node] all static peers NOT connected")

				logged = false
				delay = 5 * time.Second
			}
		}
	}()
}

// Start activates the node and begins network operations.
// This method initializes peer discovery, topic subscriptions, and stream handlers.
// It performs several key operations:
// - Launches static peer connector to maintain connections with configured static peers
// - Reconnects to the best-scoring peers from the peer cache
// - Starts DHT and mDNS peer discovery in background goroutines
// - Initializes the GossipSub protocol and joins the history sync topic
// - Sets up stream handlers for direct peer-to-peer communication
//
// Parameters:
// - ctx: Context for controlling the start process and subsequent operations
// - streamHandler: Handler for incoming protocol streams (can be nil if not using direct streams)
// - topicNames: Additional topic names to join beyond the history sync topic
//
// The method is non-blocking for peer discovery but waits for GossipSub initialization to complete.
// Returns an error if any critical component fails to initialize.
func (s *Node) Start(ctx context.Context, streamHandler func(network.Stream), topicNames ...string) error {
	if s.stopped.Load() {
		return ErrStopped
	}

	s.logger.Infof("[%s] starting", s.config.ProcessName)

	// The history sync topic is always joined so devices can exchange sync
	// payloads without sharing a room.
	topicNames = append([]string{HistorySyncTopic}, topicNames...)

	s.startStaticPeerConnector(ctx)
	s.startCachedPeerConnector(ctx)

	go func() {
		if err := s.discoverPeers(ctx, topicNames); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Errorf("[Node] error discovering peers: %v", err)
		}
	}()

	if err := s.initGossipSub(ctx, topicNames); err != nil {
		return err
	}

	if s.config.EnableMDNS {
		if err := s.setupMDNS(); err != nil {
			s.logger.Warnf("[Node] error starting mDNS discovery: %v", err)
		}
	}

	if err := s.startSyncTopicReader(ctx); err != nil {
		return err
	}

	if streamHandler != nil {
		s.host.SetStreamHandler(protocol.ID(ProtocolID), streamHandler)
	}

	s.started.Store(true)

	return nil
}

// Stop gracefully shuts down the node and closes all connections.
// Stop is idempotent; calling it more than once returns nil without
// touching the already-closed host.
func (s *Node) Stop(ctx context.Context) error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Infof("[Node] stopping")

	// Leave the current room so the subscription reader exits before the host closes.
	s.closeCurrentRoom()

	if s.mdns != nil {
		if err := s.mdns.Close(); err != nil {
			s.logger.Debugf("[Node] error closing mDNS service: %v", err)
		}
	}

	if s.peerCache != nil {
		s.savePeerCache()
	}

	// Close the underlying libp2p host
	if s.host != nil {
		if err := s.host.Close(); err != nil {
			s.logger.Errorf("[Node] error closing host: %v", err)
			return err // Return the error if closing fails
		}

		s.logger.Infof("[Node] host closed")
	}

	return nil
}

// requireStarted reports the lifecycle error for operations that need a
// running node.
func (s *Node) requireStarted() error {
	if s.stopped.Load() {
		return ErrStopped
	}

	if !s.started.Load() {
		return ErrNotStarted
	}

	return nil
}

// HostID returns the peer ID of this node.
func (s *Node) HostID() peer.ID {
	return s.host.ID()
}

// PeerID returns the peer ID of this node in its string form.
func (s *Node) PeerID() string {
	return s.host.ID().String()
}

// DeviceID returns the device identifier used in history sync payloads.
func (s *Node) DeviceID() string {
	return s.deviceID
}

// History returns the store of received history entries.
func (s *Node) History() *HistoryStore {
	return s.history
}

// SendToPeer sends a message to a peer over a direct stream.
// It will attempt to connect to the peer if not already connected.
func (s *Node) SendToPeer(ctx context.Context, peerID peer.ID, msg []byte) (err error) {
	if err = s.requireStarted(); err != nil {
		return err
	}

	h2pi := s.host.Peerstore().PeerInfo(peerID)
	s.logger.Infof("[Node][SendToPeer] dialing %s", h2pi.Addrs)

	if err = s.host.Connect(ctx, h2pi); err != nil {
		s.logger.Errorf("[Node][SendToPeer] failed to connect: %+v", err)
		return err
	}

	var st network.Stream

	st, err = s.host.NewStream(
		ctx,
		peerID,
		protocol.ID(ProtocolID),
	)
	if err != nil {
		return err
	}

	defer func() {
		err = st.Close()
		if err != nil {
			s.logger.Errorf("[Node][SendToPeer] error closing stream: %s", err)
		}
	}()

	_, err = st.Write(msg)
	if err != nil {
		return err
	}

	s.logger.Debugf("[Node][SendToPeer] sent %d bytes to %s", len(msg), peerID.String())

	// Increment bytesSent using atomic operations
	atomic.AddUint64(&s.bytesSent, uint64(len(msg)))

	// Update lastSend timestamp
	atomic.StoreInt64(&s.lastSend, time.Now().Unix())

	return nil
}

// generatePrivateKey creates a new Ed25519 private key for the node identity.
// This function generates a cryptographically secure key pair using the Ed25519 algorithm,
// which provides the node's unique identity in the P2P network.
//
// The generated key serves as the node's cryptographic identity for:
//   - Peer authentication and verification
//   - Message signing and validation
//   - Secure communication establishment
func generatePrivateKey(_ context.Context) (*crypto.PrivKey, error) {
	// Generate a new key pair
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &priv, nil
}

func decodeHexEd25519PrivateKey(hexEncodedPrivateKey string) (*crypto.PrivKey, error) {
	privKeyBytes, err := hex.DecodeString(hexEncodedPrivateKey)
	if err != nil {
		return nil, err
	}

	privKey, err := crypto.UnmarshalEd25519PrivateKey(privKeyBytes)
	if err != nil {
		return nil, err
	}

	return &privKey, nil
}

func (s *Node) connectToStaticPeers(ctx context.Context, staticPeers []string) bool {
	i := len(staticPeers)

	for _, peerAddr := range staticPeers {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		// check if peerAddr is valid
		peerMaddr, err := multiaddr.NewMultiaddr(peerAddr)
		if err != nil {
			s.logger.Errorf("[Node] invalid static peer address: %s", peerAddr)
			continue
		}
		peerInfo, err := peer.AddrInfoFromP2pAddr(peerMaddr)
		if err != nil {
			s.logger.Errorf("[Node] failed to get peerInfo from %s: %v", peerAddr, err)
			continue
		}

		if s.host.Network().Connectedness(peerInfo.ID) == network.Connected {
			i--
			continue
		}

		err = s.host.Connect(ctx, *peerInfo)
		if err != nil {
			s.logger.Debugf("[Node] failed to connect to static peer %s: %v", peerAddr, err)
		} else {
			i--

			s.logger.Infof("[Node] connected to static peer: %s", peerAddr)
		}
	}

	return i == 0
}

// LastSend returns the timestamp of the last message sent.
func (s *Node) LastSend() time.Time {
	return time.Unix(atomic.LoadInt64(&s.lastSend), 0)
}

// LastRecv returns the timestamp of the last message received.
func (s *Node) LastRecv() time.Time {
	return time.Unix(atomic.LoadInt64(&s.lastRecv), 0)
}

// BytesSent returns the total number of bytes sent by this node.
func (s *Node) BytesSent() uint64 {
	return atomic.LoadUint64(&s.bytesSent)
}

// BytesReceived returns the total number of bytes received by this node.
func (s *Node) BytesReceived() uint64 {
	return atomic.LoadUint64(&s.bytesReceived)
}

// PeerInfo contains information about a connected peer.
type PeerInfo struct {
	ID       peer.ID
	Addrs    []multiaddr.Multiaddr
	ConnTime *time.Time // Connection time (nil if not connected)
}

// ConnectedPeers returns information about all peers known to the peerstore.
func (s *Node) ConnectedPeers() []PeerInfo {
	// Get all known peers from the network
	peerIDs := s.host.Network().Peerstore().Peers()

	return s.peerInfos(peerIDs)
}

// CurrentlyConnectedPeers returns information about currently connected peers.
func (s *Node) CurrentlyConnectedPeers() []PeerInfo {
	// Get all connected peers from the network
	peerIDs := s.host.Network().Peers()

	return s.peerInfos(peerIDs)
}

func (s *Node) peerInfos(peerIDs []peer.ID) []PeerInfo {
	// Create a slice with zero initial length but with capacity for all peers
	peers := make([]PeerInfo, 0, len(peerIDs))

	// Add each peer to the slice
	for _, peerID := range peerIDs {
		var connTime *time.Time
		if ct, ok := s.peerConnTimes.Load(peerID); ok {
			t := ct.(time.Time)
			connTime = &t
		}

		peers = append(peers, PeerInfo{
			ID:       peerID,
			Addrs:    s.host.Network().Peerstore().PeerInfo(peerID).Addrs,
			ConnTime: connTime,
		})
	}

	return peers
}

// DisconnectPeer disconnects from the specified peer.
func (s *Node) DisconnectPeer(_ context.Context, peerID peer.ID) error {
	// Close all connections to this peer to ensure disconnection events are triggered
	conns := s.host.Network().ConnsToPeer(peerID)
	for _, conn := range conns {
		err := conn.Close()
		if err != nil {
			s.logger.Debugf("[Node] Error closing connection to %s: %v", peerID.String(), err)
		}
	}

	// Clean up connection time immediately as a fallback
	s.peerConnTimes.Delete(peerID)

	return s.host.Network().ClosePeer(peerID)
}

// GetProcessName returns the name of the current process.
func (s *Node) GetProcessName() string {
	return s.config.ProcessName
}

// UpdateBytesReceived updates the count of bytes received.
func (s *Node) UpdateBytesReceived(bytesCount uint64) {
	atomic.AddUint64(&s.bytesReceived, bytesCount)
}

// UpdateLastReceived updates the timestamp of the last received message.
func (s *Node) UpdateLastReceived() {
	atomic.StoreInt64(&s.lastRecv, time.Now().Unix())
}

// GetPeerIPs returns the IP addresses for a specific peer.
func (s *Node) GetPeerIPs(peerID peer.ID) []string {
	addrs := s.host.Network().Peerstore().PeerInfo(peerID).Addrs
	ips := make([]string, 0, len(addrs))

	for _, addr := range addrs {
		ip := extractIPFromMultiaddr(addr)
		if ip != "" {
			ips = append(ips, ip)
		}
	}

	return ips
}

// SetMessageHandler registers the handler invoked for room messages that are
// not history sync payloads. Setting a handler replaces any previous one.
func (s *Node) SetMessageHandler(handler MessageHandler) {
	s.callbackMutex.Lock()
	defer s.callbackMutex.Unlock()
	s.messageHandler = handler
}

// SetPeerHandler registers the handler invoked on peer connect and disconnect
// events. Setting a handler replaces any previous one.
func (s *Node) SetPeerHandler(handler PeerHandler) {
	s.callbackMutex.Lock()
	defer s.callbackMutex.Unlock()
	s.peerHandler = handler
}

// SetSyncHandler registers the handler invoked for decoded history sync
// messages. Setting a handler replaces any previous one.
func (s *Node) SetSyncHandler(handler SyncHandler) {
	s.callbackMutex.Lock()
	defer s.callbackMutex.Unlock()
	s.syncHandler = handler
}

// callPeerHandler safely calls the peer handler if one is registered.
func (s *Node) callPeerHandler(peerID peer.ID, connected bool) {
	s.callbackMutex.RLock()
	handler := s.peerHandler
	s.callbackMutex.RUnlock()

	if handler != nil {
		go handler(peerID.String(), connected)
	}
}

// callMessageHandler safely calls the message handler if one is registered.
func (s *Node) callMessageHandler(ctx context.Context, msg Message) {
	s.callbackMutex.RLock()
	handler := s.messageHandler
	s.callbackMutex.RUnlock()

	if handler != nil {
		handler(ctx, msg)
	}
}

// callSyncHandler safely calls the sync handler if one is registered.
func (s *Node) callSyncHandler(ctx context.Context, msg SyncMessage, from string) {
	s.callbackMutex.RLock()
	handler := s.syncHandler
	s.callbackMutex.RUnlock()

	if handler != nil {
		handler(ctx, msg, from)
	}
}
