package bar123

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	dht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	dRouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	dUtil "github.com/libp2p/go-libp2p/p2p/discovery/util"
	"golang.org/x/sync/errgroup"
)

func (s *Node) discoverPeers(ctx context.Context, topicNames []string) error {
	var (
		kademliaDHT *dht.IpfsDHT
		err         error
	)

	if s.config.UsePrivateDHT {
		kademliaDHT, err = s.initPrivateDHT(ctx)
	} else {
		kademliaDHT, err = s.initDHT(ctx)
	}

	if err != nil {
		return fmt.Errorf(errorCreatingDhtMessage, err)
	}

	if kademliaDHT == nil {
		return nil
	}

	routingDiscovery := dRouting.NewRoutingDiscovery(kademliaDHT)

	if s.config.Advertise {
		for _, topicName := range topicNames {
			s.logger.Infof("[Node] advertising topic: %s", topicName)
			dUtil.Advertise(ctx, routingDiscovery, topicName)
		}
	}

	// Log peer store info
	peerCount := len(s.host.Peerstore().Peers())
	s.logger.Debugf("[Node] %d peers in peerstore", peerCount)

	// Use simultaneous connect for hole punching
	ctx = network.WithSimultaneousConnect(ctx, true, "hole punching")
	peerAddrErrorMap := sync.Map{}

	// Look for others who have announced and attempt to connect to them
	for {
		select {
		case <-ctx.Done():
			// Exit immediately if context is done
			s.logger.Infof("[Node] shutting down")
			return nil
		default:
			// Create a copy of the map to avoid concurrent modifications
			peerAddrMap := sync.Map{}

			eg := errgroup.Group{}

			start := time.Now()

			// Start all peer finding goroutines
			for _, topicName := range topicNames {
				eg.Go(func() error {
					return s.findPeers(ctx, topicName, routingDiscovery, &peerAddrMap, &peerAddrErrorMap)
				})
			}

			if err := eg.Wait(); err != nil {
				return err
			}

			duration := time.Since(start)
			if duration > 0 { // Avoid logging negative durations due to clock skew
				s.logger.Debugf("[Node] Completed discovery process in %v", duration)
			}

			// Using a timer with context to handle cancellation during sleep
			sleepTimer := time.NewTimer(5 * time.Second)
			select {
			case <-sleepTimer.C:
				// Timer completed normally, continue the loop
			case <-ctx.Done():
				// Context was canceled, clean up and return
				if !sleepTimer.Stop() {
					select {
					case <-sleepTimer.C:
					default:
					}
				}

				return ctx.Err()
			}
		}
	}
}

func (s *Node) findPeers(ctx context.Context, topicName string, routingDiscovery *dRouting.RoutingDiscovery, peerAddrMap *sync.Map, peerAddrErrorMap *sync.Map) error {
	// Find peers subscribed to the topic
	addrChan, err := routingDiscovery.FindPeers(ctx, topicName)
	if err != nil {
		s.logger.Errorf("[Node] error finding peers: %+v", err)

		return err
	}

	wg := &sync.WaitGroup{}

	// Process each peer address discovered
	for addr := range addrChan {
		// Check if context is done before processing each peer
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Skip peers we shouldn't connect to
		if s.shouldSkipPeer(addr, peerAddrErrorMap) {
			continue
		}

		wg.Add(1)

		go func() {
			defer wg.Done()
			s.attemptConnection(ctx, addr, peerAddrMap, peerAddrErrorMap)
		}()
	}

	wg.Wait()

	return nil
}

// shouldSkipPeer determines if a peer should be skipped based on filtering criteria
func (s *Node) shouldSkipPeer(addr peer.AddrInfo, peerAddrErrorMap *sync.Map) bool {
	// Skip self connection
	if addr.ID == s.host.ID() {
		return true
	}

	// Skip already connected peers
	if s.host.Network().Connectedness(addr.ID) == network.Connected {
		return true
	}

	// Skip peers with no addresses
	if len(addr.Addrs) == 0 {
		return true
	}

	// Skip based on previous errors if optimizing retries
	if s.config.OptimiseRetries {
		return s.shouldSkipBasedOnErrors(addr, peerAddrErrorMap)
	}

	return false
}

// shouldSkipBasedOnErrors determines if a peer should be skipped based on previous errors
func (s *Node) shouldSkipBasedOnErrors(addr peer.AddrInfo, peerAddrErrorMap *sync.Map) bool {
	peerConnectionError, ok := peerAddrErrorMap.Load(addr.ID.String())
	if !ok {
		return false
	}

	errorStr, _ := peerConnectionError.(string)

	// Check for "no good addresses" error
	if strings.Contains(errorStr, "no good addresses") {
		return s.shouldSkipNoGoodAddresses(addr)
	}

	// Check for "peer id mismatch" error
	if strings.Contains(errorStr, "peer id mismatch") {
		// "peer id mismatch" is where the node has started using a new private key
		// No point trying to connect to it
		return true
	}

	return false
}

// shouldSkipNoGoodAddresses determines if a peer with "no good addresses" error should be skipped
func (s *Node) shouldSkipNoGoodAddresses(addr peer.AddrInfo) bool {
	numAddresses := len(addr.Addrs)

	switch numAddresses {
	case 0:
		// peer has no addresses, no point trying to connect to it
		return true
	case 1:
		address := addr.Addrs[0].String()
		if strings.Contains(address, "127.0.0.1") {
			// Peer has a single localhost address, and it failed on first attempt
			// You aren't allowed to dial 'yourself' and there are no other addresses available
			return true
		}
	}

	return false
}

// attemptConnection tries to connect to a peer if it hasn't been attempted already
func (s *Node) attemptConnection(ctx context.Context, peerAddr peer.AddrInfo, peerAddrMap *sync.Map, peerAddrErrorMap *sync.Map) {
	if _, ok := peerAddrMap.Load(peerAddr.ID.String()); ok {
		return
	}

	peerAddrMap.Store(peerAddr.ID.String(), true)

	err := s.host.Connect(ctx, peerAddr)
	if err != nil {
		peerAddrErrorMap.Store(peerAddr.ID.String(), err.Error())

		if s.peerCache != nil {
			s.peerCache.AddOrUpdatePeer(peerAddr.ID, multiaddrStrings(peerAddr), s.CurrentRoom(), false)
		}

		s.logger.Debugf("[Node][%s] Failed to connect: %v", peerAddr.String(), err)
	} else {
		s.logger.Infof("[Node][%s] Connected in %s", peerAddr.String(), time.Since(s.startTime))
	}
}

func multiaddrStrings(addr peer.AddrInfo) []string {
	addrs := make([]string, 0, len(addr.Addrs))
	for _, a := range addr.Addrs {
		addrs = append(addrs, a.String())
	}

	return addrs
}

func (s *Node) initDHT(ctx context.Context) (*dht.IpfsDHT, error) {
	// Start a DHT, for use in peer discovery. We can't just make a new DHT
	// client because we want each peer to maintain its own local copy of the
	// DHT, so that the bootstrapping node of the DHT can go down without
	// inhibiting future peer discovery.
	var options []dht.Option

	options = append(options, dht.Mode(dht.ModeAutoServer))

	kademliaDHT, err := dht.New(ctx, s.host, options...)
	if err != nil {
		return nil, fmt.Errorf(errorCreatingDhtMessage, err)
	} else if err = kademliaDHT.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("[Node] error bootstrapping DHT: %w", err)
	}

	var wg sync.WaitGroup

	// Create a context with timeout to ensure bootstrap connections don't hang
	connectCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	for _, peerAddr := range dht.DefaultBootstrapPeers {
		peerinfo, _ := peer.AddrInfoFromP2pAddr(peerAddr)

		wg.Add(1)

		go func(pi *peer.AddrInfo) {
			defer wg.Done()

			if err := s.host.Connect(connectCtx, *pi); err != nil {
				select {
				case <-ctx.Done():
				default:
					s.logger.Debugf("DHT Bootstrap warning: %v", err)
				}
			}
		}(peerinfo)
	}

	// Wait for all connection attempts to complete
	wg.Wait()

	return kademliaDHT, nil
}

func (s *Node) initPrivateDHT(ctx context.Context) (*dht.IpfsDHT, error) {
	bootstrapAddresses := s.config.BootstrapAddresses
	s.logger.Infof("[Node] bootstrapAddresses: %v", bootstrapAddresses)

	if len(bootstrapAddresses) == 0 {
		return nil, errors.New("[Node] bootstrapAddresses not set in config")
	}

	// Ensure the DHT protocol ID is set in the config
	dhtProtocolIDStr := s.config.DHTProtocolID
	if dhtProtocolIDStr == "" {
		return nil, errors.New("[Node] error getting dht protocol id")
	}

	dhtProtocolID := protocol.ID(dhtProtocolIDStr)

	// Track if we successfully connected to at least one bootstrap address
	connectedToBootstrap := false

	for _, ba := range bootstrapAddresses {
		peerInfo, err := parsePeerAddr(ba)
		if err != nil {
			s.logger.Warnf("[Node] invalid bootstrap address %s: %v", ba, err)

			continue // Try the next bootstrap address
		}

		if len(peerInfo.Addrs) > 0 {
			if ip, ipErr := getIPFromMultiaddr(peerInfo.Addrs[0]); ipErr == nil {
				s.logger.Infof("[Node] bootstrap address %s has IP %s", ba, ip)
			}
		}

		err = s.host.Connect(ctx, *peerInfo)
		if err != nil {
			s.logger.Warnf("[Node] failed to connect to bootstrap address %s: %v", ba, err)

			continue // Try the next bootstrap address
		}

		// Successfully connected to this bootstrap address
		connectedToBootstrap = true

		s.logger.Infof("[Node] successfully connected to bootstrap address %s", ba)
	}

	// Only return an error if we couldn't connect to any bootstrap addresses
	if !connectedToBootstrap {
		return nil, errors.New("[Node] failed to connect to any bootstrap addresses")
	}

	var options []dht.Option
	options = append(options, dht.ProtocolPrefix(dhtProtocolID))
	options = append(options, dht.Mode(dht.ModeAuto))

	kademliaDHT, err := dht.New(ctx, s.host, options...)
	if err != nil {
		return nil, fmt.Errorf(errorCreatingDhtMessage, err)
	}

	err = kademliaDHT.Bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Node] error bootstrapping DHT: %w", err)
	}

	return kademliaDHT, nil
}

// mdnsNotifee connects to peers found on the local network.
type mdnsNotifee struct {
	node *Node
}

func (n *mdnsNotifee) HandlePeerFound(info peer.AddrInfo) {
	if info.ID == n.node.host.ID() {
		return
	}

	n.node.logger.Debugf("[Node] mDNS found peer: %s", info.ID.String())

	if err := n.node.host.Connect(context.Background(), info); err != nil {
		n.node.logger.Debugf("[Node] mDNS connect failed %s: %v", info.ID.String(), err)
	}
}

// setupMDNS starts local network peer discovery. The service tag defaults to
// the process name so only nodes of the same application find each other.
func (s *Node) setupMDNS() error {
	serviceTag := s.config.ProcessName
	if serviceTag == "" {
		serviceTag = "bar123"
	}

	service := mdns.NewMdnsService(s.host, serviceTag, &mdnsNotifee{node: s})
	if err := service.Start(); err != nil {
		return err
	}

	s.mdns = service

	s.logger.Infof("[Node] mDNS discovery started with tag: %s", serviceTag)

	return nil
}

// startCachedPeerConnector redials the best-scoring peers from the peer cache.
func (s *Node) startCachedPeerConnector(ctx context.Context) {
	if s.peerCache == nil {
		return
	}

	limit := s.config.MaxCachedPeers
	if limit == 0 {
		limit = DefaultMaxCachedPeers
	}

	ttl := s.config.PeerCacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}

	best := s.peerCache.GetBestPeers(limit, ttl)
	if len(best) == 0 {
		return
	}

	go func() {
		for _, cached := range best {
			select {
			case <-ctx.Done():
				return
			default:
			}

			info, err := cached.AddrInfo()
			if err != nil {
				s.logger.Debugf("[Node] invalid cached peer %s: %v", cached.ID, err)
				continue
			}

			if s.host.Network().Connectedness(info.ID) == network.Connected {
				continue
			}

			if err := s.host.Connect(ctx, *info); err != nil {
				s.peerCache.AddOrUpdatePeer(info.ID, cached.Addresses, "", false)
				s.logger.Debugf("[Node] failed to reconnect to cached peer %s: %v", cached.ID, err)
			} else {
				s.logger.Infof("[Node] reconnected to cached peer: %s", cached.ID)
			}
		}
	}()
}
