package client

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/mdns"
)

// wsServiceType is the mDNS service tag a chipsock server may be
// advertised under on the local network.
const wsServiceType = "_chipsock-ws._tcp"

// DiscoveredService represents a discovered command server
type DiscoveredService struct {
	ServiceName string
	Address     string
	Port        int
	TXTRecords  []string
}

// URL returns the ws:// address a client can connect to.
func (s *DiscoveredService) URL() string {
	return fmt.Sprintf("ws://%s:%d", s.Address, s.Port)
}

// DiscoverServer discovers the first available command server via
// mDNS.
func DiscoverServer(timeout time.Duration) (*DiscoveredService, error) {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	entriesCh := make(chan *mdns.ServiceEntry, 4)

	// Start discovery in background
	go func() {
		defer close(entriesCh)
		mdns.Lookup(wsServiceType, entriesCh)
	}()

	// Wait for first result or timeout
	select {
	case entry := <-entriesCh:
		if entry == nil {
			return nil, fmt.Errorf("no %s service found", wsServiceType)
		}

		var address string
		if entry.AddrV4 != nil {
			address = entry.AddrV4.String()
		} else if entry.AddrV6 != nil {
			address = fmt.Sprintf("[%s]", entry.AddrV6.String())
		} else {
			return nil, fmt.Errorf("no valid address found for service")
		}

		service := &DiscoveredService{
			ServiceName: entry.Name,
			Address:     address,
			Port:        entry.Port,
			TXTRecords:  entry.InfoFields,
		}

		slog.Info("Discovered command server",
			"service_name", service.ServiceName,
			"address", service.Address,
			"port", service.Port,
		)

		return service, nil

	case <-time.After(timeout):
		return nil, fmt.Errorf("mDNS discovery timeout for %s", wsServiceType)
	}
}
