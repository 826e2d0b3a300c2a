package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/wledflash/internal/logging"
)

const (
	// ServiceType is the mDNS service type WLED advertises
	ServiceType = "_wled._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default discovery window
	DefaultScanTimeout = 3 * time.Second

	// DefaultPort is the default HTTP port for WLED devices
	DefaultPort = 80

	// entryBuffer keeps the resolver from blocking on a slow consumer
	entryBuffer = 32
)

// Source emits service advertisements for a service type into entries until
// ctx is done. Browse returns once browsing has started.
type Source interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// ZeroconfSource browses the local network over multicast DNS
type ZeroconfSource struct{}

// Browse implements Source using a fresh zeroconf resolver
func (ZeroconfSource) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	if err := resolver.Browse(ctx, service, domain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the discovery window used by ScanForDevices
	Timeout time.Duration

	// Service and Domain select what to browse for
	Service string
	Domain  string

	// Source supplies advertisements; defaults to ZeroconfSource
	Source Source

	// OnFound, if set, is called once per new address. It runs on the
	// collecting goroutine and must not block.
	OnFound func(*Device)
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Service: ServiceType,
		Domain:  ServiceDomain,
		Source:  ZeroconfSource{},
	}
}

// Discover listens for advertisements for window and returns the distinct
// device addresses seen, sorted. No devices is not an error.
func (s *Scanner) Discover(ctx context.Context, window time.Duration) ([]string, error) {
	c, err := s.collect(ctx, window)
	if err != nil {
		return nil, err
	}
	return c.Addresses(), nil
}

// ScanForDevices discovers devices for s.Timeout and returns full records,
// ordered by address
func (s *Scanner) ScanForDevices(ctx context.Context) ([]*Device, error) {
	c, err := s.collect(ctx, s.Timeout)
	if err != nil {
		return nil, err
	}
	return c.Devices(), nil
}

func (s *Scanner) collect(ctx context.Context, window time.Duration) (*Collector, error) {
	if window <= 0 {
		window = DefaultScanTimeout
	}
	service, domain := s.Service, s.Domain
	if service == "" {
		service = ServiceType
	}
	if domain == "" {
		domain = ServiceDomain
	}
	source := s.Source
	if source == nil {
		source = ZeroconfSource{}
	}

	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	collector := NewCollector()
	entries := make(chan *zeroconf.ServiceEntry, entryBuffer)
	done := make(chan struct{})

	handle := func(entry *zeroconf.ServiceEntry) {
		device := parseServiceEntry(entry)
		if device == nil {
			return
		}
		if collector.Add(device) {
			logging.LogDeviceFound(device.IP, device.Hostname)
			if s.OnFound != nil {
				s.OnFound(device)
			}
		}
	}

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				// Keep what already arrived
				for {
					select {
					case entry, ok := <-entries:
						if !ok {
							return
						}
						handle(entry)
					default:
						return
					}
				}
			case entry, ok := <-entries:
				if !ok {
					return
				}
				handle(entry)
			}
		}
	}()

	if err := source.Browse(ctx, service, domain, entries); err != nil {
		cancel()
		<-done
		return nil, err
	}

	// Wait for the window to close
	<-ctx.Done()
	<-done

	return collector, nil
}

// parseServiceEntry converts a zeroconf service entry to a Device
// Returns nil if the entry carries no usable address
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		if addr != nil {
			ip = addr.String()
			break
		}
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" {
		for _, addr := range entry.AddrIPv6 {
			if addr != nil {
				ip = addr.String()
				break
			}
		}
	}

	if ip == "" {
		return nil
	}

	// Get port (default to 80 if not specified)
	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	return &Device{
		Name:         entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Discover is a convenience function: browse the local network for WLED
// devices for window and return their sorted addresses
func Discover(ctx context.Context, window time.Duration) ([]string, error) {
	return NewScanner().Discover(ctx, window)
}

// ScanForDevices is a convenience function to scan for devices with a custom timeout
func ScanForDevices(ctx context.Context, timeout time.Duration) ([]*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForDevices(ctx)
}
