package discovery

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

// fakeSource replays advertisements from several concurrent announcers, the
// way a busy network repeats mDNS answers.
type fakeSource struct {
	entries    []*zeroconf.ServiceEntry
	announcers int
	err        error

	gotService string
	gotDomain  string
}

func (f *fakeSource) Browse(ctx context.Context, service, domain string, out chan<- *zeroconf.ServiceEntry) error {
	f.gotService, f.gotDomain = service, domain
	if f.err != nil {
		return f.err
	}

	n := f.announcers
	if n == 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		go func() {
			for _, e := range f.entries {
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	return nil
}

func wledEntry(instance, ip string, text ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = "wled-" + instance + ".local."
	e.Port = 80
	e.AddrIPv4 = []net.IP{net.ParseIP(ip)}
	e.Text = text
	return e
}

func TestScanner_DiscoverDeduplicates(t *testing.T) {
	source := &fakeSource{
		entries: []*zeroconf.ServiceEntry{
			wledEntry("porch", "192.168.1.40"),
			wledEntry("porch", "192.168.1.40"),
			wledEntry("kitchen", "192.168.1.9"),
			wledEntry("desk", "192.168.1.100"),
			wledEntry("kitchen", "192.168.1.9"),
		},
		announcers: 8,
	}

	var mu sync.Mutex
	found := make(map[string]int)

	scanner := NewScanner()
	scanner.Source = source
	scanner.OnFound = func(d *Device) {
		mu.Lock()
		found[d.IP]++
		mu.Unlock()
	}

	addrs, err := scanner.Discover(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{"192.168.1.9", "192.168.1.40", "192.168.1.100"}
	if len(addrs) != len(want) {
		t.Fatalf("Discover() = %v, want %v", addrs, want)
	}
	for i := range want {
		if addrs[i] != want[i] {
			t.Errorf("addrs[%d] = %s, want %s", i, addrs[i], want[i])
		}
	}

	for ip, n := range found {
		if n != 1 {
			t.Errorf("OnFound called %d times for %s, want 1", n, ip)
		}
	}

	if source.gotService != ServiceType || source.gotDomain != ServiceDomain {
		t.Errorf("browsed %s in %s, want %s in %s", source.gotService, source.gotDomain, ServiceType, ServiceDomain)
	}
}

func TestScanner_DiscoverEmpty(t *testing.T) {
	scanner := NewScanner()
	scanner.Source = &fakeSource{}

	addrs, err := scanner.Discover(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(addrs) != 0 {
		t.Errorf("Discover() = %v, want none", addrs)
	}
}

func TestScanner_DiscoverHonoursWindow(t *testing.T) {
	scanner := NewScanner()
	scanner.Source = &fakeSource{entries: []*zeroconf.ServiceEntry{wledEntry("porch", "192.168.1.40")}}

	start := time.Now()
	if _, err := scanner.Discover(context.Background(), 100*time.Millisecond); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 100*time.Millisecond {
		t.Errorf("Discover() returned after %v, before the window closed", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Discover() took %v, window not honoured", elapsed)
	}
}

func TestScanner_SourceError(t *testing.T) {
	scanner := NewScanner()
	scanner.Source = &fakeSource{err: errors.New("no multicast interface")}

	if _, err := scanner.Discover(context.Background(), time.Second); err == nil {
		t.Error("Discover() should return the source error")
	}
}

func TestScanner_ScanForDevices(t *testing.T) {
	scanner := NewScanner()
	scanner.Timeout = 50 * time.Millisecond
	scanner.Source = &fakeSource{entries: []*zeroconf.ServiceEntry{
		wledEntry("porch", "192.168.1.40", "mac=a0b1c2d3e4f5"),
		wledEntry("kitchen", "192.168.1.9"),
	}}

	devices, err := scanner.ScanForDevices(context.Background())
	if err != nil {
		t.Fatalf("ScanForDevices() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("ScanForDevices() returned %d devices, want 2", len(devices))
	}
	if devices[0].IP != "192.168.1.9" || devices[1].Name != "porch" {
		t.Errorf("devices = %v, %v", devices[0], devices[1])
	}
	if devices[1].MAC() != "a0b1c2d3e4f5" {
		t.Errorf("MAC() = %s, want a0b1c2d3e4f5", devices[1].MAC())
	}
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name: "IPv4 device",
			entry: &zeroconf.ServiceEntry{
				HostName: "wled-porch.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.40")},
				Text:     []string{"mac=a0b1c2d3e4f5"},
			},
			wantIP:   "192.168.1.40",
			wantPort: 80,
		},
		{
			name: "no port specified (should default to 80)",
			entry: &zeroconf.ServiceEntry{
				HostName: "wled-desk.local.",
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantIP:   "172.16.0.1",
			wantPort: 80,
		},
		{
			name: "empty hostname is still a device",
			entry: &zeroconf.ServiceEntry{
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantIP:   "192.168.1.1",
			wantPort: 80,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				HostName: "wled-porch.local.",
				Port:     80,
				AddrIPv4: []net.IP{},
				AddrIPv6: []net.IP{},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only device",
			entry: &zeroconf.ServiceEntry{
				HostName: "wled-attic.local.",
				Port:     80,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				HostName: "wled-hall.local.",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:   "192.168.1.50",
			wantPort: 8080,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}
			if device.Hostname != tt.entry.HostName {
				t.Errorf("device.Hostname = %v, want %v", device.Hostname, tt.entry.HostName)
			}
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "wled-porch.local.",
		Port:     80,
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.40")},
		Text:     []string{"mac=a0b1c2d3e4f5", "flag", "ver=0.15.0"},
	}

	device := parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	expectedMetadata := map[string]string{
		"mac":  "a0b1c2d3e4f5",
		"flag": "", // Key without value
		"ver":  "0.15.0",
	}

	if len(device.Metadata) != len(expectedMetadata) {
		t.Errorf("device.Metadata has %d entries, want %d", len(device.Metadata), len(expectedMetadata))
	}
	for key, expectedValue := range expectedMetadata {
		if actualValue, ok := device.Metadata[key]; !ok {
			t.Errorf("device.Metadata missing key %q", key)
		} else if actualValue != expectedValue {
			t.Errorf("device.Metadata[%q] = %q, want %q", key, actualValue, expectedValue)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
	if scanner.Service != "_wled._tcp" || scanner.Domain != "local." {
		t.Errorf("scanner browses %s in %s", scanner.Service, scanner.Domain)
	}
	if _, ok := scanner.Source.(ZeroconfSource); !ok {
		t.Errorf("scanner.Source = %T, want ZeroconfSource", scanner.Source)
	}
}
