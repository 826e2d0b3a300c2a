package discovery

import (
	"net/netip"
	"sort"
	"sync"
)

// Collector is the set of devices seen during one discovery window, keyed by
// address. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	devices map[string]*Device
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{devices: make(map[string]*Device)}
}

// Add records a device and reports whether its address was new. Repeated
// advertisements for the same address keep the first record.
func (c *Collector) Add(d *Device) bool {
	if d == nil || d.IP == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.devices[d.IP]; ok {
		return false
	}
	c.devices[d.IP] = d
	return true
}

// Len returns the number of distinct addresses
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.devices)
}

// Addresses returns the distinct addresses in ascending order
func (c *Collector) Addresses() []string {
	c.mu.Lock()
	addrs := make([]string, 0, len(c.devices))
	for ip := range c.devices {
		addrs = append(addrs, ip)
	}
	c.mu.Unlock()

	SortAddresses(addrs)
	return addrs
}

// Devices returns the collected devices ordered by address
func (c *Collector) Devices() []*Device {
	addrs := c.Addresses()

	c.mu.Lock()
	defer c.mu.Unlock()
	devices := make([]*Device, 0, len(addrs))
	for _, ip := range addrs {
		devices = append(devices, c.devices[ip])
	}
	return devices
}

// SortAddresses sorts IP literals numerically, IPv4 before IPv6. Strings that
// do not parse as addresses sort after all addresses, lexically.
func SortAddresses(addrs []string) {
	sort.SliceStable(addrs, func(i, j int) bool {
		a, errA := netip.ParseAddr(addrs[i])
		b, errB := netip.ParseAddr(addrs[j])
		switch {
		case errA == nil && errB == nil:
			return a.Less(b)
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return addrs[i] < addrs[j]
		}
	})
}
