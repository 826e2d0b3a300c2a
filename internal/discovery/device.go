package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Device represents a WLED controller discovered on the network
type Device struct {
	// Name is the mDNS instance name (the WLED "server description", e.g. "Porch")
	Name string

	// Hostname is the mDNS hostname (e.g., "wled-porch.local.")
	Hostname string

	// IP is the device address; IPv4 when the device advertises one
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the mDNS TXT record data
	// WLED publishes "mac=<12 hex digits>"
	Metadata map[string]string

	// DiscoveredAt is when the device was first seen
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	name := d.Name
	if name == "" {
		name = strings.TrimSuffix(d.Hostname, ".")
	}
	return fmt.Sprintf("WLED %s at %s", name, net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// MAC returns the MAC address advertised in the TXT record, if any
func (d *Device) MAC() string {
	return d.GetMetadata("mac")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
