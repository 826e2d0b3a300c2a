// Package discovery provides mDNS-based discovery of WLED controllers.
//
// WLED devices advertise the "_wled._tcp" service in the "local." domain. A
// Scanner browses for that service for a fixed window, deduplicates the
// advertisements by address and returns what it saw.
//
// # Discovery Process
//
//  1. A Source (ZeroconfSource in production) starts browsing and pushes
//     service entries into a channel
//  2. Each entry is resolved to an address, IPv4 preferred, and added to a
//     Collector; repeated advertisements are ignored
//  3. When the window elapses browsing is cancelled and the distinct
//     addresses are returned in ascending order
//
// There are no retries. An empty result is valid.
//
// # Usage Example
//
//	addrs, err := discovery.Discover(ctx, 3*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, ip := range addrs {
//	    fmt.Println(ip)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// Collector is safe for concurrent use. A Scanner can run several discovery
// windows concurrently; each gets its own Collector.
package discovery
