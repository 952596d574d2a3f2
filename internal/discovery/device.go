package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device represents a rabbit found on the network
type Device struct {
	// Name is the mDNS instance name (e.g., "karotz")
	Name string

	// Hostname is the mDNS hostname (e.g., "karotz.local.")
	Hostname string

	// IP is the preferred address, IPv4 when one was advertised
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Version and WLANMAC come from the /status probe, not mDNS
	Version string
	WLANMAC string

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	if d.Version == "" {
		return fmt.Sprintf("Karotz %s (%s) at %s", d.Name, d.Hostname, d.Address())
	}
	return fmt.Sprintf("Karotz %s (%s) at %s, firmware %s", d.Name, d.Hostname, d.Address(), d.Version)
}

// Address returns host:port, bracketing IPv6 addresses
func (d *Device) Address() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + d.Address()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
