// Package discovery finds OpenKarotz rabbits on the local network.
//
// Rabbits do not advertise a dedicated mDNS service; their web server shows
// up as a generic "_http._tcp" service. Discovery therefore runs in two
// steps:
//  1. Browse "_http._tcp" in "local." until the scan timeout
//  2. Probe each candidate's /cgi-bin/status and keep those that answer
//     with a parseable Karotz status
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	devices, err := scanner.ScanForDevices(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, device := range devices {
//	    fmt.Println(device)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Rabbits must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
