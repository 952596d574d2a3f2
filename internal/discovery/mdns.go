package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/wulfaz/karotzctl/internal/karotz"
	"github.com/wulfaz/karotzctl/internal/logging"
)

const (
	// ServiceType is the mDNS service type browsed for rabbits.
	// OpenKarotz runs a plain web server, so it shows up as "_http._tcp".
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultProbeTimeout bounds each /status probe
	DefaultProbeTimeout = 3 * time.Second
)

// ProbeFunc decides whether a candidate is a rabbit and may fill in
// details learned while checking.
type ProbeFunc func(ctx context.Context, device *Device) bool

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for mDNS answers
	Timeout time.Duration

	// ProbeTimeout bounds each candidate check
	ProbeTimeout time.Duration

	// Probe confirms candidates; ProbeKarotz when nil
	Probe ProbeFunc
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout:      DefaultScanTimeout,
		ProbeTimeout: DefaultProbeTimeout,
		Probe:        ProbeKarotz,
	}
}

// ScanForDevices browses mDNS until the timeout and returns the
// candidates that answered the probe like a rabbit.
func (s *Scanner) ScanForDevices(ctx context.Context) ([]*Device, error) {
	candidates, err := s.browse(ctx)
	if err != nil {
		return nil, err
	}
	logging.Debug("mDNS browse finished", zap.Int("candidates", len(candidates)))
	return s.Confirm(ctx, candidates), nil
}

// browse collects unique _http._tcp services until the timeout
func (s *Scanner) browse(ctx context.Context) ([]*Device, error) {
	browseCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu      sync.Mutex
		seen    = make(map[string]bool)
		devices []*Device
	)
	go func() {
		for entry := range entries {
			device := s.parseServiceEntry(entry)
			if device == nil {
				continue
			}
			mu.Lock()
			if !seen[device.Address()] {
				seen[device.Address()] = true
				devices = append(devices, device)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(browseCtx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-browseCtx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Device(nil), devices...), nil
}

// Confirm probes every candidate in parallel and keeps the ones the
// probe accepts, in their original order.
func (s *Scanner) Confirm(ctx context.Context, candidates []*Device) []*Device {
	probe := s.Probe
	if probe == nil {
		probe = ProbeKarotz
	}
	timeout := s.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	ok := make([]bool, len(candidates))
	var wg sync.WaitGroup
	for i, device := range candidates {
		wg.Add(1)
		go func(i int, device *Device) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			ok[i] = probe(probeCtx, device)
		}(i, device)
	}
	wg.Wait()

	confirmed := make([]*Device, 0, len(candidates))
	for i, device := range candidates {
		if ok[i] {
			confirmed = append(confirmed, device)
		} else {
			logging.Debug("Not a Karotz", zap.String("address", device.Address()))
		}
	}
	return confirmed
}

// ProbeKarotz accepts a device whose /status looks like a JSON object and
// parses into a known sleep state.
func ProbeKarotz(ctx context.Context, device *Device) bool {
	client := karotz.NewClientWithURL(device.BaseURL())
	if !client.IsOnline(ctx) {
		return false
	}

	state, err := client.GetStatus(ctx)
	if err != nil || state.Status == karotz.StatusUnknown {
		return false
	}

	device.Version = state.Version.String()
	device.WLANMAC = state.WLANMAC
	return true
}

// parseServiceEntry converts a zeroconf service entry to a candidate
// Device. Returns nil if the entry has no usable address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = karotz.DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	name := entry.Instance
	if name == "" {
		name = strings.TrimSuffix(strings.TrimSuffix(entry.HostName, "."), ".local")
	}

	return &Device{
		Name:         name,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
