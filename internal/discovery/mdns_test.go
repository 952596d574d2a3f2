package discovery

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "rabbit with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "karotz"},
				HostName:      "karotz.local.",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
				Text:          []string{"path=/"},
			},
			wantName: "karotz",
			wantIP:   "192.168.1.20",
			wantPort: 80,
		},
		{
			name: "no instance name falls back to hostname",
			entry: &zeroconf.ServiceEntry{
				HostName: "lapin.local.",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantName: "lapin",
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name: "no port specified (should default to 80)",
			entry: &zeroconf.ServiceEntry{
				HostName: "karotz.local",
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantName: "karotz",
			wantIP:   "172.16.0.1",
			wantPort: 80,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				HostName: "karotz.local",
				Port:     80,
			},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "karotz.local",
				Port:     80,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantName: "karotz",
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				HostName: "karotz.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantName: "karotz",
			wantIP:   "192.168.1.50",
			wantPort: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if device.Name != tt.wantName {
				t.Errorf("device.Name = %v, want %v", device.Name, tt.wantName)
			}
			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := &zeroconf.ServiceEntry{
		HostName: "karotz.local",
		Port:     80,
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")},
		Text:     []string{"path=/", "flag", "version=1.0"},
	}

	device := scanner.parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	expected := map[string]string{"path": "/", "flag": "", "version": "1.0"}
	for key, want := range expected {
		if got := device.GetMetadata(key); got != want {
			t.Errorf("GetMetadata(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
	if scanner.Probe == nil {
		t.Error("scanner.Probe should default to ProbeKarotz")
	}
}

// httpCandidate serves body on /cgi-bin/status and returns a Device
// pointing at the server.
func httpCandidate(t *testing.T, body string) *Device {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/status" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	return &Device{Name: "candidate", IP: u.Hostname(), Port: port}
}

func TestProbeKarotz(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"awake rabbit", `{"version":"210","patch":"310","sleep":"0","led_color":"00FF00","led_pulse":"1","ears_disabled":"0","wlan_mac":"01:23:45:67:89:AB"}`, true},
		{"sleeping rabbit", `{"version":"200","sleep":"1","led_color":"000000","ears_disabled":"0"}`, true},
		{"other JSON API", `{"name":"printer"}`, false},
		{"html page", `<html><body>router</body></html>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := httpCandidate(t, tt.body)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if got := ProbeKarotz(ctx, device); got != tt.want {
				t.Errorf("ProbeKarotz() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbeKarotz_FillsDetails(t *testing.T) {
	device := httpCandidate(t, `{"version":"210","patch":"310","sleep":"0","led_color":"00FF00","ears_disabled":"0","wlan_mac":"01:23:45:67:89:AB"}`)

	if !ProbeKarotz(context.Background(), device) {
		t.Fatal("ProbeKarotz() = false")
	}
	if device.Version != "210 (patch 310)" {
		t.Errorf("Version = %q", device.Version)
	}
	if device.WLANMAC != "01:23:45:67:89:AB" {
		t.Errorf("WLANMAC = %q", device.WLANMAC)
	}
}

func TestScanner_Confirm(t *testing.T) {
	rabbit := httpCandidate(t, `{"sleep":"0","led_color":"00FF00","ears_disabled":"0"}`)
	printer := httpCandidate(t, `{"model":"LaserJet"}`)
	rabbit2 := httpCandidate(t, `{"sleep":"1","led_color":"000000","ears_disabled":"1"}`)

	scanner := NewScanner()
	confirmed := scanner.Confirm(context.Background(), []*Device{rabbit, printer, rabbit2})

	if len(confirmed) != 2 {
		t.Fatalf("Confirm() kept %d devices, want 2", len(confirmed))
	}
	if confirmed[0] != rabbit || confirmed[1] != rabbit2 {
		t.Error("Confirm() should keep candidate order")
	}
}

func TestScanner_ConfirmCustomProbe(t *testing.T) {
	scanner := &Scanner{
		Probe: func(ctx context.Context, d *Device) bool {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("probe context should carry a deadline")
			}
			return d.Port == 80
		},
	}

	confirmed := scanner.Confirm(context.Background(), []*Device{
		{IP: "192.168.1.20", Port: 80},
		{IP: "192.168.1.21", Port: 8080},
	})
	if len(confirmed) != 1 || confirmed[0].IP != "192.168.1.20" {
		t.Errorf("Confirm() = %v", confirmed)
	}
}
