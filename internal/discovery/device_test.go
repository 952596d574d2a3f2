package discovery

import "testing"

func TestDevice_String(t *testing.T) {
	device := &Device{
		Name:     "karotz",
		Hostname: "karotz.local.",
		IP:       "192.168.1.20",
		Port:     80,
	}

	expected := "Karotz karotz (karotz.local.) at 192.168.1.20:80"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}

	device.Version = "210 (patch 310)"
	expected += ", firmware 210 (patch 310)"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}
}

func TestDevice_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		expected string
	}{
		{"standard HTTP port", &Device{IP: "192.168.1.20", Port: 80}, "http://192.168.1.20:80"},
		{"custom port", &Device{IP: "10.0.0.5", Port: 8080}, "http://10.0.0.5:8080"},
		{"IPv6", &Device{IP: "fe80::1", Port: 80}, "http://[fe80::1]:80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.BaseURL(); got != tt.expected {
				t.Errorf("Device.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDevice_GetMetadata(t *testing.T) {
	device := &Device{Metadata: map[string]string{"path": "/"}}

	if got := device.GetMetadata("path"); got != "/" {
		t.Errorf("GetMetadata(path) = %q", got)
	}
	if got := device.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q", got)
	}
	if got := (&Device{}).GetMetadata("path"); got != "" {
		t.Errorf("GetMetadata on nil map = %q", got)
	}
}
