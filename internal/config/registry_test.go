package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if filepath.Base(configDir) != "karotz" {
		t.Errorf("GetConfigDir() = %v, should end with 'karotz'", configDir)
	}

	if runtime.GOOS == "linux" && os.Getenv("XDG_CONFIG_HOME") == "" {
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join("/tmp/xdg-test", "karotz") {
		t.Errorf("GetConfigDir() = %v", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.Preferences.DefaultVoice != "1" {
		t.Errorf("DefaultVoice = %q, want \"1\"", reg.Preferences.DefaultVoice)
	}
	if reg.Preferences.StaleAfter() != 30*time.Second {
		t.Errorf("StaleAfter() = %v, want 30s", reg.Preferences.StaleAfter())
	}
}

func TestRegistryAddDevice(t *testing.T) {
	reg := NewRegistry()

	if err := reg.AddDevice("salon", &Device{Host: "192.168.1.20"}, false); err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}

	err := reg.AddDevice("salon", &Device{Host: "192.168.1.21"}, false)
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("duplicate AddDevice() error = %v, want ErrDeviceExists", err)
	}
	if reg.GetDevice("salon").Host != "192.168.1.20" {
		t.Error("duplicate AddDevice() must not overwrite")
	}

	if err := reg.AddDevice("salon", &Device{Host: "192.168.1.21"}, true); err != nil {
		t.Fatalf("AddDevice(replace) error = %v", err)
	}
	if reg.GetDevice("salon").Host != "192.168.1.21" {
		t.Error("AddDevice(replace) should overwrite")
	}
}

func TestRegistryAddDevice_Validation(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name   string
		device *Device
	}{
		{"", &Device{Host: "192.168.1.20"}},
		{"empty-host", &Device{}},
		{"bad-host", &Device{Host: "http://karotz/"}},
		{"bad-port", &Device{Host: "karotz.local", Port: 70000}},
	}

	for _, tt := range tests {
		if err := reg.AddDevice(tt.name, tt.device, false); err == nil {
			t.Errorf("AddDevice(%q) should fail", tt.name)
		}
	}
	if len(reg.Devices) != 0 {
		t.Errorf("invalid devices were registered: %v", reg.SortedNames())
	}
}

func TestDeviceAddress(t *testing.T) {
	host, port := (&Device{Host: "karotz.local"}).Address()
	if host != "karotz.local" || port != 80 {
		t.Errorf("Address() = %s:%d, want karotz.local:80", host, port)
	}

	_, port = (&Device{Host: "karotz.local", Port: 8080}).Address()
	if port != 8080 {
		t.Errorf("Address() port = %d, want 8080", port)
	}
}

func TestRegistryRemoveDevice(t *testing.T) {
	reg := NewRegistry()
	_ = reg.AddDevice("salon", &Device{Host: "192.168.1.20"}, false)
	_ = reg.SetDefaultDevice("salon")

	if err := reg.RemoveDevice("salon"); err != nil {
		t.Fatalf("RemoveDevice() error = %v", err)
	}
	if reg.GetDevice("salon") != nil {
		t.Error("device should be gone")
	}
	if reg.Preferences.DefaultDevice != "" {
		t.Error("removing the default device should clear the default")
	}

	if err := reg.RemoveDevice("salon"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("RemoveDevice(missing) error = %v", err)
	}
}

func TestRegistryResolveDevice(t *testing.T) {
	reg := NewRegistry()

	if _, _, err := reg.ResolveDevice(""); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("empty registry should not resolve: %v", err)
	}

	_ = reg.AddDevice("salon", &Device{Host: "192.168.1.20"}, false)

	name, device, err := reg.ResolveDevice("")
	if err != nil || name != "salon" || device.Host != "192.168.1.20" {
		t.Errorf("single device should resolve implicitly: %s %v %v", name, device, err)
	}

	_ = reg.AddDevice("bureau", &Device{Host: "192.168.1.21"}, false)
	if _, _, err := reg.ResolveDevice(""); err == nil {
		t.Error("two devices without default should not resolve")
	}

	if err := reg.SetDefaultDevice("bureau"); err != nil {
		t.Fatalf("SetDefaultDevice() error = %v", err)
	}
	name, _, err = reg.ResolveDevice("")
	if err != nil || name != "bureau" {
		t.Errorf("ResolveDevice(\"\") = %s, %v, want bureau", name, err)
	}

	name, _, err = reg.ResolveDevice("salon")
	if err != nil || name != "salon" {
		t.Errorf("ResolveDevice(salon) = %s, %v", name, err)
	}

	if _, _, err := reg.ResolveDevice("cuisine"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("ResolveDevice(cuisine) error = %v", err)
	}

	if err := reg.SetDefaultDevice("cuisine"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("SetDefaultDevice(cuisine) error = %v", err)
	}
}

func TestRegistryTouchDevice(t *testing.T) {
	reg := NewRegistry()
	_ = reg.AddDevice("salon", &Device{Host: "192.168.1.20"}, false)

	at := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	reg.TouchDevice("salon", at)
	reg.TouchDevice("unknown", at)

	if !reg.GetDevice("salon").LastSeen.Equal(at) {
		t.Errorf("LastSeen = %v, want %v", reg.GetDevice("salon").LastSeen, at)
	}
}

func TestRegistrySortedNames(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"salon", "bureau", "cuisine"} {
		_ = reg.AddDevice(name, &Device{Host: name + ".local"}, false)
	}

	got := strings.Join(reg.SortedNames(), ",")
	if got != "bureau,cuisine,salon" {
		t.Errorf("SortedNames() = %s", got)
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	_ = reg.AddDevice("salon", &Device{Host: "192.168.1.20", Port: 8080, Nickname: "Nabaztag"}, false)
	_ = reg.SetDefaultDevice("salon")
	reg.Preferences.DefaultVoice = "7"

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# karotzctl configuration file") {
		t.Errorf("saved file should start with header comment:\n%s", data)
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}

	device := loaded.GetDevice("salon")
	if device == nil {
		t.Fatal("Device should exist in loaded registry")
	}
	if device.Host != "192.168.1.20" || device.Port != 8080 || device.Nickname != "Nabaztag" {
		t.Errorf("loaded device = %+v", device)
	}
	if loaded.Preferences.DefaultDevice != "salon" || loaded.Preferences.DefaultVoice != "7" {
		t.Errorf("loaded preferences = %+v", loaded.Preferences)
	}
}

func TestLoadRegistryFrom_Missing(t *testing.T) {
	reg, err := LoadRegistryFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Version != 1 || len(reg.Devices) != 0 {
		t.Errorf("missing file should yield a default registry, got %+v", reg)
	}
}

func TestLoadRegistryFrom_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad version", "version: 2\n", "unsupported config version"},
		{"bad yaml", "version: [\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadRegistryFrom(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadRegistryFrom() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRegistryFrom_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Devices == nil || reg.Preferences == nil {
		t.Error("maps and preferences should be initialized")
	}
}

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}
