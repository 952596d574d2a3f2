package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wulfaz/karotzctl/internal/karotz"
)

// ErrDeviceNotFound is returned when a name matches no registered device
var ErrDeviceNotFound = errors.New("device not found in registry")

// ErrDeviceExists is returned by AddDevice when the name is taken
var ErrDeviceExists = errors.New("device already registered")

// Registry represents the entire user configuration file.
// It stores the rabbits the user has registered and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by user-chosen name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is one registered rabbit.
type Device struct {
	Host     string    `yaml:"host"`                // IP address or hostname
	Port     int       `yaml:"port,omitempty"`      // CGI port (0 means 80)
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last successful contact
}

// Address returns the host and port to dial, defaulting the port
func (d *Device) Address() (string, int) {
	if d.Port == 0 {
		return d.Host, karotz.DefaultPort
	}
	return d.Host, d.Port
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultDevice     string `yaml:"default_device,omitempty"` // Name used when --device is not given
	DefaultVoice      string `yaml:"default_voice,omitempty"`  // TTS voice id
	StaleAfterSeconds int    `yaml:"stale_after_seconds"`      // Cache lifetime (0 = until unknown)
	DiscoverTimeout   int    `yaml:"discover_timeout"`         // mDNS scan timeout in seconds
}

// StaleAfter returns the cache lifetime as a duration
func (p *Preferences) StaleAfter() time.Duration {
	return time.Duration(p.StaleAfterSeconds) * time.Second
}

func defaultPreferences() *Preferences {
	return &Preferences{
		DefaultVoice:      "1",
		StaleAfterSeconds: 30,
		DiscoverTimeout:   5,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

// GetDevice retrieves a device by name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// AddDevice registers a rabbit under name. An existing entry with the
// same name is only overwritten when replace is true.
func (r *Registry) AddDevice(name string, device *Device, replace bool) error {
	if name == "" {
		return fmt.Errorf("device name is required")
	}
	if err := karotz.ValidateHost(device.Host); err != nil {
		return err
	}
	if device.Port != 0 {
		if err := karotz.ValidatePort(device.Port); err != nil {
			return err
		}
	}

	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if _, exists := r.Devices[name]; exists && !replace {
		return fmt.Errorf("%w: %s", ErrDeviceExists, name)
	}

	r.Devices[name] = device
	return nil
}

// RemoveDevice deletes a device and clears it as the default
func (r *Registry) RemoveDevice(name string) error {
	if _, exists := r.Devices[name]; !exists {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	delete(r.Devices, name)

	if r.Preferences != nil && r.Preferences.DefaultDevice == name {
		r.Preferences.DefaultDevice = ""
	}
	return nil
}

// SetDefaultDevice makes name the device used when none is given
func (r *Registry) SetDefaultDevice(name string) error {
	if _, exists := r.Devices[name]; !exists {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	r.Preferences.DefaultDevice = name
	return nil
}

// ResolveDevice finds the device to talk to.
// An empty name selects the default device, or the only device if exactly
// one is registered.
func (r *Registry) ResolveDevice(name string) (string, *Device, error) {
	if name == "" {
		if r.Preferences != nil && r.Preferences.DefaultDevice != "" {
			name = r.Preferences.DefaultDevice
		} else if len(r.Devices) == 1 {
			for only := range r.Devices {
				name = only
			}
		} else {
			return "", nil, fmt.Errorf("%w: no device given and no default set", ErrDeviceNotFound)
		}
	}

	device, ok := r.Devices[name]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	return name, device, nil
}

// TouchDevice records a successful contact with the device.
func (r *Registry) TouchDevice(name string, at time.Time) {
	if device, ok := r.Devices[name]; ok {
		device.LastSeen = at
	}
}

// SortedNames returns the registered device names in order
func (r *Registry) SortedNames() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
