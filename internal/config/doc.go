// Package config manages the karotzctl registry of known rabbits.
//
// The registry is a YAML file that maps user-chosen names to rabbit
// addresses, plus a few preferences (default device, default voice, cache
// lifetime). It follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/karotz/config.yaml or $HOME/.config/karotz/config.yaml
//   - macOS: $HOME/.config/karotz/config.yaml
//   - Windows: %LOCALAPPDATA%\karotz\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = registry.AddDevice("salon", &config.Device{Host: "192.168.1.20"}, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File writes are protected by a mutex and go through a temp file and rename.
package config
