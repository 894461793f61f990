package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration loaded from config.toml.
type Config struct {
	// DefaultDevice names the entry used when --device is not given.
	DefaultDevice string            `toml:"default_device,omitempty"`
	Devices       map[string]Device `toml:"devices"`
}

// Device describes one manageable device endpoint.
type Device struct {
	// Target is a serial device path, tcp:// address, or ws:// URL.
	Target string `toml:"target"`
	// Baud rate for serial targets. Zero means the default (115200).
	Baud int `toml:"baud,omitempty"`
}

var validDeviceName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateDeviceName checks that name is non-empty and contains only
// alphanumeric characters, hyphens, or underscores.
func ValidateDeviceName(name string) error {
	if name == "" || !validDeviceName.MatchString(name) {
		return fmt.Errorf("device name must be non-empty and alphanumeric (with - or _), got: %q", name)
	}
	return nil
}

// Load reads config.toml from dataDir and applies environment variable
// overrides. A missing file yields an empty (but usable) configuration.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, "config.toml")

	cfg := &Config{Devices: make(map[string]Device)}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if cfg.Devices == nil {
			cfg.Devices = make(map[string]Device)
		}
	}

	// Env overrides: CFGWIRE_TARGET injects an ad-hoc device entry,
	// CFGWIRE_DEVICE switches the default, CFGWIRE_BAUD overrides its rate.
	if target := os.Getenv("CFGWIRE_TARGET"); target != "" {
		dev := Device{Target: target}
		if baud := os.Getenv("CFGWIRE_BAUD"); baud != "" {
			b, err := strconv.Atoi(baud)
			if err != nil {
				return nil, fmt.Errorf("parsing CFGWIRE_BAUD: %w", err)
			}
			dev.Baud = b
		}
		cfg.Devices["env"] = dev
		cfg.DefaultDevice = "env"
	}
	if name := os.Getenv("CFGWIRE_DEVICE"); name != "" {
		cfg.DefaultDevice = name
	}

	for name := range cfg.Devices {
		if err := ValidateDeviceName(name); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Resolve returns the device entry for name, or the default entry when name
// is empty. A literal target (device path or URL) is accepted in place of a
// configured name.
func (c *Config) Resolve(name string) (string, Device, error) {
	if name == "" {
		name = c.DefaultDevice
	}
	if name == "" {
		return "", Device{}, fmt.Errorf("no device selected: pass --device or set default_device in config.toml")
	}
	if dev, ok := c.Devices[name]; ok {
		return name, dev, nil
	}
	// Not a configured name: treat it as a literal target.
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, "tcp://") ||
		strings.HasPrefix(name, "ws://") || strings.HasPrefix(name, "wss://") {
		return name, Device{Target: name}, nil
	}
	return "", Device{}, fmt.Errorf("unknown device %q", name)
}

// Save writes the configuration back to config.toml inside dataDir,
// creating the directory if necessary.
func (c *Config) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(dataDir, "config.toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config.toml: %w", err)
	}
	return nil
}
