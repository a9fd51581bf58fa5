// Package target describes the machine a compilation is aimed at. The code
// generator needs the pointer width for IntPtr/UIntPtr lowering and for
// data-layout sizing of ADT payloads.
package target

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config selects the backend target.
type Config struct {
	// Triple is the LLVM target triple stamped on the emitted module.
	Triple string `yaml:"triple"`
	// PointerBits is the pointer width; 16, 32 or 64.
	PointerBits int `yaml:"pointer_bits"`
}

// Default is a 64-bit Linux target.
func Default() Config {
	return Config{
		Triple:      "x86_64-unknown-linux-gnu",
		PointerBits: 64,
	}
}

// Load reads a target configuration from a lyn.yaml file. Missing fields
// fall back to the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read target config %q", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse target config %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid target config %q", path)
	}
	return cfg, nil
}

// Validate rejects pointer widths the backend cannot address.
func (c Config) Validate() error {
	switch c.PointerBits {
	case 16, 32, 64:
		return nil
	}
	return errors.Errorf("unsupported pointer width %d bits", c.PointerBits)
}

// PointerBytes returns the pointer size in bytes.
func (c Config) PointerBytes() int { return c.PointerBits / 8 }
