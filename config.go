package tpmtis

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the module configuration surface. All fields are read at
// driver construction and never change afterwards.
type Config struct {
	// Force skips PNP and ACPI enumeration and registers the single
	// static platform device instead.
	Force bool `yaml:"force,omitempty"`

	// ITPM forces the iTPM workaround regardless of device identity
	// (needed on some Lenovo laptops).
	ITPM bool `yaml:"itpm,omitempty"`

	// Interrupts enables interrupt-driven completion. Defaults to true;
	// a probe that finds no interrupt line turns it off at runtime.
	Interrupts *bool `yaml:"interrupts,omitempty"`

	// HID is one additional device identity to probe, appended to the
	// built-in identity tables.
	HID string `yaml:"hid,omitempty"`

	// Resource overrides the static register window used in forced
	// mode.
	Resource *ResourceConfig `yaml:"resource,omitempty"`

	// Sysfs overrides, mainly for testing against a staged tree.
	PNPRoot       string `yaml:"pnpRoot,omitempty"`
	ACPIRoot      string `yaml:"acpiRoot,omitempty"`
	ACPITablePath string `yaml:"acpiTablePath,omitempty"`

	// Debug enables debug logging in the bundled CLI.
	Debug bool `yaml:"debug,omitempty"`
}

// ResourceConfig describes a static register window.
type ResourceConfig struct {
	Base   uint64 `yaml:"base"`
	Length uint64 `yaml:"length"`
	IRQ    uint32 `yaml:"irq,omitempty"`
}

// LoadConfig reads a yaml configuration file. A missing file is not an
// error: the defaults apply.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.normalize()
			return cfg, nil
		}
		return cfg, fmt.Errorf("tpmtis: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("tpmtis: parse config %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Interrupts == nil {
		enabled := true
		c.Interrupts = &enabled
	}
}

func (c *Config) validate() error {
	// Bus identity strings are at most seven characters plus the
	// terminator in the identity tables.
	if len(c.HID) > 7 {
		return fmt.Errorf("tpmtis: hid %q is longer than 7 characters", c.HID)
	}
	for _, r := range c.HID {
		if r < 0x20 || r > 0x7e {
			return fmt.Errorf("tpmtis: hid %q contains non-printable characters", c.HID)
		}
	}
	if strings.TrimSpace(c.HID) != c.HID {
		return fmt.Errorf("tpmtis: hid %q has surrounding whitespace", c.HID)
	}
	if c.Resource != nil && c.Resource.Length == 0 {
		return fmt.Errorf("tpmtis: resource override has zero length")
	}
	return nil
}
