package tpmtis

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Force || cfg.ITPM || cfg.HID != "" {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.Interrupts == nil || !*cfg.Interrupts {
		t.Fatalf("interrupts should default to enabled")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tpmtis.yaml")
	content := `force: true
itpm: true
interrupts: false
hid: VEN0001
resource:
  base: 0x90000000
  length: 0x5000
  irq: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Force || !cfg.ITPM || cfg.HID != "VEN0001" {
		t.Fatalf("config: %+v", cfg)
	}
	if cfg.Interrupts == nil || *cfg.Interrupts {
		t.Fatalf("explicit interrupts: false was not preserved")
	}
	if cfg.Resource == nil || cfg.Resource.Base != 0x90000000 || cfg.Resource.IRQ != 10 {
		t.Fatalf("resource override: %+v", cfg.Resource)
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tpmtis.yaml")
	if err := os.WriteFile(path, []byte("force: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
}

func TestConfigValidateHID(t *testing.T) {
	for _, hid := range []string{"TOOLONGID", "VEN\x01", " VEN0001"} {
		cfg := Config{HID: hid}
		cfg.normalize()
		if err := cfg.validate(); err == nil {
			t.Fatalf("hid %q accepted", hid)
		}
	}

	cfg := Config{HID: "VEN0001"}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		t.Fatalf("valid hid rejected: %v", err)
	}
}

func TestConfigValidateResource(t *testing.T) {
	cfg := Config{Resource: &ResourceConfig{Base: 0xfed40000}}
	cfg.normalize()
	if err := cfg.validate(); err == nil {
		t.Fatalf("zero-length resource accepted")
	}
}
