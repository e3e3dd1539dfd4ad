package bus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default sysfs roots for the two enumerated buses.
const (
	DefaultPNPRoot  = "/sys/bus/pnp/devices"
	DefaultACPIRoot = "/sys/bus/acpi/devices"
)

// SysfsPNPEnumerator enumerates PNP devices from sysfs. Each device
// directory carries an "id" file (one identity per line), a "resources"
// file in the mem/irq line format, and optionally a firmware_node
// directory describing the ACPI companion.
type SysfsPNPEnumerator struct {
	Root string
}

func (e *SysfsPNPEnumerator) Devices() ([]Device, error) {
	root := e.Root
	if root == "" {
		root = DefaultPNPRoot
	}
	return listSysfsDevices(root, false)
}

// SysfsACPIEnumerator enumerates ACPI devices from sysfs. Each device
// directory carries "hid" and "path" files. Raw _CRS resources are not
// exposed through sysfs, so ACPI devices report an empty resource list
// and fall back to the default TIS window.
type SysfsACPIEnumerator struct {
	Root string
}

func (e *SysfsACPIEnumerator) Devices() ([]Device, error) {
	root := e.Root
	if root == "" {
		root = DefaultACPIRoot
	}
	return listSysfsDevices(root, true)
}

func listSysfsDevices(root string, acpi bool) ([]Device, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("bus: enumerate %s: %w", root, err)
	}

	devices := make([]Device, 0, len(entries))
	for _, entry := range entries {
		devices = append(devices, &sysfsDevice{
			dir:  filepath.Join(root, entry.Name()),
			key:  entry.Name(),
			acpi: acpi,
		})
	}
	return devices, nil
}

type sysfsDevice struct {
	dir  string
	key  string
	acpi bool
}

func (d *sysfsDevice) Key() string { return d.key }

func (d *sysfsDevice) IDs() []string {
	if d.acpi {
		return readLines(filepath.Join(d.dir, "hid"))
	}
	return readLines(filepath.Join(d.dir, "id"))
}

func (d *sysfsDevice) CompanionIDs() []string {
	if d.acpi {
		return nil
	}
	return readLines(filepath.Join(d.dir, "firmware_node", "hid"))
}

func (d *sysfsDevice) ACPIHandle() string {
	path := filepath.Join(d.dir, "path")
	if !d.acpi {
		path = filepath.Join(d.dir, "firmware_node", "path")
	}
	lines := readLines(path)
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

func (d *sysfsDevice) Resources() ([]RawResource, error) {
	if d.acpi {
		return nil, nil
	}
	raw, err := os.ReadFile(filepath.Join(d.dir, "resources"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("bus: read resources for %q: %w", d.key, err)
	}
	return ParseSysfsResources(string(raw))
}

func readLines(path string) []string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
