package acpitab

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DefaultSysfsPath is where Linux exposes the raw TPM2 table.
const DefaultSysfsPath = "/sys/firmware/acpi/tables/TPM2"

// Source retrieves the platform's TPM2 table. A nil Source means the
// platform has no ACPI subsystem at all; callers treat that case as
// "FIFO supported, no quirks" because the TPM 2.0 start-method ambiguity
// cannot arise without ACPI.
type Source interface {
	TPM2() (*Table, error)
}

type fileSource struct {
	path string
}

// SysfsSource reads the TPM2 table from the ACPI sysfs tree. An empty
// path selects DefaultSysfsPath.
func SysfsSource(path string) Source {
	if path == "" {
		path = DefaultSysfsPath
	}
	return &fileSource{path: path}
}

func (s *fileSource) TPM2() (*Table, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotPresent
		}
		return nil, fmt.Errorf("acpitab: read %s: %w", s.path, err)
	}
	return Parse(raw)
}

// StaticSource serves a fixed table, or ErrNotPresent when nil. Used by
// tests and simulated platforms.
func StaticSource(t *Table) Source {
	return staticSource{t: t}
}

type staticSource struct {
	t *Table
}

func (s staticSource) TPM2() (*Table, error) {
	if s.t == nil {
		return nil, ErrNotPresent
	}
	return s.t, nil
}
