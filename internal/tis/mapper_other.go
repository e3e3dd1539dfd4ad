//go:build !linux

package tis

import (
	"fmt"

	"github.com/tinyrange/tpmtis/internal/mmio"
)

func defaultWindowMapper(base, length uint64) (mmio.Window, error) {
	return nil, fmt.Errorf("tis: physical register windows are only supported on linux (0x%x+0x%x)", base, length)
}
