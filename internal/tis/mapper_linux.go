package tis

import "github.com/tinyrange/tpmtis/internal/mmio"

func defaultWindowMapper(base, length uint64) (mmio.Window, error) {
	return mmio.MapDevMem(base, length)
}
