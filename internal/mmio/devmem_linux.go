package mmio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MapDevMem maps the physical window [base, base+length) through
// /dev/mem and returns it as a Window. The mapping is page-granular;
// base does not have to be page-aligned.
func MapDevMem(base, length uint64) (Window, error) {
	if length == 0 {
		return nil, fmt.Errorf("mmio: zero-length window at 0x%x", base)
	}

	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("mmio: open /dev/mem: %w", err)
	}
	defer f.Close()

	pageSize := uint64(unix.Getpagesize())
	pageBase := base &^ (pageSize - 1)
	skew := base - pageBase

	mem, err := unix.Mmap(
		int(f.Fd()),
		int64(pageBase),
		int(skew+length),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("mmio: map 0x%x+0x%x: %w", base, length, err)
	}

	return &window{
		mem: mem[skew : skew+length],
		unmap: func() error {
			return unix.Munmap(mem)
		},
	}, nil
}
