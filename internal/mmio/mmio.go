// Package mmio provides width-aware access to memory-mapped register
// windows. A Window is the only path to a device's registers: the chip
// that owns a window holds it exclusively for its whole lifetime.
package mmio

import "unsafe"

// Access widths understood by ReadBytes and WriteBytes. Any other width
// degrades to a byte-at-a-time loop.
const (
	Width8  = 1
	Width16 = 2
	Width32 = 4
)

// Window is a contiguous mapped register range.
//
// Neither accessor reports errors. A mis-addressed access faults in the
// underlying mapping (slice bounds, or SIGBUS for /dev/mem), which is a
// fatal condition rather than something this layer retries. Accesses are
// issued in call order and are never buffered or coalesced.
type Window interface {
	// ReadBytes fills data from the register at off. Width32 and Width16
	// perform exactly one native access; Width8 with len(data) == 1
	// performs one 8-bit access. Every other combination performs
	// len(data) sequential single-byte accesses at the same offset,
	// which is what FIFO registers expect.
	ReadBytes(off uint32, data []byte, width int)

	// WriteBytes applies data to the register at off with the same
	// width dispatch as ReadBytes.
	WriteBytes(off uint32, data []byte, width int)

	// Close releases the mapping. The window must not be used afterwards.
	Close() error
}

type window struct {
	mem   []byte
	unmap func() error
}

// NewSlice returns a Window backed by mem. Writes are visible to later
// reads, so a slice window behaves like a register file that echoes
// writes. It is used for simulated devices and tests.
func NewSlice(mem []byte) Window {
	return &window{mem: mem}
}

func (w *window) ReadBytes(off uint32, data []byte, width int) {
	switch {
	case width == Width32:
		// The unsafe loads below do no bounds checking of their own;
		// fault here before an access can leave the window.
		_, _ = w.mem[off+3], data[3]
		v := *(*uint32)(unsafe.Pointer(&w.mem[off]))
		*(*uint32)(unsafe.Pointer(&data[0])) = v
	case width == Width16:
		_, _ = w.mem[off+1], data[1]
		v := *(*uint16)(unsafe.Pointer(&w.mem[off]))
		*(*uint16)(unsafe.Pointer(&data[0])) = v
	case width == Width8 && len(data) == 1:
		data[0] = w.load8(off)
	default:
		for i := range data {
			data[i] = w.load8(off)
		}
	}
}

func (w *window) WriteBytes(off uint32, data []byte, width int) {
	switch {
	case width == Width32:
		_, _ = w.mem[off+3], data[3]
		v := *(*uint32)(unsafe.Pointer(&data[0]))
		*(*uint32)(unsafe.Pointer(&w.mem[off])) = v
	case width == Width16:
		_, _ = w.mem[off+1], data[1]
		v := *(*uint16)(unsafe.Pointer(&data[0]))
		*(*uint16)(unsafe.Pointer(&w.mem[off])) = v
	case width == Width8 && len(data) == 1:
		w.store8(off, data[0])
	default:
		for i := range data {
			w.store8(off, data[i])
		}
	}
}

func (w *window) Close() error {
	if w.unmap != nil {
		return w.unmap()
	}
	return nil
}

func (w *window) load8(off uint32) byte {
	return *(*byte)(unsafe.Pointer(&w.mem[off]))
}

func (w *window) store8(off uint32, v byte) {
	*(*byte)(unsafe.Pointer(&w.mem[off])) = v
}
