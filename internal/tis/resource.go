package tis

import "fmt"

// Default register window for a TIS chip when the bus reports nothing
// better. 0xFED40000 is the architectural TIS base; the window spans the
// five locality pages.
const (
	DefaultMemBase = 0xFED40000
	DefaultMemLen  = 0x5000
)

// Resource describes a device's memory window and interrupt line. One
// Resource is built per probe attempt and consumed exactly once by
// Manager.Attach; resources are never shared between devices.
//
// IRQ 0 means no interrupt line: the chip runs in polling mode.
type Resource struct {
	Base   uint64
	Length uint64
	IRQ    uint32
}

// DefaultResource returns the static TIS window with no interrupt line.
func DefaultResource() Resource {
	return Resource{Base: DefaultMemBase, Length: DefaultMemLen}
}

// Validate checks the invariant that Base and Length describe a single
// contiguous, non-empty window.
func (r Resource) Validate() error {
	if r.Length == 0 {
		return fmt.Errorf("tis: empty register window at 0x%x", r.Base)
	}
	if r.Base+r.Length < r.Base {
		return fmt.Errorf("tis: register window 0x%x+0x%x overflows", r.Base, r.Length)
	}
	return nil
}

// HasIRQ reports whether the resource carries an interrupt line.
func (r Resource) HasIRQ() bool {
	return r.IRQ != 0
}

func (r Resource) String() string {
	if !r.HasIRQ() {
		return fmt.Sprintf("mem 0x%x+0x%x polled", r.Base, r.Length)
	}
	return fmt.Sprintf("mem 0x%x+0x%x irq %d", r.Base, r.Length, r.IRQ)
}
