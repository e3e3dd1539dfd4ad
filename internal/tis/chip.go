package tis

import (
	"github.com/tinyrange/tpmtis/internal/mmio"
)

// Operations is the fixed operation table a chip is bound to at attach
// time. The protocol entries are supplied by the Protocol
// implementation; ReadBytes and WriteBytes are wired to the chip's
// register window and are the only way any component touches the
// mapped registers.
type Operations struct {
	Status         func(c *Chip) uint8
	Recv           func(c *Chip, buf []byte) (int, error)
	Send           func(c *Chip, buf []byte) (int, error)
	Cancel         func(c *Chip)
	UpdateTimeouts func(c *Chip) error
	ReqCanceled    func(c *Chip, status uint8) bool

	ReqCompleteMask uint8
	ReqCompleteVal  uint8

	ReadBytes  func(c *Chip, off uint32, data []byte, width int)
	WriteBytes func(c *Chip, off uint32, data []byte, width int)
}

// Protocol is the external protocol layer. Its entries populate the
// chip's operation table, and its Initialize/Remove pair brackets the
// chip's protocol-visible lifetime. Initialize is responsible for its
// own partial-initialization cleanup; Remove may assume no
// registry-visible operations are in flight.
type Protocol interface {
	Status(c *Chip) uint8
	Recv(c *Chip, buf []byte) (int, error)
	Send(c *Chip, buf []byte) (int, error)
	Cancel(c *Chip)
	UpdateTimeouts(c *Chip) error
	ReqCanceled(c *Chip, status uint8) bool

	Initialize(c *Chip, irq uint32, interruptsEnabled, itpm bool) error
	Remove(c *Chip)
}

// PowerManager is an optional side interface of the protocol layer for
// suspend/resume pass-through.
type PowerManager interface {
	Suspend(c *Chip) error
	Resume(c *Chip) error
}

// privState is the vendor-private block attached to every chip. It is
// scoped to the chip and released with it.
type privState struct {
	irq uint32
}

// Chip is one attached TPM device. It exclusively owns its register
// window for its entire lifetime.
type Chip struct {
	key        string
	res        Resource
	quirks     Quirks
	acpiHandle string

	win  mmio.Window
	ops  Operations
	priv *privState
}

// Key returns the device-association key the chip was attached under.
func (c *Chip) Key() string { return c.key }

// Resource returns the resource descriptor the chip was built from.
func (c *Chip) Resource() Resource { return c.res }

// Quirks returns the chip's immutable quirk flags.
func (c *Chip) Quirks() Quirks { return c.quirks }

// ACPIHandle returns the ACPI namespace path for ACPI-sourced chips,
// or "" when the chip did not come from ACPI.
func (c *Chip) ACPIHandle() string { return c.acpiHandle }

// Ops exposes the chip's fixed operation table.
func (c *Chip) Ops() *Operations { return &c.ops }

// ReadBytes performs a width-dispatched register read through the
// chip's window.
func (c *Chip) ReadBytes(off uint32, data []byte, width int) {
	c.win.ReadBytes(off, data, width)
}

// WriteBytes performs a width-dispatched register write through the
// chip's window.
func (c *Chip) WriteBytes(off uint32, data []byte, width int) {
	c.win.WriteBytes(off, data, width)
}
