// Package tis implements the chip side of the TPM Interface
// Specification driver: the normalized resource descriptor produced by
// the discovery backends, quirk classification, and the attach/detach
// lifecycle that binds a chip to its register window and hands it to
// the protocol layer.
//
// The TPM command/response protocol itself is an external collaborator,
// consumed through the Protocol interface. Nothing in this package
// polls status registers or moves FIFO data.
package tis

import "errors"

// Bus identity strings with special meaning to the quirk classifier.
const (
	// ITPMID marks Intel TPMs that need the iTPM timing workaround.
	ITPMID = "INTC0102"

	// TPM2HID is the TPM 2.0 ACPI identity. Devices reporting it must
	// have their start method confirmed via the TPM2 table before the
	// FIFO interface may be assumed.
	TPM2HID = "MSFT0101"
)

// Status register bits consumed by the fixed operation table.
const (
	StatusValid     uint8 = 0x80
	StatusDataAvail uint8 = 0x10
)

var (
	// ErrNoDevice reports that a probed device does not expose an
	// interface this driver supports. The probe aborts without
	// constructing a chip.
	ErrNoDevice = errors.New("tis: no such device")

	// ErrUnsupportedStartMethod reports a TPM 2.0 device whose TPM2
	// table declares a transfer mode other than FIFO. Probing wraps it
	// in ErrNoDevice.
	ErrUnsupportedStartMethod = errors.New("tis: unsupported start method")

	// ErrIO reports a failure to map the device's register window.
	ErrIO = errors.New("tis: I/O error")

	// ErrNoMemory reports a failed chip allocation.
	ErrNoMemory = errors.New("tis: out of memory")

	// ErrChipRegistered reports a second attach for the same device key.
	ErrChipRegistered = errors.New("tis: chip already registered")

	// ErrChipNotFound reports a detach or lookup for a device key with
	// no associated chip.
	ErrChipNotFound = errors.New("tis: no chip for device")
)
