package tis

import (
	"fmt"

	"github.com/tinyrange/tpmtis/internal/acpitab"
)

// Quirks are a device's operating parameters, computed once at probe
// time from its bus identities and (for ACPI-sourced probes) the TPM2
// table. They are passed by value into Attach and immutable for the
// lifetime of the chip.
type Quirks struct {
	// ITPM selects the timing workaround for Intel TPMs with
	// non-compliant status signaling.
	ITPM bool

	// Interrupts permits interrupt-driven completion. False forces
	// polling mode.
	Interrupts bool
}

// IsITPM reports whether any of the device's identities names the Intel
// TPM that needs the iTPM workaround.
func IsITPM(ids []string) bool {
	for _, id := range ids {
		if id == ITPMID {
			return true
		}
	}
	return false
}

// SupportsFIFO decides whether the device exposes the FIFO register
// interface. Identities other than the TPM 2.0 HID are FIFO by
// definition (TPM 1.2). For TPM 2.0 the platform's TPM2 table is
// consulted: a missing or unreadable table fails closed, and any start
// method other than FIFO means the device speaks an interface this
// driver does not implement. Both cases abort the probe with
// ErrNoDevice.
//
// A nil table source means the platform has no ACPI subsystem; the
// TPM 2.0 ambiguity cannot arise there, so FIFO is assumed.
func SupportsFIFO(ids []string, tables acpitab.Source) error {
	if tables == nil {
		return nil
	}

	tpm2 := false
	for _, id := range ids {
		if id == TPM2HID {
			tpm2 = true
			break
		}
	}
	if !tpm2 {
		return nil
	}

	tbl, err := tables.TPM2()
	if err != nil {
		return fmt.Errorf("tis: TPM2 table lookup failed (%v): %w", err, ErrNoDevice)
	}
	if tbl.StartMethod != acpitab.StartMethodFIFO {
		return fmt.Errorf("%w (%d): %w", ErrUnsupportedStartMethod, tbl.StartMethod, ErrNoDevice)
	}
	return nil
}
