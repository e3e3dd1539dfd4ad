package bus

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/tinyrange/tpmtis/internal/acpitab"
	"github.com/tinyrange/tpmtis/internal/tis"
)

// ErrBackendActive reports a second activation of an already-active
// backend.
var ErrBackendActive = errors.New("bus: backend already active")

// busBackend is the shared core of the PNP and ACPI adapters: register
// with the bus (enumerate), probe every device matching the identity
// table, and on deactivation detach exactly the chips this backend
// attached, in reverse order.
type busBackend struct {
	name  string
	enum  Enumerator
	mgr   *tis.Manager
	state *State
	log   *slog.Logger

	idTable []string
	userID  string

	// probe builds the resource descriptor and quirks for one device
	// and attaches it; backend-specific.
	probe func(dev Device) error

	active   bool
	attached []string
}

func (b *busBackend) Name() string { return b.name }

// Activate registers the backend with its bus framework. Enumeration
// failure is a registration failure: the backend stays inactive and no
// device is probed. A failed probe of a single device is logged and
// skipped; other devices and the activation itself are unaffected.
func (b *busBackend) Activate() error {
	if b.active {
		return fmt.Errorf("%w: %s", ErrBackendActive, b.name)
	}
	if b.enum == nil {
		return fmt.Errorf("bus: %s backend has no enumerator", b.name)
	}

	devices, err := b.enum.Devices()
	if err != nil {
		return fmt.Errorf("bus: register %s backend: %w", b.name, err)
	}
	b.active = true

	for _, dev := range devices {
		if !matchIdentity(dev.IDs(), b.idTable, b.userID) {
			continue
		}
		if err := b.probe(dev); err != nil {
			b.log.Warn("probe failed", "backend", b.name, "device", dev.Key(), "err", err)
			continue
		}
		b.attached = append(b.attached, dev.Key())
	}
	return nil
}

// Deactivate detaches the chips this backend attached, most recent
// first, then unregisters from the bus. Detach errors do not stop the
// teardown; they are aggregated and reported at the end.
func (b *busBackend) Deactivate() error {
	if !b.active {
		return nil
	}

	var errs *multierror.Error
	for i := len(b.attached) - 1; i >= 0; i-- {
		if err := b.mgr.DetachKey(b.attached[i]); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("bus: %s remove %q: %w", b.name, b.attached[i], err))
		}
	}
	b.attached = nil
	b.active = false
	return errs.ErrorOrNil()
}

// NewPNPBackend builds the Plug-and-Play adapter. tables may be nil on
// platforms without ACPI; it is used only to classify the device's
// firmware companion.
func NewPNPBackend(enum Enumerator, mgr *tis.Manager, state *State, userHID string, log *slog.Logger) Backend {
	if log == nil {
		log = slog.Default()
	}
	b := &busBackend{
		name:    "pnp",
		enum:    enum,
		mgr:     mgr,
		state:   state,
		log:     log,
		idTable: pnpIDTable,
		userID:  userHID,
	}
	b.probe = func(dev Device) error {
		raw, err := dev.Resources()
		if err != nil {
			return fmt.Errorf("bus: pnp resources for %q: %w", dev.Key(), err)
		}
		res := ScanResources(tis.DefaultResource(), raw)
		if !res.HasIRQ() {
			state.DisableInterrupts()
		}

		q := tis.Quirks{
			ITPM:       state.ITPMForced() || tis.IsITPM(dev.CompanionIDs()),
			Interrupts: state.InterruptsAllowed() && res.HasIRQ(),
		}
		_, err = mgr.Attach(dev.Key(), res, q, dev.ACPIHandle())
		return err
	}
	return b
}

// NewACPIBackend builds the ACPI adapter. Devices whose TPM2 table
// declares a non-FIFO start method are rejected with tis.ErrNoDevice
// before any chip state is built.
func NewACPIBackend(enum Enumerator, mgr *tis.Manager, state *State, tables acpitab.Source, userID string, log *slog.Logger) Backend {
	if log == nil {
		log = slog.Default()
	}
	b := &busBackend{
		name:    "acpi",
		enum:    enum,
		mgr:     mgr,
		state:   state,
		log:     log,
		idTable: acpiIDTable,
		userID:  userID,
	}
	b.probe = func(dev Device) error {
		if err := tis.SupportsFIFO(dev.IDs(), tables); err != nil {
			return err
		}

		raw, err := dev.Resources()
		if err != nil {
			return fmt.Errorf("bus: acpi resources for %q: %w", dev.Key(), err)
		}
		res := ScanResources(tis.DefaultResource(), raw)
		if !res.HasIRQ() {
			state.DisableInterrupts()
		}

		q := tis.Quirks{
			ITPM:       state.ITPMForced() || tis.IsITPM(dev.IDs()),
			Interrupts: state.InterruptsAllowed() && res.HasIRQ(),
		}
		_, err = mgr.Attach(dev.Key(), res, q, dev.ACPIHandle())
		return err
	}
	return b
}
