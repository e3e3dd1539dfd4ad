package bus

import (
	"fmt"
	"log/slog"

	"github.com/tinyrange/tpmtis/internal/tis"
)

// PlatformDeviceKey is the association key of the single static device
// created by the forced backend.
const PlatformDeviceKey = "tpm_tis"

// platformBackend is the forced registration path: no enumeration, one
// static device probed against fixed resource values. It exists for
// platforms whose firmware advertises no TPM despite one being present.
type platformBackend struct {
	mgr   *tis.Manager
	state *State
	res   tis.Resource
	log   *slog.Logger

	driverRegistered bool
	deviceCreated    bool
	active           bool
}

// NewPlatformBackend builds the forced static backend. res is usually
// tis.DefaultResource, optionally overridden by configuration.
func NewPlatformBackend(mgr *tis.Manager, state *State, res tis.Resource, log *slog.Logger) Backend {
	if log == nil {
		log = slog.Default()
	}
	return &platformBackend{mgr: mgr, state: state, res: res, log: log}
}

func (b *platformBackend) Name() string { return "platform" }

// Activate registers the static driver, creates the device and attaches
// the chip. Failure at or after device creation unwinds in the order
// device, then driver.
func (b *platformBackend) Activate() error {
	if b.active {
		return fmt.Errorf("%w: platform", ErrBackendActive)
	}

	b.driverRegistered = true
	b.deviceCreated = true

	if !b.res.HasIRQ() {
		b.state.DisableInterrupts()
	}
	q := tis.Quirks{
		ITPM:       b.state.ITPMForced(),
		Interrupts: b.state.InterruptsAllowed() && b.res.HasIRQ(),
	}
	if _, err := b.mgr.Attach(PlatformDeviceKey, b.res, q, ""); err != nil {
		b.deviceCreated = false
		b.driverRegistered = false
		return fmt.Errorf("bus: platform attach: %w", err)
	}

	b.active = true
	return nil
}

// Deactivate retrieves the chip associated with the static device,
// detaches it, then removes the device and driver registrations.
func (b *platformBackend) Deactivate() error {
	if !b.active {
		return nil
	}

	err := b.mgr.DetachKey(PlatformDeviceKey)
	b.deviceCreated = false
	b.driverRegistered = false
	b.active = false
	if err != nil {
		return fmt.Errorf("bus: platform detach: %w", err)
	}
	return nil
}
