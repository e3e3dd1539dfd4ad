// Package tpmtis discovers memory-mapped TPM TIS devices and drives
// them through attach, operation and detach. Discovery runs through
// PNP and ACPI enumeration, or a single forced static device; each
// discovered device is mapped, bound to a fixed operation table and
// handed to a protocol layer supplied by the caller.
package tpmtis

import (
	"fmt"
	"log/slog"

	"github.com/google/go-tpm/tpm2/transport"
	"github.com/hashicorp/go-multierror"
	"github.com/tinyrange/tpmtis/internal/acpitab"
	"github.com/tinyrange/tpmtis/internal/bus"
	"github.com/tinyrange/tpmtis/internal/mmio"
	"github.com/tinyrange/tpmtis/internal/tis"
)

// Aliases for the internal types a protocol implementation needs.
type (
	Chip         = tis.Chip
	Resource     = tis.Resource
	Quirks       = tis.Quirks
	Operations   = tis.Operations
	Protocol     = tis.Protocol
	PowerManager = tis.PowerManager
	WindowMapper = tis.WindowMapper
)

// Register access widths, in bytes.
const (
	Width8  = mmio.Width8
	Width16 = mmio.Width16
	Width32 = mmio.Width32
)

// Driver owns the discovery backends and the chip lifecycle for one
// protocol layer. A Driver is built once from a Config, started, and
// stopped; it is not restartable.
type Driver struct {
	cfg   Config
	proto Protocol
	mgr   *tis.Manager
	orch  *bus.Orchestrator
	log   *slog.Logger
}

type driverOptions struct {
	log    *slog.Logger
	pnp    bus.Enumerator
	acpi   bus.Enumerator
	tables acpitab.Source
	mapper WindowMapper
}

// Option configures a Driver beyond what Config expresses.
type Option func(*driverOptions)

// WithLogger sets the driver's logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *driverOptions) { o.log = log }
}

// WithEnumerators substitutes the PNP and ACPI device enumerators.
// Mainly for tests and simulated platforms.
func WithEnumerators(pnp, acpi bus.Enumerator) Option {
	return func(o *driverOptions) { o.pnp, o.acpi = pnp, acpi }
}

// WithTableSource substitutes the ACPI table source. A nil source means
// the platform has no ACPI subsystem at all; TPM 2.0 devices then skip
// the start-method check instead of failing it.
func WithTableSource(tables acpitab.Source) Option {
	return func(o *driverOptions) { o.tables = tables }
}

// WithWindowMapper substitutes the register-window mapper. The default
// maps physical memory through /dev/mem.
func WithWindowMapper(mapper WindowMapper) Option {
	return func(o *driverOptions) { o.mapper = mapper }
}

// New builds a Driver from cfg, bound to the given protocol layer.
func New(cfg Config, proto Protocol, opts ...Option) (*Driver, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if proto == nil {
		return nil, fmt.Errorf("tpmtis: nil protocol layer")
	}

	var o driverOptions
	o.tables = acpitab.SysfsSource(cfg.ACPITablePath)
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	if o.pnp == nil {
		o.pnp = &bus.SysfsPNPEnumerator{Root: cfg.PNPRoot}
	}
	if o.acpi == nil {
		o.acpi = &bus.SysfsACPIEnumerator{Root: cfg.ACPIRoot}
	}

	mgrOpts := []tis.ManagerOption{tis.WithLogger(o.log)}
	if o.mapper != nil {
		mgrOpts = append(mgrOpts, tis.WithWindowMapper(o.mapper))
	}
	mgr := tis.NewManager(proto, mgrOpts...)

	state := bus.NewState(*cfg.Interrupts, cfg.ITPM)

	res := tis.DefaultResource()
	if cfg.Resource != nil {
		res = tis.Resource{
			Base:   cfg.Resource.Base,
			Length: cfg.Resource.Length,
			IRQ:    cfg.Resource.IRQ,
		}
	}

	pnp := bus.NewPNPBackend(o.pnp, mgr, state, cfg.HID, o.log)
	acpi := bus.NewACPIBackend(o.acpi, mgr, state, o.tables, cfg.HID, o.log)
	platform := bus.NewPlatformBackend(mgr, state, res, o.log)

	return &Driver{
		cfg:   cfg,
		proto: proto,
		mgr:   mgr,
		orch:  bus.NewOrchestrator(cfg.Force, pnp, acpi, platform, o.log),
		log:   o.log,
	}, nil
}

// Start activates the discovery backends. A failure leaves no backend
// active and no chip attached.
func (d *Driver) Start() error {
	return d.orch.Start()
}

// Stop deactivates the backends in reverse activation order, detaching
// every attached chip. Teardown is best-effort; errors are aggregated.
func (d *Driver) Stop() error {
	return d.orch.Stop()
}

// Backends returns the names of the currently active backends.
func (d *Driver) Backends() []string {
	return d.orch.Active()
}

// Chips returns the attached chips, ordered by device key.
func (d *Driver) Chips() []*Chip {
	reg := d.mgr.Registry()
	var chips []*Chip
	for _, key := range reg.Keys() {
		if chip, ok := reg.Chip(key); ok {
			chips = append(chips, chip)
		}
	}
	return chips
}

// Chip returns the chip attached under the given device key.
func (d *Driver) Chip(key string) (*Chip, bool) {
	return d.mgr.Registry().Chip(key)
}

// Transport adapts an attached chip to go-tpm's transport interface.
func (d *Driver) Transport(key string) (transport.TPMCloser, error) {
	chip, ok := d.Chip(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", tis.ErrChipNotFound, key)
	}
	return tis.Transport(chip), nil
}

// Suspend passes a suspend request to the protocol layer for every
// attached chip. A protocol layer without power management is a no-op.
func (d *Driver) Suspend() error {
	return d.power(PowerManager.Suspend)
}

// Resume passes a resume request to the protocol layer for every
// attached chip.
func (d *Driver) Resume() error {
	return d.power(PowerManager.Resume)
}

func (d *Driver) power(op func(PowerManager, *Chip) error) error {
	pm, ok := d.proto.(PowerManager)
	if !ok {
		return nil
	}
	var errs *multierror.Error
	for _, chip := range d.Chips() {
		if err := op(pm, chip); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("tpmtis: power transition for %q: %w", chip.Key(), err))
		}
	}
	return errs.ErrorOrNil()
}
