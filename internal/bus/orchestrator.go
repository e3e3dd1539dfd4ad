package bus

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
)

// Orchestrator activates the configured backends at load time and
// deactivates exactly the ones that came up, in reverse order, at
// unload. Normal operation runs PNP then ACPI; forced mode runs only
// the static platform backend.
type Orchestrator struct {
	force    bool
	pnp      Backend
	acpi     Backend
	platform Backend
	log      *slog.Logger

	active []Backend
}

// NewOrchestrator builds an orchestrator over the three backends.
func NewOrchestrator(force bool, pnp, acpi, platform Backend, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{force: force, pnp: pnp, acpi: acpi, platform: platform, log: log}
}

// Start activates the backend sequence. When any activation fails,
// every backend activated earlier in the same sequence is deactivated,
// most recent first, and the failure is reported; no backend is left
// active after a failed Start.
func (o *Orchestrator) Start() error {
	sequence := []Backend{o.pnp, o.acpi}
	if o.force {
		sequence = []Backend{o.platform}
	}

	for _, b := range sequence {
		if err := b.Activate(); err != nil {
			o.unwind()
			return fmt.Errorf("bus: activate %s backend: %w", b.Name(), err)
		}
		o.log.Debug("backend active", "backend", b.Name())
		o.active = append(o.active, b)
	}
	return nil
}

// Stop deactivates the active backends in reverse activation order.
// Deactivation is best-effort: every backend is visited regardless of
// earlier failures, and errors are aggregated.
func (o *Orchestrator) Stop() error {
	var errs *multierror.Error
	for i := len(o.active) - 1; i >= 0; i-- {
		b := o.active[i]
		if err := b.Deactivate(); err != nil {
			errs = multierror.Append(errs, err)
		}
		o.log.Debug("backend inactive", "backend", b.Name())
	}
	o.active = nil
	return errs.ErrorOrNil()
}

// Active returns the names of the currently active backends in
// activation order.
func (o *Orchestrator) Active() []string {
	names := make([]string, 0, len(o.active))
	for _, b := range o.active {
		names = append(names, b.Name())
	}
	return names
}

func (o *Orchestrator) unwind() {
	for i := len(o.active) - 1; i >= 0; i-- {
		b := o.active[i]
		if err := b.Deactivate(); err != nil {
			o.log.Warn("deactivate during unwind", "backend", b.Name(), "err", err)
		}
	}
	o.active = nil
}
