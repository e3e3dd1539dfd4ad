package tis

import (
	"fmt"
	"log/slog"

	"github.com/tinyrange/tpmtis/internal/mmio"
)

// WindowMapper maps a physical register window. The default maps
// through /dev/mem; tests and simulated platforms substitute their own.
type WindowMapper func(base, length uint64) (mmio.Window, error)

// Manager drives the chip lifecycle: it maps register windows, binds
// chips to the fixed operation table, hands them to the protocol layer
// and keeps the device-key→chip association for removal callbacks.
type Manager struct {
	proto     Protocol
	reg       *Registry
	mapWindow WindowMapper
	log       *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithWindowMapper substitutes the register-window mapper.
func WithWindowMapper(mapper WindowMapper) ManagerOption {
	return func(m *Manager) { m.mapWindow = mapper }
}

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// NewManager builds a Manager bound to the given protocol layer.
func NewManager(proto Protocol, opts ...ManagerOption) *Manager {
	m := &Manager{
		proto:     proto,
		reg:       NewRegistry(),
		mapWindow: defaultWindowMapper,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry exposes the chip registry.
func (m *Manager) Registry() *Registry { return m.reg }

// Attach builds a chip for the device identified by key, maps its
// register window and initializes it through the protocol layer. On
// success the chip is registered under key for the matching removal
// callback to retrieve. Every error path leaves no mapping and no
// registration behind.
func (m *Manager) Attach(key string, res Resource, q Quirks, acpiHandle string) (*Chip, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if m.proto == nil {
		return nil, fmt.Errorf("%w: no protocol layer", ErrNoMemory)
	}

	chip := &Chip{
		key:        key,
		res:        res,
		quirks:     q,
		acpiHandle: acpiHandle,
		priv:       &privState{irq: res.IRQ},
	}
	chip.ops = Operations{
		Status:         m.proto.Status,
		Recv:           m.proto.Recv,
		Send:           m.proto.Send,
		Cancel:         m.proto.Cancel,
		UpdateTimeouts: m.proto.UpdateTimeouts,
		ReqCanceled:    m.proto.ReqCanceled,

		ReqCompleteMask: StatusDataAvail | StatusValid,
		ReqCompleteVal:  StatusDataAvail | StatusValid,

		ReadBytes: func(c *Chip, off uint32, data []byte, width int) {
			c.win.ReadBytes(off, data, width)
		},
		WriteBytes: func(c *Chip, off uint32, data []byte, width int) {
			c.win.WriteBytes(off, data, width)
		},
	}

	win, err := m.mapWindow(res.Base, res.Length)
	if err != nil {
		return nil, fmt.Errorf("%w: map %s: %v", ErrIO, res, err)
	}
	chip.win = win

	if err := m.proto.Initialize(chip, res.IRQ, q.Interrupts, q.ITPM); err != nil {
		// The protocol layer cleans up its own partial state; the
		// window is ours to release.
		_ = win.Close()
		return nil, err
	}

	if err := m.reg.Register(key, chip); err != nil {
		m.proto.Remove(chip)
		_ = win.Close()
		return nil, err
	}

	m.log.Info("tpm chip attached",
		"device", key,
		"resource", res.String(),
		"itpm", q.ITPM,
		"interrupts", q.Interrupts && res.HasIRQ())
	return chip, nil
}

// Detach tears a chip down in the reverse order of construction: it is
// unregistered first, so no new operations can be issued, then the
// protocol layer releases its device state, then the register window is
// unmapped.
func (m *Manager) Detach(chip *Chip) error {
	if chip == nil {
		return fmt.Errorf("%w: nil chip", ErrChipNotFound)
	}
	if _, err := m.reg.Unregister(chip.key); err != nil {
		return err
	}
	m.proto.Remove(chip)
	err := chip.win.Close()
	m.log.Info("tpm chip detached", "device", chip.key)
	return err
}

// DetachKey detaches the chip registered under key, the association
// used by bus removal callbacks.
func (m *Manager) DetachKey(key string) error {
	chip, ok := m.reg.Chip(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrChipNotFound, key)
	}
	return m.Detach(chip)
}
