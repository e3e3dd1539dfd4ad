// Package bus discovers TPM devices through three mutually-exclusive
// enumeration backends (PNP, ACPI, forced static platform device) and
// drives each discovered device through the chip lifecycle in
// internal/tis. The Orchestrator decides which backends run and unwinds
// partially-activated backends on failure.
package bus

import "sync"

// Backend is one discovery mechanism. A backend is either inactive or
// active; it becomes active only when Activate returns nil, and a
// failed Activate must leave nothing registered.
type Backend interface {
	Name() string
	Activate() error
	Deactivate() error
}

// ResourceKind tags a raw bus resource entry.
type ResourceKind int

const (
	ResourceMemory ResourceKind = iota
	ResourceIRQ
)

// RawResource is one entry of a device's bus resource list, before
// normalization into a tis.Resource.
type RawResource struct {
	Kind  ResourceKind
	Start uint64 // Memory: first byte of the window
	End   uint64 // Memory: last byte of the window, inclusive
	IRQ   uint32 // IRQ: interrupt line
}

// Device is one enumerated bus device as delivered by a bus framework.
type Device interface {
	// Key is the stable association key used to retrieve the chip in
	// the removal callback. It must not change between probe and remove.
	Key() string

	// IDs returns the device's own bus identity strings.
	IDs() []string

	// CompanionIDs returns the identities of the device's firmware
	// companion (the ACPI node behind a PNP device). Empty when the
	// device has none or is itself the ACPI node.
	CompanionIDs() []string

	// ACPIHandle returns the ACPI namespace path associated with the
	// device, or "" when there is none.
	ACPIHandle() string

	// Resources returns the device's raw resource list.
	Resources() ([]RawResource, error)
}

// Enumerator produces the current devices on one bus. Backends call it
// during activation; the resulting probes run synchronously, which is
// how the serialized probe model of the bus frameworks is preserved.
type Enumerator interface {
	Devices() ([]Device, error)
}

// State carries the settings probes share across devices: whether
// interrupt-driven operation is still permitted, and whether the iTPM
// workaround is forced for every chip. A probe that finds no interrupt
// resource disables interrupts for all subsequent probes.
type State struct {
	mu         sync.Mutex
	interrupts bool
	forceITPM  bool
}

// NewState returns probe state seeded from the module configuration.
func NewState(interrupts, forceITPM bool) *State {
	return &State{interrupts: interrupts, forceITPM: forceITPM}
}

// InterruptsAllowed reports whether interrupt-driven completion is
// still permitted.
func (s *State) InterruptsAllowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interrupts
}

// DisableInterrupts forces polling mode for all subsequent probes.
func (s *State) DisableInterrupts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interrupts = false
}

// ITPMForced reports whether the iTPM workaround is forced regardless
// of device identity.
func (s *State) ITPMForced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forceITPM
}
