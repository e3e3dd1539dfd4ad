package bus

import (
	"testing"

	"github.com/tinyrange/tpmtis/internal/tis"
)

func TestParseSysfsResources(t *testing.T) {
	text := "state = active\nio 0x1000-0x1007\nmem 0xfed40000-0xfed44fff\nirq 10\n"
	got, err := ParseSysfsResources(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []RawResource{
		{Kind: ResourceMemory, Start: 0xfed40000, End: 0xfed44fff},
		{Kind: ResourceIRQ, IRQ: 10},
	}
	if len(got) != len(want) {
		t.Fatalf("resource count: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("resource %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestParseSysfsResourcesRejectsInvertedRange(t *testing.T) {
	if _, err := ParseSysfsResources("mem 0xfed44fff-0xfed40000\n"); err == nil {
		t.Fatalf("inverted range accepted")
	}
}

func TestScanResourcesDefaults(t *testing.T) {
	res := ScanResources(tis.DefaultResource(), nil)
	if res.Base != tis.DefaultMemBase || res.Length != tis.DefaultMemLen {
		t.Fatalf("empty scan changed the default window: %s", res)
	}
	if res.HasIRQ() {
		t.Fatalf("empty scan produced an interrupt line")
	}
}

// A device may report multiple memory or interrupt entries; the scan
// visits the whole list once and the final pair wins.
func TestScanResourcesLastWins(t *testing.T) {
	list := []RawResource{
		{Kind: ResourceMemory, Start: 0x9000_0000, End: 0x9000_0fff},
		{Kind: ResourceIRQ, IRQ: 5},
		{Kind: ResourceMemory, Start: 0xfed40000, End: 0xfed44fff},
		{Kind: ResourceIRQ, IRQ: 12},
	}
	res := ScanResources(tis.DefaultResource(), list)
	if res.Base != 0xfed40000 || res.Length != 0x5000 {
		t.Fatalf("memory window: %s", res)
	}
	if res.IRQ != 12 {
		t.Fatalf("interrupt line: got %d want 12", res.IRQ)
	}
}

func TestScanResourcesWithoutInterruptEntry(t *testing.T) {
	list := []RawResource{
		{Kind: ResourceMemory, Start: 0xfed40000, End: 0xfed44fff},
	}
	res := ScanResources(tis.DefaultResource(), list)
	if res.HasIRQ() {
		t.Fatalf("interrupt line present without an interrupt resource")
	}
}
