package tis

import (
	"errors"
	"testing"

	"github.com/tinyrange/tpmtis/internal/acpitab"
)

func TestIsITPM(t *testing.T) {
	cases := []struct {
		ids  []string
		want bool
	}{
		{nil, false},
		{[]string{"PNP0C31"}, false},
		{[]string{ITPMID}, true},
		{[]string{"PNP0C31", ITPMID}, true},
	}
	for _, c := range cases {
		if got := IsITPM(c.ids); got != c.want {
			t.Fatalf("IsITPM(%v) = %v, want %v", c.ids, got, c.want)
		}
	}
}

// The iTPM classification depends only on the identity: whether the
// TPM2 table is absent, missing, or rejects the device, the same
// identities still classify as iTPM.
func TestITPMIndependentOfTable(t *testing.T) {
	ids := []string{ITPMID, TPM2HID}
	for _, src := range []acpitab.Source{
		nil,
		acpitab.StaticSource(nil),
		acpitab.StaticSource(&acpitab.Table{StartMethod: acpitab.StartMethodCRB}),
	} {
		fifoErr := SupportsFIFO(ids, src)
		if !IsITPM(ids) {
			t.Fatalf("iTPM identity not classified as iTPM (table outcome %v)", fifoErr)
		}
	}
}

func TestSupportsFIFOWithoutACPI(t *testing.T) {
	// No ACPI subsystem: the table-start-method ambiguity cannot occur.
	if err := SupportsFIFO([]string{TPM2HID}, nil); err != nil {
		t.Fatalf("nil source: %v", err)
	}
}

func TestSupportsFIFOForTPM12(t *testing.T) {
	src := acpitab.StaticSource(&acpitab.Table{StartMethod: acpitab.StartMethodCRB})
	if err := SupportsFIFO([]string{"IFX0102"}, src); err != nil {
		t.Fatalf("TPM 1.2 identity must not consult the table: %v", err)
	}
}

func TestSupportsFIFOForTPM20(t *testing.T) {
	src := acpitab.StaticSource(&acpitab.Table{StartMethod: acpitab.StartMethodFIFO})
	if err := SupportsFIFO([]string{TPM2HID}, src); err != nil {
		t.Fatalf("FIFO start method rejected: %v", err)
	}
}

func TestSupportsFIFORejectsCRB(t *testing.T) {
	src := acpitab.StaticSource(&acpitab.Table{StartMethod: acpitab.StartMethodCRB})
	err := SupportsFIFO([]string{TPM2HID}, src)
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("CRB start method: got %v, want ErrNoDevice", err)
	}
	if !errors.Is(err, ErrUnsupportedStartMethod) {
		t.Fatalf("CRB start method: got %v, want ErrUnsupportedStartMethod", err)
	}
}

func TestSupportsFIFOFailsClosedWithoutTable(t *testing.T) {
	if err := SupportsFIFO([]string{TPM2HID}, acpitab.StaticSource(nil)); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("missing table: got %v, want ErrNoDevice", err)
	}
}
