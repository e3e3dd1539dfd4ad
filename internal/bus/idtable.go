package bus

import "github.com/tinyrange/tpmtis/internal/tis"

// Identity tables of known TPM vendors, each extensible by exactly one
// user-supplied entry via the hid configuration option.
var (
	pnpIDTable = []string{
		"PNP0C31", // TPM
		"ATM1200", // Atmel
		"IFX0102", // Infineon
		"BCM0101", // Broadcom
		"BCM0102", // Broadcom
		"NSC1200", // National
		"ICO0102", // Intel
	}

	acpiIDTable = []string{
		tis.TPM2HID, // TPM 2.0
	}
)

// matchIdentity reports whether any of ids appears in table or equals
// the user-supplied extra entry.
func matchIdentity(ids []string, table []string, extra string) bool {
	for _, id := range ids {
		if extra != "" && id == extra {
			return true
		}
		for _, want := range table {
			if id == want {
				return true
			}
		}
	}
	return false
}
