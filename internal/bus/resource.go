package bus

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/tinyrange/tpmtis/internal/tis"
)

// ScanResources folds a raw resource list into a resource descriptor,
// starting from def. The list is visited exactly once and the last
// declared memory window and interrupt line win, so a device with
// multiple entries is described by its final pair. A list with no
// interrupt entry leaves def's IRQ in place (zero for the defaults,
// meaning polling mode).
func ScanResources(def tis.Resource, list []RawResource) tis.Resource {
	res := def
	for _, r := range list {
		switch r.Kind {
		case ResourceIRQ:
			res.IRQ = r.IRQ
		case ResourceMemory:
			res.Base = r.Start
			res.Length = r.End - r.Start + 1
		}
	}
	return res
}

// ParseSysfsResources parses the PNP sysfs "resources" file format:
//
//	state = active
//	mem 0xfed40000-0xfed44fff
//	irq 10
//
// Entries other than mem and irq (io, dma, state lines) are skipped.
func ParseSysfsResources(text string) ([]RawResource, error) {
	var out []RawResource

	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "mem":
			start, end, err := parseRange(fields[1])
			if err != nil {
				return nil, fmt.Errorf("bus: resource line %q: %w", sc.Text(), err)
			}
			out = append(out, RawResource{Kind: ResourceMemory, Start: start, End: end})
		case "irq":
			irq, err := strconv.ParseUint(fields[1], 0, 32)
			if err != nil {
				return nil, fmt.Errorf("bus: resource line %q: %w", sc.Text(), err)
			}
			out = append(out, RawResource{Kind: ResourceIRQ, IRQ: uint32(irq)})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("bus: scan resources: %w", err)
	}
	return out, nil
}

func parseRange(s string) (uint64, uint64, error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("missing range separator")
	}
	start, err := strconv.ParseUint(lo, 0, 64)
	if err != nil {
		return 0, 0, err
	}
	end, err := strconv.ParseUint(hi, 0, 64)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("range 0x%x-0x%x is inverted", start, end)
	}
	return start, end, nil
}
