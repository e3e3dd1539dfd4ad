// Package acpitab reads and writes the ACPI TPM2 description table. The
// driver only cares about one field, the declared start method, which
// decides whether a TPM 2.0 device speaks the FIFO register interface
// this driver implements.
package acpitab

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Signature of the TPM2 description table.
const Signature = "TPM2"

// Start methods defined by the TCG ACPI specification.
const (
	StartMethodACPI = 2
	StartMethodFIFO = 6
	StartMethodCRB  = 7
)

const (
	headerLen = 36
	tableLen  = headerLen + 2 + 2 + 8 + 4
)

var (
	// ErrNotPresent reports that the platform exposes no TPM2 table.
	ErrNotPresent = errors.New("acpitab: TPM2 table not present")

	// ErrMalformed reports a table that fails structural validation.
	ErrMalformed = errors.New("acpitab: malformed TPM2 table")
)

// Table is the decoded TPM2 description table.
type Table struct {
	Revision      uint8
	OEMID         [6]byte
	OEMTableID    [8]byte
	PlatformClass uint16
	ControlArea   uint64
	StartMethod   uint32
}

// Parse decodes and validates a raw TPM2 table, including its checksum.
func Parse(raw []byte) (*Table, error) {
	if len(raw) < tableLen {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformed, len(raw), tableLen)
	}
	if string(raw[:4]) != Signature {
		return nil, fmt.Errorf("%w: signature %q", ErrMalformed, raw[:4])
	}

	length := binary.LittleEndian.Uint32(raw[4:8])
	if length < tableLen || int(length) > len(raw) {
		return nil, fmt.Errorf("%w: declared length %d", ErrMalformed, length)
	}
	if sum(raw[:length]) != 0 {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrMalformed)
	}

	t := &Table{
		Revision:      raw[8],
		PlatformClass: binary.LittleEndian.Uint16(raw[36:38]),
		ControlArea:   binary.LittleEndian.Uint64(raw[40:48]),
		StartMethod:   binary.LittleEndian.Uint32(raw[48:52]),
	}
	copy(t.OEMID[:], raw[10:16])
	copy(t.OEMTableID[:], raw[16:24])
	return t, nil
}

// Build encodes the table with a correct length and checksum. It exists
// for tests and diagnostic tooling; the driver itself only parses.
func (t *Table) Build() []byte {
	buf := bytes.Buffer{}
	buf.Grow(tableLen)

	header := make([]byte, headerLen)
	copy(header[:4], Signature)
	binary.LittleEndian.PutUint32(header[4:8], tableLen)
	header[8] = t.Revision
	copy(header[10:16], t.OEMID[:])
	copy(header[16:24], t.OEMTableID[:])
	buf.Write(header)

	binary.Write(&buf, binary.LittleEndian, t.PlatformClass)
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // reserved
	binary.Write(&buf, binary.LittleEndian, t.ControlArea)
	binary.Write(&buf, binary.LittleEndian, t.StartMethod)

	raw := buf.Bytes()
	raw[9] = checksum(raw)
	return raw
}

func checksum(b []byte) byte {
	return byte(0 - sum(b))
}

func sum(b []byte) byte {
	var total byte
	for _, v := range b {
		total += v
	}
	return total
}
