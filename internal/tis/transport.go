package tis

import (
	"fmt"

	"github.com/google/go-tpm/tpm2/transport"
)

// Generous upper bound for a FIFO chip's response buffer.
const maxResponseSize = 4096

type chipTransport struct {
	c *Chip
}

// Transport adapts an attached chip to go-tpm's transport interface, so
// a discovered device can be driven directly by the ecosystem TPM 2.0
// stack. The adapter issues commands through the chip's operation
// table; it does not bypass the protocol layer.
func Transport(c *Chip) transport.TPMCloser {
	return &chipTransport{c: c}
}

func (t *chipTransport) Send(input []byte) ([]byte, error) {
	if _, err := t.c.ops.Send(t.c, input); err != nil {
		t.c.ops.Cancel(t.c)
		return nil, fmt.Errorf("tis: send command: %w", err)
	}

	buf := make([]byte, maxResponseSize)
	n, err := t.c.ops.Recv(t.c, buf)
	if err != nil {
		t.c.ops.Cancel(t.c)
		return nil, fmt.Errorf("tis: receive response: %w", err)
	}
	return buf[:n], nil
}

func (t *chipTransport) Close() error {
	t.c.ops.Cancel(t.c)
	return nil
}
