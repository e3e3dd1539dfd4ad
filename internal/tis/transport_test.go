package tis

import (
	"bytes"
	"errors"
	"testing"
)

func TestTransportSendReceives(t *testing.T) {
	proto := &fakeProtocol{response: []byte{0x80, 0x01, 0x00, 0x00, 0x00, 0x0a}}
	mgr, _ := newTestManager(t, proto)

	chip, err := mgr.Attach("dev0", DefaultResource(), Quirks{}, "")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	tpm := Transport(chip)
	out, err := tpm.Send([]byte{0x80, 0x01, 0x00, 0x00, 0x00, 0x0c})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !bytes.Equal(out, proto.response) {
		t.Fatalf("response: got % x want % x", out, proto.response)
	}
	if err := tpm.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if proto.canceled == 0 {
		t.Fatalf("close did not cancel the pending operation")
	}
}

func TestTransportSendFailureCancels(t *testing.T) {
	proto := &fakeProtocol{sendErr: errors.New("chip busy")}
	mgr, _ := newTestManager(t, proto)

	chip, err := mgr.Attach("dev0", DefaultResource(), Quirks{}, "")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if _, err := Transport(chip).Send([]byte{0x00}); err == nil {
		t.Fatalf("send succeeded despite protocol failure")
	}
	if proto.canceled != 1 {
		t.Fatalf("cancel count after failed send: %d", proto.canceled)
	}
}
