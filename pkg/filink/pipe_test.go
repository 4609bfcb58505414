package filink_test

import (
	"testing"
	"time"

	"github.com/epsonian/filink/pkg/filink"
)

// pipeEnd is one end of an in-memory duplex byte channel, standing in for
// the serial port in tests. Generously buffered so neither machine ever
// blocks on write.
type pipeEnd struct {
	in  chan byte
	out chan byte
}

func newPipe() (*pipeEnd, *pipeEnd) {
	ab := make(chan byte, 4096)
	ba := make(chan byte, 4096)
	return &pipeEnd{in: ba, out: ab}, &pipeEnd{in: ab, out: ba}
}

func (e *pipeEnd) ReadByte(timeout time.Duration) (byte, error) {
	select {
	case b := <-e.in:
		return b, nil
	case <-time.After(timeout):
		return 0, filink.ErrTimeout
	}
}

func (e *pipeEnd) WriteByte(b byte) error {
	e.out <- b
	return nil
}

func (e *pipeEnd) WriteBytes(p []byte, perByteDelay time.Duration) error {
	for i, b := range p {
		if i > 0 && perByteDelay > 0 {
			time.Sleep(perByteDelay)
		}
		if err := e.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

func (e *pipeEnd) Flush() error { return nil }

// wire scripts one side of a conversation against the machine under test.
// It runs on the test goroutine, playing the peer; failures go through
// Errorf and come back as ok=false, so the caller decides whether to stop.
type wire struct {
	t  *testing.T
	ch *pipeEnd
}

func (w *wire) read() (byte, bool) {
	b, err := w.ch.ReadByte(3 * time.Second)
	if err != nil {
		w.t.Errorf("peer: read failed: %v", err)
		return 0, false
	}
	return b, true
}

func (w *wire) expect(want byte) bool {
	b, ok := w.read()
	if !ok {
		return false
	}
	if b != want {
		w.t.Errorf("peer: got 0x%02X, want 0x%02X", b, want)
		return false
	}
	return true
}

func (w *wire) send(b byte) {
	if err := w.ch.WriteByte(b); err != nil {
		w.t.Errorf("peer: write failed: %v", err)
	}
}

func (w *wire) sendAll(p []byte) {
	for _, b := range p {
		w.send(b)
	}
}

// echoName plays the receiver's filename phase: read 11 name bytes, echo
// each, and hand back what was heard.
func (w *wire) echoName() ([]byte, bool) {
	name := make([]byte, 0, filink.WireNameLen)
	for i := 0; i < filink.WireNameLen; i++ {
		b, ok := w.read()
		if !ok {
			return nil, false
		}
		name = append(name, b)
		w.send(b)
	}
	return name, true
}

// readBlock plays the receiver's data phase: read the 128 payload bytes
// and the trailing checksum byte.
func (w *wire) readBlock() (payload [filink.BlockSize]byte, chk byte, ok bool) {
	for i := 0; i < filink.BlockSize; i++ {
		b, k := w.read()
		if !k {
			return payload, 0, false
		}
		payload[i] = b
	}
	chk, ok = w.read()
	return payload, chk, ok
}
