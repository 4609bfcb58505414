package filink

import (
	"fmt"

	"github.com/epsonian/filink/pkg/errors"
)

// Session abort reasons, worded as the historical implementations report
// them. Timeouts in the initial handshake map to the "not ready" pair, any
// later silence to the "not responding" pair.
var (
	ErrReceiverNotReady      = errors.New("Receiver not ready")
	ErrReceiverNotResponding = errors.New("Receiver not responding")
	ErrSenderNotReady        = errors.New("Sender not ready")
	ErrSenderNotResponding   = errors.New("Sender not responding")
)

// ProtocolError reports an unexpected byte in a state with no local
// recovery. States with a defined rejection action ('X', 'N', 'B') handle
// the byte silently and never raise this.
type ProtocolError struct {
	State string
	Want  string
	Got   byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected byte 0x%02X in %s, want %s", e.Got, e.State, e.Want)
}
