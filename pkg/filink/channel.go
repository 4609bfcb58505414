package filink

import (
	"time"

	"github.com/epsonian/filink/pkg/errors"
)

// ErrTimeout is returned by ByteChannel.ReadByte when no byte arrived
// within the given bound. Implementations must return it unwrapped or keep
// it reachable through errors.Cause; the state machines test for it with
// IsTimeout. Any other channel error is treated as a broken channel and is
// fatal to the session.
var ErrTimeout = errors.New("filink: read timeout")

// ByteChannel is the link the state machines speak through. A session owns
// its channel exclusively; the machines never read and write concurrently,
// so implementations need no locking of their own.
type ByteChannel interface {
	// ReadByte returns the next byte from the peer, or ErrTimeout after at
	// least timeout of silence. The timeout applies to this single byte.
	ReadByte(timeout time.Duration) (byte, error)

	// WriteByte transmits one byte, blocking until the device accepts it.
	WriteByte(b byte) error

	// WriteBytes transmits p in order. A positive perByteDelay inserts a
	// pause between successive bytes, for peers that lose bytes at high
	// baud rates. Zero is the fast path.
	WriteBytes(p []byte, perByteDelay time.Duration) error

	// Flush pushes any buffered output to the device. The machines call it
	// before every turnaround from writing to reading.
	Flush() error
}

// IsTimeout reports whether err is (or wraps) ErrTimeout.
func IsTimeout(err error) bool {
	return errors.Cause(err) == ErrTimeout
}
