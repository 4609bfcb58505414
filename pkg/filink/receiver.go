package filink

import (
	"path/filepath"
	"time"

	"github.com/golang/glog"

	"github.com/epsonian/filink/pkg/errors"
)

type receiverState int

const (
	rcvHandshake receiverState = iota // wait for 'R', answer 'S'
	rcvGo                             // wait for 'G'
	rcvIdle                           // wait for EOT or XOFF
	rcvName                           // collect the filename, echoing every byte
	rcvNameEnd                        // wait for ENQ, open the file
	rcvBlockLead                      // wait for STX or ETX
	rcvBlockData                      // collect the 128 payload bytes
	rcvBlockSum                       // verify the checksum
	rcvDone
)

// Receiver drives the receiving half of a FILINK session over one byte
// channel. The channel is owned exclusively by the receiver until Receive
// returns.
type Receiver struct {
	ch   ByteChannel
	opts Options
}

func NewReceiver(ch ByteChannel, opts ...Option) *Receiver {
	r := &Receiver{ch: ch, opts: defaultOptions}
	for _, fn := range opts {
		fn(&r.opts)
	}
	return r
}

func (r *Receiver) await(timeout time.Duration) (byte, error) {
	if err := r.ch.Flush(); err != nil {
		return 0, errors.Wrap(err, "flushing before reply")
	}
	return r.ch.ReadByte(timeout)
}

// Receive runs one full session, writing each incoming file into
// outputDir under its restored lowercase 8.3 name, until the peer closes
// the session with XOFF.
//
// Files keep whatever 0x1A tail padding the last block carried; the
// protocol has no length field, so stripping it here would corrupt binary
// files that genuinely end in 0x1A.
func (r *Receiver) Receive(outputDir string) (err error) {
	var (
		state   = rcvHandshake
		wire    [WireNameLen]byte
		sink    Sink
		block   [BlockSize]byte
		sum     byte
		blockNo int
	)
	defer func() {
		if sink != nil {
			if cerr := sink.Close(); cerr != nil && err == nil {
				err = errors.RichError(cerr)
			}
		}
	}()

	for state != rcvDone {
		switch state {

		case rcvHandshake:
			// Anything but 'R' is line noise here; keep listening, but only
			// up to the overall handshake bound.
			deadline := time.Now().Add(handshakeTimeout)
			for {
				remain := time.Until(deadline)
				if remain <= 0 {
					return ErrSenderNotReady
				}
				b, err := r.await(remain)
				if err != nil {
					if IsTimeout(err) {
						return ErrSenderNotReady
					}
					return err
				}
				if b == ReadyReq {
					break
				}
				glog.V(1).Infof("handshake: ignoring 0x%02X", b)
			}
			if err := r.ch.WriteByte(ReadyAck); err != nil {
				return err
			}
			glog.V(1).Info("sender ready")
			state = rcvGo

		case rcvGo:
			b, err := r.await(replyTimeout)
			if err != nil {
				if IsTimeout(err) {
					return ErrSenderNotResponding
				}
				return err
			}
			if b != Good {
				return &ProtocolError{State: "go-ahead", Want: "'G'", Got: b}
			}
			state = rcvIdle

		case rcvIdle:
			b, err := r.await(replyTimeout)
			if err != nil {
				if IsTimeout(err) {
					return ErrSenderNotResponding
				}
				return err
			}
			switch b {
			case EOT:
				if err := r.ch.WriteByte(BS); err != nil {
					return err
				}
				state = rcvName
			case XOFF:
				glog.V(1).Info("session closed by peer")
				state = rcvDone
			default:
				glog.Warningf("expected announcement, got 0x%02X; rejecting", b)
				if err := r.ch.WriteByte(Reject); err != nil {
					return err
				}
			}

		case rcvName:
			state = rcvNameEnd
			for i := 0; i < WireNameLen; i++ {
				b, err := r.await(replyTimeout)
				if err != nil {
					if IsTimeout(err) {
						return ErrSenderNotResponding
					}
					return err
				}
				if !validNameByte(b) {
					glog.Warningf("rejecting filename byte 0x%02X at %d", b, i)
					if err := r.ch.WriteByte(Reject); err != nil {
						return err
					}
					state = rcvIdle
					break
				}
				wire[i] = b
				if err := r.ch.WriteByte(b); err != nil {
					return err
				}
			}

		case rcvNameEnd:
			b, err := r.await(replyTimeout)
			if err != nil {
				if IsTimeout(err) {
					return ErrSenderNotResponding
				}
				return err
			}
			if b != ENQ {
				glog.Warningf("expected end of filename, got 0x%02X; rejecting", b)
				if err := r.ch.WriteByte(Reject); err != nil {
					return err
				}
				state = rcvIdle
				break
			}
			path := filepath.Join(outputDir, FromWire(wire))
			s, err := r.opts.OpenSink(path)
			if err != nil {
				glog.Warningf("cannot create [%s]: %v; rejecting", path, err)
				if err := r.ch.WriteByte(Reject); err != nil {
					return err
				}
				state = rcvIdle
				break
			}
			sink = s
			blockNo = 0
			glog.V(1).Infof("receiving [%s]", path)
			if err := r.ch.WriteByte(TAB); err != nil {
				return err
			}
			state = rcvBlockLead

		case rcvBlockLead:
			b, err := r.await(replyTimeout)
			if err != nil {
				if IsTimeout(err) {
					return ErrSenderNotResponding
				}
				return err
			}
			switch b {
			case STX:
				if err := r.ch.WriteByte(Proceed); err != nil {
					return err
				}
				if err := r.ch.Flush(); err != nil {
					return err
				}
				state = rcvBlockData
			case ETX:
				cerr := sink.Close()
				sink = nil
				if cerr != nil {
					return errors.RichError(cerr)
				}
				glog.V(1).Infof("file complete, %d blocks", blockNo)
				state = rcvIdle
			default:
				glog.Warningf("expected block lead-in, got 0x%02X", b)
				if err := r.ch.WriteByte(NakBlock); err != nil {
					return err
				}
			}

		case rcvBlockData:
			sum = 0
			for i := 0; i < BlockSize; i++ {
				b, err := r.ch.ReadByte(replyTimeout)
				if err != nil {
					if IsTimeout(err) {
						return ErrSenderNotResponding
					}
					return err
				}
				block[i] = b
				sum ^= b
			}
			state = rcvBlockSum

		case rcvBlockSum:
			b, err := r.ch.ReadByte(replyTimeout)
			if err != nil {
				if IsTimeout(err) {
					return ErrSenderNotResponding
				}
				return err
			}
			if b != sum {
				glog.Warningf("bad checksum on block %d: wire 0x%02X, computed 0x%02X", blockNo+1, b, sum)
				if err := r.ch.WriteByte(Bad); err != nil {
					return err
				}
				state = rcvBlockLead
				break
			}
			if err := sink.WriteBlock(&block); err != nil {
				return err
			}
			blockNo++
			glog.V(2).Infof("block %d accepted", blockNo)
			if err := r.ch.WriteByte(Good); err != nil {
				return err
			}
			state = rcvBlockLead
		}
	}

	return r.ch.Flush()
}

// validNameByte vets one filename byte off the wire: printable ASCII only
// (space padding included), nothing a path could smuggle a directory
// through.
func validNameByte(b byte) bool {
	if b < 0x20 || b > 0x7E {
		return false
	}
	return b != '/' && b != '\\'
}
