package filink

import (
	"path/filepath"
	"time"

	"github.com/golang/glog"

	"github.com/epsonian/filink/pkg/errors"
)

type senderState int

const (
	sndHandshake senderState = iota // send 'R', wait for 'S'
	sndGo                           // send 'G', session is open
	sndAnnounce                     // send EOT, wait for BS
	sndName                         // spell the filename, byte for byte
	sndNameEnd                      // send ENQ, wait for TAB
	sndBlockLead                    // STX for the next block, ETX at end of file
	sndBlockData                    // stream the 128 payload bytes
	sndBlockSum                     // send checksum, wait for the verdict
	sndFileDone                     // close the file, advance or wind down
	sndDone
)

// Sender drives the sending half of a FILINK session over one byte
// channel. The channel is owned exclusively by the sender until Send
// returns.
type Sender struct {
	ch   ByteChannel
	opts Options
}

func NewSender(ch ByteChannel, opts ...Option) *Sender {
	s := &Sender{ch: ch, opts: defaultOptions}
	for _, fn := range opts {
		fn(&s.opts)
	}
	return s
}

// await turns the line around: pending output is flushed, then one reply
// byte is read under the given bound.
func (s *Sender) await(timeout time.Duration) (byte, error) {
	if err := s.ch.Flush(); err != nil {
		return 0, errors.Wrap(err, "flushing before reply")
	}
	return s.ch.ReadByte(timeout)
}

// Send runs one full session, transferring the named files in order and
// closing the session with XOFF. An empty list is a valid session: the
// peer sees just the handshake and the XOFF.
//
// A checksum reject from the peer retransmits the same block and is not an
// error; everything fatal aborts the whole session.
func (s *Sender) Send(names ...string) (err error) {
	var (
		state   = sndHandshake
		fileIdx int
		src     Source
		wire    [WireNameLen]byte
		block   [BlockSize]byte
		pending bool // block holds payload not yet acknowledged
		blockNo int
		retries int
	)
	defer func() {
		if src != nil {
			if cerr := src.Close(); cerr != nil && err == nil {
				err = errors.RichError(cerr)
			}
		}
	}()

	for state != sndDone {
		switch state {

		case sndHandshake:
			if err := s.ch.WriteByte(ReadyReq); err != nil {
				return err
			}
			b, err := s.await(handshakeTimeout)
			if err != nil {
				if IsTimeout(err) {
					return ErrReceiverNotReady
				}
				return err
			}
			if b != ReadyAck {
				glog.V(1).Infof("handshake: ignoring 0x%02X, resending ready", b)
				continue
			}
			glog.V(1).Info("receiver ready")
			state = sndGo

		case sndGo:
			if err := s.ch.WriteByte(Good); err != nil {
				return err
			}
			if len(names) == 0 {
				if err := s.ch.WriteByte(XOFF); err != nil {
					return err
				}
				state = sndDone
			} else {
				state = sndAnnounce
			}

		case sndAnnounce:
			if src == nil {
				name := names[fileIdx]
				if wire, err = ToWire(filepath.Base(name)); err != nil {
					return err
				}
				if src, err = s.opts.OpenSource(name); err != nil {
					return err
				}
				pending = false
				blockNo = 0
				glog.V(1).Infof("sending [%s] as [%s]", name, string(wire[:]))
			}
			if err := s.ch.WriteByte(EOT); err != nil {
				return err
			}
			b, err := s.await(replyTimeout)
			if err != nil {
				if IsTimeout(err) {
					return ErrReceiverNotResponding
				}
				return err
			}
			if b != BS {
				return &ProtocolError{State: "announce ack", Want: "BS", Got: b}
			}
			state = sndName

		case sndName:
			state = sndNameEnd
			for i := 0; i < WireNameLen; i++ {
				if err := s.ch.WriteByte(wire[i]); err != nil {
					return err
				}
				b, err := s.await(replyTimeout)
				if err != nil {
					if IsTimeout(err) {
						return ErrReceiverNotResponding
					}
					return err
				}
				if b != wire[i] {
					glog.Warningf("name echo mismatch at %d: sent 0x%02X, got 0x%02X; restarting announcement",
						i, wire[i], b)
					state = sndAnnounce
					break
				}
			}

		case sndNameEnd:
			if err := s.ch.WriteByte(ENQ); err != nil {
				return err
			}
			b, err := s.await(replyTimeout)
			if err != nil {
				if IsTimeout(err) {
					return ErrReceiverNotResponding
				}
				return err
			}
			if b != TAB {
				glog.Warningf("peer not ready for data (0x%02X), restarting announcement", b)
				state = sndAnnounce
				break
			}
			state = sndBlockLead

		case sndBlockLead:
			if !pending {
				ok, err := src.NextBlock(&block)
				if err != nil {
					return err
				}
				if !ok {
					if err := s.ch.WriteByte(ETX); err != nil {
						return err
					}
					state = sndFileDone
					break
				}
				pending = true
				blockNo++
				retries = 0
			}
			if err := s.ch.WriteByte(STX); err != nil {
				return err
			}
			b, err := s.await(replyTimeout)
			if err != nil {
				if IsTimeout(err) {
					return ErrReceiverNotResponding
				}
				return err
			}
			if b != Proceed {
				return &ProtocolError{State: "block lead-in", Want: "'P'", Got: b}
			}
			state = sndBlockData

		case sndBlockData:
			if err := s.ch.WriteBytes(block[:], s.opts.ByteDelay); err != nil {
				return err
			}
			state = sndBlockSum

		case sndBlockSum:
			if err := s.ch.WriteByte(Checksum(&block)); err != nil {
				return err
			}
			b, err := s.await(replyTimeout)
			if err != nil {
				if IsTimeout(err) {
					return ErrReceiverNotResponding
				}
				return err
			}
			switch b {
			case Good:
				glog.V(2).Infof("block %d acknowledged", blockNo)
				pending = false
				state = sndBlockLead
			case Bad:
				retries++
				glog.Warningf("block %d rejected by peer, retransmission %d", blockNo, retries)
				if s.opts.MaxRetries > 0 && retries > s.opts.MaxRetries {
					return errors.Errorf("block %d still rejected after %d retransmissions", blockNo, s.opts.MaxRetries)
				}
				state = sndBlockLead
			default:
				return &ProtocolError{State: "checksum verdict", Want: "'G' or 'B'", Got: b}
			}

		case sndFileDone:
			cerr := src.Close()
			src = nil
			if cerr != nil {
				return errors.RichError(cerr)
			}
			glog.V(1).Infof("sent [%s], %d blocks", names[fileIdx], blockNo)
			fileIdx++
			if fileIdx < len(names) {
				state = sndAnnounce
			} else {
				if err := s.ch.WriteByte(XOFF); err != nil {
					return err
				}
				state = sndDone
			}
		}
	}

	return s.ch.Flush()
}
