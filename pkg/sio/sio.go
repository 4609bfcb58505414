// Package sio adapts a real serial port to the filink byte channel.
//
// It owns everything the protocol core deliberately does not: device
// naming, baud rate, word format, and the mapping of per-byte timeouts
// onto the driver. The core never sees a serial.Port, only the channel.
package sio

import (
	"time"

	"go.bug.st/serial"

	"github.com/epsonian/filink/pkg/errors"
	"github.com/epsonian/filink/pkg/filink"
	"github.com/golang/glog"
)

// Config is the serial line setup, as it arrives from the command line.
type Config struct {
	Device   string
	Baud     int
	DataBits int    // 5..8
	Parity   string // none | odd | even
	StopBits int    // 1 | 2
}

var _ filink.ByteChannel = (*Port)(nil)

// Port is a filink.ByteChannel over one open serial device.
type Port struct {
	p serial.Port

	// last timeout applied to the driver, to skip redundant ioctls on the
	// per-byte read path
	timeout time.Duration
}

// Open opens and configures the device in cfg. The returned Port is ready
// to hand to a sender or receiver.
func Open(cfg Config) (*Port, error) {
	mode, err := modeFor(cfg)
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "opening serial port [%s]", cfg.Device)
	}
	glog.V(1).Infof("opened [%s] at %d baud, %d%s%d",
		cfg.Device, cfg.Baud, cfg.DataBits, cfg.Parity[:1], cfg.StopBits)
	// Drop whatever the line collected before we got here, so stale bytes
	// cannot be mistaken for handshake replies.
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, errors.Wrapf(err, "resetting [%s]", cfg.Device)
	}
	return &Port{p: p, timeout: -1}, nil
}

func modeFor(cfg Config) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: cfg.DataBits,
	}
	if cfg.DataBits < 5 || cfg.DataBits > 8 {
		return nil, errors.Errorf("invalid data bits %d", cfg.DataBits)
	}
	switch cfg.Parity {
	case "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		return nil, errors.Errorf("invalid parity [%s]", cfg.Parity)
	}
	switch cfg.StopBits {
	case 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, errors.Errorf("invalid stop bits %d", cfg.StopBits)
	}
	return mode, nil
}

func (p *Port) ReadByte(timeout time.Duration) (byte, error) {
	if timeout != p.timeout {
		if err := p.p.SetReadTimeout(timeout); err != nil {
			return 0, errors.Wrap(err, "setting read timeout")
		}
		p.timeout = timeout
	}
	var buf [1]byte
	n, err := p.p.Read(buf[:])
	if err != nil {
		return 0, errors.Wrap(err, "serial read")
	}
	if n == 0 {
		// the driver signals an expired timeout as a zero-length read
		return 0, filink.ErrTimeout
	}
	return buf[0], nil
}

func (p *Port) WriteByte(b byte) error {
	buf := [1]byte{b}
	return p.write(buf[:])
}

func (p *Port) WriteBytes(buf []byte, perByteDelay time.Duration) error {
	if perByteDelay <= 0 {
		return p.write(buf)
	}
	for i, b := range buf {
		if i > 0 {
			time.Sleep(perByteDelay)
		}
		one := [1]byte{b}
		if err := p.write(one[:]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Port) write(buf []byte) error {
	for len(buf) > 0 {
		n, err := p.p.Write(buf)
		if err != nil {
			return errors.Wrap(err, "serial write")
		}
		buf = buf[n:]
	}
	return nil
}

func (p *Port) Flush() error {
	if err := p.p.Drain(); err != nil {
		return errors.Wrap(err, "draining serial output")
	}
	return nil
}

func (p *Port) Close() error {
	return p.p.Close()
}
