package filink

import (
	"strings"

	"github.com/epsonian/filink/pkg/errors"
)

// ToWire converts a logical filename to its 11-byte wire form: 8 name
// bytes then 3 extension bytes, uppercase, space padded, no dot.
//
// The split is at the FIRST dot, matching the historical implementations,
// so "archive.tar.gz" becomes "ARCHIVE TAR". Stem and extension are
// truncated to 8 and 3 bytes; the mapping is lossy for long names and for
// case. Only printable ASCII survives the trip, anything else is an error.
func ToWire(name string) (wire [WireNameLen]byte, err error) {
	stem, ext := name, ""
	if i := strings.IndexByte(name, '.'); i >= 0 {
		stem, ext = name[:i], name[i+1:]
	}
	if len(stem) > 8 {
		stem = stem[:8]
	}
	if len(ext) > 3 {
		ext = ext[:3]
	}

	for i := range wire {
		wire[i] = ' '
	}
	if err = packUpper(wire[:8], stem); err != nil {
		return wire, errors.Wrapf(err, "filename [%s]", name)
	}
	if err = packUpper(wire[8:], ext); err != nil {
		return wire, errors.Wrapf(err, "filename [%s]", name)
	}
	return wire, nil
}

func packUpper(dst []byte, s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7E {
			return errors.Errorf("byte 0x%02X not representable on the wire", c)
		}
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		dst[i] = c
	}
	return nil
}

// FromWire restores a logical filename from its wire form: trailing
// padding stripped, ASCII lowercased, a dot inserted before a non-empty
// extension. Note the raw wire bytes, not this rendering, are what peers
// compare during the echo phase.
func FromWire(wire [WireNameLen]byte) string {
	name := unpackLower(wire[:8])
	ext := unpackLower(wire[8:])
	if len(ext) > 0 {
		return name + "." + ext
	}
	return name
}

func unpackLower(field []byte) string {
	end := len(field)
	for end > 0 && field[end-1] == ' ' {
		end--
	}
	buf := make([]byte, end)
	for i := 0; i < end; i++ {
		c := field[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		buf[i] = c
	}
	return string(buf)
}
