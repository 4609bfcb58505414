package filink

import "time"

// The FILINK control alphabet. Every value is fixed by the UTY-ROM
// implementation; none of these may change without breaking interop with
// FILINK.COM / QXFILINK.COM peers.
const (
	STX  byte = 0x02 // start of data block
	ETX  byte = 0x03 // end of file
	EOT  byte = 0x04 // about to send filename
	ENQ  byte = 0x05 // end of filename transmission
	BS   byte = 0x08 // ack filename request
	TAB  byte = 0x09 // ready for file data
	XOFF byte = 0x13 // session complete

	ReadyReq byte = 'R' // sender ready
	ReadyAck byte = 'S' // receiver ready
	Good     byte = 'G' // good / proceed
	Bad      byte = 'B' // bad checksum, retransmit
	Proceed  byte = 'P' // proceed with block
	NakBlock byte = 'N' // negative ack while waiting for STX/ETX
	Reject   byte = 'X' // reject filename / restart announcement

	// Pad fills the tail of the last block of a file whose length is not a
	// multiple of BlockSize. 0x1A is the CP/M EOF marker.
	Pad byte = 0x1A
)

// BlockSize is the fixed payload size of every data block on the wire.
const BlockSize = 128

// WireNameLen is the size of a filename on the wire: 8 name bytes plus
// 3 extension bytes, space padded, no dot.
const WireNameLen = 11

// Protocol timeout bounds. The 5 s bound applies only to the initial ready
// handshake; every later await is bounded at 2 s, per byte where a state
// reads more than one.
const (
	handshakeTimeout = 5 * time.Second
	replyTimeout     = 2 * time.Second
)
