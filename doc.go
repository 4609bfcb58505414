// Package filink implements the FILINK block file transfer protocol of the
// Epson PX-8 (Geneva) UTY-ROM, for exchanging files over an RS-232C serial
// link.
//
// FILINK is asymmetric: a sender drives the session and a receiver answers
// it, one control byte at a time. After an initial ready handshake the
// sender announces each file by spelling its 11-byte 8.3 name, the receiver
// echoing every byte back, then file content moves in fixed 128-byte blocks
// each followed by a one-byte XOR checksum. A bad checksum is answered with
// a retransmit request rather than an abort, so transfers survive line
// noise. The session ends with a single XOFF byte.
//
// Both endpoint state machines live in pkg/filink and speak through a small
// byte-channel interface, so they run unchanged against a real serial port
// (pkg/sio) or an in-memory pipe. The protocol interoperates with the
// historical counterparts (FILINK.COM, QXFILINK.COM, EPSLINK.ASM), which
// means every byte value, timeout and padding rule here is load-bearing.
package filink
