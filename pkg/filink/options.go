package filink

import "time"

// Options configures an endpoint. The zero values reproduce the historical
// FILINK behavior exactly.
type Options struct {
	// ByteDelay paces the sender's payload bytes, for slow peers at high
	// baud rates. Control bytes are never delayed.
	ByteDelay time.Duration

	// MaxRetries bounds how often one block may be retransmitted after a
	// bad-checksum reply. Zero means unbounded, which is what the original
	// implementations do.
	MaxRetries int

	// OpenSource / OpenSink replace the local-filesystem file access,
	// mainly for tests.
	OpenSource func(path string) (Source, error)
	OpenSink   func(path string) (Sink, error)
}

var defaultOptions = Options{
	OpenSource: OpenFileSource,
	OpenSink:   CreateFileSink,
}

type Option func(*Options)

// WithByteDelay inserts a pause between successive payload bytes.
func WithByteDelay(d time.Duration) Option {
	return func(o *Options) { o.ByteDelay = d }
}

// WithMaxRetries bounds per-block retransmissions; 0 restores the
// unbounded default.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithSourceOpener substitutes how the sender opens files.
func WithSourceOpener(open func(path string) (Source, error)) Option {
	return func(o *Options) { o.OpenSource = open }
}

// WithSinkOpener substitutes how the receiver creates files.
func WithSinkOpener(open func(path string) (Sink, error)) Option {
	return func(o *Options) { o.OpenSink = open }
}
