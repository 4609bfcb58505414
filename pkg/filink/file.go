package filink

import (
	"io"
	"os"

	"github.com/epsonian/filink/pkg/errors"
)

// Source yields the payload blocks of one outgoing file.
type Source interface {
	// NextBlock fills block with the next BlockSize payload bytes. A short
	// tail at end of file is padded with Pad bytes; a file whose length is
	// an exact multiple of BlockSize yields no extra pad-only block.
	// Returns false once the file is exhausted.
	NextBlock(block *[BlockSize]byte) (bool, error)
	Close() error
}

// Sink accepts the verified payload blocks of one incoming file. Blocks
// arrive exactly once and in order; retransmitted blocks are only handed
// over after their checksum finally matches.
type Sink interface {
	WriteBlock(block *[BlockSize]byte) error
	Close() error
}

type fileSource struct {
	f *os.File
}

// OpenFileSource opens path for sequential block reads.
func OpenFileSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening [%s]", path)
	}
	return &fileSource{f: f}, nil
}

func (s *fileSource) NextBlock(block *[BlockSize]byte) (bool, error) {
	n, err := io.ReadFull(s.f, block[:])
	switch err {
	case nil:
		return true, nil
	case io.EOF:
		return false, nil
	case io.ErrUnexpectedEOF:
		for i := n; i < BlockSize; i++ {
			block[i] = Pad
		}
		return true, nil
	default:
		return false, errors.Wrapf(err, "reading [%s]", s.f.Name())
	}
}

func (s *fileSource) Close() error {
	return s.f.Close()
}

type fileSink struct {
	f *os.File
}

// CreateFileSink creates (or truncates) path for sequential block writes.
func CreateFileSink(path string) (Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating [%s]", path)
	}
	return &fileSink{f: f}, nil
}

func (s *fileSink) WriteBlock(block *[BlockSize]byte) error {
	if _, err := s.f.Write(block[:]); err != nil {
		return errors.Wrapf(err, "writing [%s]", s.f.Name())
	}
	return nil
}

func (s *fileSink) Close() error {
	return s.f.Close()
}
