package streaming

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ChunkSize bounds a single read from disk.
const ChunkSize = 512 * 1024

var bufferPool = &sync.Pool{
	New: func() interface{} {
		b := make([]byte, ChunkSize)
		return &b
	},
}

// FileStream emits one byte range of one file as a finite sequence of
// chunks. Reads are lazy: each chunk hits the disk only when Next is
// called, so the consumer's pace governs read pacing and at most one chunk
// is buffered at a time.
//
// A FileStream is consumed once and is not safe for concurrent use. Close
// releases the file handle; Next closes the stream itself on every error
// return, io.EOF included, so looping until Next fails never leaks the
// handle. Calling Close as well is still fine.
type FileStream struct {
	file      *os.File
	remaining int64
	buf       *[]byte
	zeroReads int
	closed    bool
}

// OpenRange opens path read-only and positions the stream at r.Start.
func OpenRange(path string, r ByteRange) (*FileStream, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if _, err := file.Seek(r.Start, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seeking to %d: %w", r.Start, err)
	}

	return &FileStream{
		file:      file,
		remaining: r.Length(),
		buf:       bufferPool.Get().(*[]byte),
	}, nil
}

// Next returns the next chunk, at most ChunkSize bytes. The slice is valid
// only until the following Next or Close call. After the full range has
// been emitted Next returns io.EOF; if the file ends before the range does
// it returns io.ErrUnexpectedEOF.
func (s *FileStream) Next() ([]byte, error) {
	if s.closed {
		return nil, os.ErrClosed
	}
	if s.remaining <= 0 {
		s.Close()
		return nil, io.EOF
	}

	buf := *s.buf
	for {
		n := int64(len(buf))
		if s.remaining < n {
			n = s.remaining
		}

		read, err := s.file.Read(buf[:n])
		if read > 0 {
			s.zeroReads = 0
			s.remaining -= int64(read)
			return buf[:read], nil
		}

		if errors.Is(err, io.EOF) {
			s.Close()
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("reading chunk: %w", err)
		}

		// Zero bytes and no error. Tolerate one such read, treat the second
		// in a row as a truncated file.
		s.zeroReads++
		if s.zeroReads >= 2 {
			s.Close()
			return nil, io.ErrUnexpectedEOF
		}
	}
}

// Close releases the file handle and returns the chunk buffer to the pool.
// Safe to call more than once.
func (s *FileStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.buf != nil {
		bufferPool.Put(s.buf)
		s.buf = nil
	}

	return s.file.Close()
}
