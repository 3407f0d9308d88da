package sse

import "bytes"

var delimiter = []byte("\n\n")

// Splitter cuts a byte stream into raw frames on blank lines. Chunks may be
// split at any byte, including inside the delimiter; the frames produced do
// not depend on where the splits fall.
//
// The zero value is ready to use. A Splitter is not safe for concurrent use.
type Splitter struct {
	buf []byte
	// scanned is how much of buf has already been searched without finding
	// a delimiter.
	scanned int
}

// Push appends chunk and returns every frame it completed, in order. Pieces
// between consecutive delimiters are returned even when blank.
func (s *Splitter) Push(chunk []byte) []string {
	s.buf = append(s.buf, chunk...)

	var frames []string
	start := 0
	// Back up one byte so a "\n" ending the previous chunk can pair with a
	// "\n" starting this one.
	from := max(s.scanned-1, 0)
	for {
		i := bytes.Index(s.buf[from:], delimiter)
		if i < 0 {
			break
		}
		end := from + i
		frames = append(frames, string(s.buf[start:end]))
		start = end + len(delimiter)
		from = start
	}

	if start > 0 {
		s.buf = append(s.buf[:0], s.buf[start:]...)
	}
	s.scanned = len(s.buf)
	return frames
}

// Flush returns the unterminated remainder and resets the Splitter.
func (s *Splitter) Flush() string {
	rest := string(s.buf)
	s.buf = s.buf[:0]
	s.scanned = 0
	return rest
}

// Buffered returns the number of bytes held back waiting for a delimiter.
func (s *Splitter) Buffered() int {
	return len(s.buf)
}
