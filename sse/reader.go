package sse

import "io"

const readSize = 4096

// Reader yields payload frames from an io.Reader one at a time, in wire
// order. Frames are decoded lazily as Next is called.
type Reader struct {
	r        io.Reader
	maxFrame int
	split   Splitter
	chunk   []byte
	pending []string
	err     error // sticky read error, io.EOF once the source is drained
}

// ReaderOption configures a [Reader].
type ReaderOption func(*Reader)

// WithMaxFrame sets the maximum number of bytes held for one unfinished
// frame. Values <= 0 restore DefaultMaxFrame.
func WithMaxFrame(n int) ReaderOption {
	return func(r *Reader) {
		if n <= 0 {
			n = DefaultMaxFrame
		}
		r.maxFrame = n
	}
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rd := &Reader{r: r, maxFrame: DefaultMaxFrame, chunk: make([]byte, readSize)}
	for _, o := range opts {
		o(rd)
	}
	return rd
}

// Next returns the next frame that carries data. It returns io.EOF after
// the last frame. Any other error comes from the underlying reader and is
// returned as is, after the frames completed before it.
//
// When the source ends without a trailing blank line, the remainder is
// decoded once and returned if it carries data. Once more than the maximum
// frame size is held without a delimiter, Next stops reading and returns
// ErrFrameTooLarge after the frames completed before it.
func (r *Reader) Next() (Frame, error) {
	for {
		for len(r.pending) > 0 {
			raw := r.pending[0]
			r.pending = r.pending[1:]
			if f, ok := Decode(raw); ok {
				return f, nil
			}
		}
		if r.err != nil {
			return Frame{}, r.err
		}

		n, err := r.r.Read(r.chunk)
		if n > 0 {
			r.pending = r.split.Push(r.chunk[:n])
			if r.split.Buffered() > r.maxFrame {
				r.split = Splitter{}
				r.err = ErrFrameTooLarge
				continue
			}
		}
		switch {
		case err == io.EOF:
			if rest := r.split.Flush(); rest != "" {
				r.pending = append(r.pending, rest)
			}
			r.err = io.EOF
		case err != nil:
			r.err = err
		}
	}
}
