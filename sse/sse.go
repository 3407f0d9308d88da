// Package sse implements the server-sent events framing used by the career
// backend: blank-line delimited frames carrying "event: " and "data: "
// lines. It knows nothing about the JSON payloads inside frames.
package sse

import "errors"

// DefaultEvent is the event type of a frame without an "event: " line.
const DefaultEvent = "message"

// Frame is one decoded event. Data is the raw payload, not parsed.
type Frame struct {
	Event string
	Data  string
}

// DefaultMaxFrame bounds how many bytes a Reader holds while waiting for
// the end of a frame.
const DefaultMaxFrame = 4 << 20

// ErrFrameTooLarge is returned by Reader.Next when the bytes held back for
// an unfinished frame exceed the maximum frame size.
var ErrFrameTooLarge = errors.New("sse: frame too large")
