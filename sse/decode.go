package sse

import "strings"

const (
	eventPrefix = "event: "
	dataPrefix  = "data: "
)

// Decode parses one raw frame. The "event: " value is trimmed, the
// "data: " value is kept verbatim, and when a line repeats the last one
// wins. Comment lines and unknown fields are ignored.
//
// The second result is false when the frame carries no data, as with
// keepalive or comment-only frames. Callers should skip those.
func Decode(raw string) (Frame, bool) {
	f := Frame{Event: DefaultEvent}
	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.HasPrefix(line, eventPrefix):
			f.Event = strings.TrimSpace(line[len(eventPrefix):])
		case strings.HasPrefix(line, dataPrefix):
			f.Data = line[len(dataPrefix):]
		}
	}
	if f.Data == "" {
		return Frame{}, false
	}
	return f, true
}
