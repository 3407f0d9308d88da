package sse_test

import (
	"testing"

	"github.com/iklavya/coach/sse"
	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want sse.Frame
		ok   bool
	}{
		{
			name: "default event",
			raw:  `data: {"text": "Hi"}`,
			want: sse.Frame{Event: sse.DefaultEvent, Data: `{"text": "Hi"}`},
			ok:   true,
		},
		{
			name: "named event",
			raw:  "event: analysis\ndata: {\"analysis_markdown\": \"# Done\"}",
			want: sse.Frame{Event: "analysis", Data: `{"analysis_markdown": "# Done"}`},
			ok:   true,
		},
		{
			name: "event value trimmed",
			raw:  "event:  error  \ndata: {}",
			want: sse.Frame{Event: "error", Data: "{}"},
			ok:   true,
		},
		{
			name: "data kept verbatim",
			raw:  "data:   padded  ",
			want: sse.Frame{Event: sse.DefaultEvent, Data: "  padded  "},
			ok:   true,
		},
		{
			name: "last line wins",
			raw:  "event: a\nevent: b\ndata: 1\ndata: 2",
			want: sse.Frame{Event: "b", Data: "2"},
			ok:   true,
		},
		{
			name: "comments and unknown fields ignored",
			raw:  ": ping\nid: 7\nretry: 100\ndata: x",
			want: sse.Frame{Event: sse.DefaultEvent, Data: "x"},
			ok:   true,
		},
		{name: "keepalive", raw: ": keepalive"},
		{name: "event without data", raw: "event: done"},
		{name: "empty data", raw: "data: "},
		{name: "blank", raw: ""},
		{name: "missing space after colon", raw: "data:x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := sse.Decode(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_DefaultAppliesPerFrame(t *testing.T) {
	t.Parallel()
	first, ok := sse.Decode("event: analysis\ndata: {}")
	assert.True(t, ok)
	assert.Equal(t, "analysis", first.Event)

	second, ok := sse.Decode("data: {}")
	assert.True(t, ok)
	assert.Equal(t, sse.DefaultEvent, second.Event)
}
