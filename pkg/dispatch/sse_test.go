package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineBufferReassemblesSplitLines(t *testing.T) {
	t.Parallel()
	var lb lineBuffer

	lines := lb.Feed([]byte("data: {\"a\":"))
	assert.Empty(t, lines)
	assert.Equal(t, "data: {\"a\":", lb.Rest())

	lines = lb.Feed([]byte("1}\n\ndata: next\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, `data: {"a":1}`, lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, "data: next", lines[2])
	assert.Empty(t, lb.Rest())
}

func TestLineBufferCRLF(t *testing.T) {
	t.Parallel()
	var lb lineBuffer

	lines := lb.Feed([]byte("data: one\r\ndata: two\r\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "data: one", lines[0])
	assert.Equal(t, "data: two", lines[1])
}

// Feeding the same stream split at every possible offset must yield the same
// lines as feeding it whole.
func TestLineBufferSplitOffsetInvariance(t *testing.T) {
	t.Parallel()
	stream := []byte("data: {\"x\": \"héllo\"}\n\ndata: {\"y\": 2}\n\ndata: [DONE]\n\n")

	var whole lineBuffer
	want := whole.Feed(stream)

	for offset := 1; offset < len(stream); offset++ {
		var lb lineBuffer
		got := lb.Feed(stream[:offset])
		got = append(got, lb.Feed(stream[offset:])...)
		assert.Equal(t, want, got, "split at offset %d", offset)
	}
}

func TestDataPayload(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line   string
		want   string
		wantOK bool
	}{
		{"data: {\"a\":1}", `{"a":1}`, true},
		{"data:{\"a\":1}", `{"a":1}`, true},
		{"data: [DONE]", "[DONE]", true},
		{"", "", false},
		{": keep-alive comment", "", false},
		{"event: message", "", false},
	}

	for _, tt := range tests {
		got, ok := dataPayload(tt.line)
		assert.Equal(t, tt.wantOK, ok, "line %q", tt.line)
		if ok {
			assert.Equal(t, tt.want, got, "line %q", tt.line)
		}
	}
}
