package dispatch

import (
	"bytes"
	"strings"
)

// lineBuffer reassembles SSE lines from arbitrary byte chunks. Network reads
// split payloads at arbitrary offsets, so a trailing fragment without its
// newline stays buffered until the next feed completes it.
type lineBuffer struct {
	buf bytes.Buffer
}

// Feed appends raw bytes and returns every complete line received so far.
// Line endings may be \n or \r\n.
func (b *lineBuffer) Feed(p []byte) []string {
	b.buf.Write(p)

	var lines []string
	for {
		data := b.buf.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return lines
		}
		line := string(bytes.TrimSuffix(data[:idx], []byte{'\r'}))
		b.buf.Next(idx + 1)
		lines = append(lines, line)
	}
}

// Rest returns whatever partial line is still buffered
func (b *lineBuffer) Rest() string {
	return b.buf.String()
}

// dataPayload extracts the payload of an SSE data line. Non-data lines
// (blank separators, comments, event fields) report ok=false.
func dataPayload(line string) (string, bool) {
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	return strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "), true
}
