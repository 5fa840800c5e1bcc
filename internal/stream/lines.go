package stream

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// LineSplitter turns arbitrarily chunked bytes into complete lines. A trailing
// partial line is held until the next Feed or Flush. Splitting happens on raw
// bytes, so a multi-byte UTF-8 sequence cut by a chunk boundary is
// reassembled before it is decoded.
type LineSplitter struct {
	buf []byte
}

// Feed appends p and returns every line it completed, without terminators.
func (s *LineSplitter) Feed(p []byte) []string {
	s.buf = append(s.buf, p...)
	var lines []string
	start := 0
	for {
		i := bytes.IndexByte(s.buf[start:], '\n')
		if i < 0 {
			break
		}
		lines = append(lines, decodeLine(s.buf[start:start+i]))
		start += i + 1
	}
	if start > 0 {
		rest := make([]byte, len(s.buf)-start)
		copy(rest, s.buf[start:])
		s.buf = rest
	}
	return lines
}

// Flush returns the buffered partial line, if any, and resets the splitter.
func (s *LineSplitter) Flush() (string, bool) {
	if len(s.buf) == 0 {
		return "", false
	}
	line := decodeLine(s.buf)
	s.buf = nil
	return line, true
}

// Pending reports how many bytes wait for a newline.
func (s *LineSplitter) Pending() int {
	return len(s.buf)
}

func decodeLine(b []byte) string {
	b = bytes.TrimSuffix(b, []byte{'\r'})
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
