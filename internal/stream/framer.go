package stream

import "strings"

// Framer splits decoded text into newline-delimited records. Text after the
// last newline is kept until a later Push completes it.
type Framer struct {
	buf string
}

// Push appends text to the buffer and returns every line it completes, in
// order and without the trailing '\n'. Scanning repeats until no newline is
// left in the buffer.
func (f *Framer) Push(text string) []string {
	if text == "" {
		return nil
	}
	f.buf += text

	var lines []string
	for {
		idx := strings.IndexByte(f.buf, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, f.buf[:idx])
		f.buf = f.buf[idx+1:]
	}
	return lines
}

// Remainder returns the undelimited tail currently buffered
func (f *Framer) Remainder() string {
	return f.buf
}

// Reset drops the buffered tail
func (f *Framer) Reset() {
	f.buf = ""
}
