package mf

import (
	"bytes"
	"os"
	"path/filepath"
)

// Source is one input stream, loaded fully into memory at open time.
// Text decoding walks the line index; binary payload reads consume raw
// bytes from the same buffer. A Source is owned by whoever opened it
// (the unit registry, or an array decode for OPEN/CLOSE files) and is
// never shared across manifest reads.
type Source struct {
	Name string
	Unit int

	data    []byte
	lineOff []int // byte offset of the start of each line
	lineno  int   // 1-based index of the last-returned line; 0 before any read
	rawOff  int   // first unconsumed byte, for binary payload reads
}

// NewSource wraps an in-memory buffer.
func NewSource(name string, data []byte) *Source {
	s := &Source{Name: name, data: data}
	s.index()
	return s
}

// OpenSource reads path in full and returns a Source named after its base
// name. No further I/O happens after this call.
func OpenSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewSource(filepath.Base(path), data), nil
}

func (s *Source) index() {
	if len(s.data) == 0 {
		return
	}
	s.lineOff = append(s.lineOff, 0)
	for {
		i := bytes.IndexByte(s.data[s.lineOff[len(s.lineOff)-1]:], '\n')
		if i < 0 {
			break
		}
		next := s.lineOff[len(s.lineOff)-1] + i + 1
		if next >= len(s.data) {
			break
		}
		s.lineOff = append(s.lineOff, next)
	}
}

// Len returns the number of lines.
func (s *Source) Len() int { return len(s.lineOff) }

// Lineno returns the 1-based index of the last-returned line, 0 before
// any read.
func (s *Source) Lineno() int { return s.lineno }

// AtEnd reports whether every line has been returned.
func (s *Source) AtEnd() bool { return s.lineno >= len(s.lineOff) }

// Remaining returns the number of unread lines.
func (s *Source) Remaining() int { return len(s.lineOff) - s.lineno }

// start of line i (0-based); len(data) past the last line.
func (s *Source) start(i int) int {
	if i >= len(s.lineOff) {
		return len(s.data)
	}
	return s.lineOff[i]
}

// text of line i (0-based), without its line terminator.
func (s *Source) text(i int) string {
	b := s.data[s.start(i):s.start(i+1)]
	b = bytes.TrimRight(b, "\r\n")
	return string(b)
}

// next returns the next unread line and advances the cursor.
func (s *Source) next() (string, error) {
	if s.lineno >= len(s.lineOff) {
		return "", ErrUnexpectedEOF
	}
	ln := s.text(s.lineno)
	s.lineno++
	s.rawOff = s.start(s.lineno)
	return ln, nil
}

// current returns the last-returned line without advancing; empty before
// any read.
func (s *Source) current() string {
	if s.lineno == 0 {
		return ""
	}
	return s.text(s.lineno - 1)
}

// rewind steps the cursor back by exactly one line.
func (s *Source) rewind() {
	if s.lineno > 0 {
		s.lineno--
		s.rawOff = s.start(s.lineno)
	}
}

// readRaw consumes exactly n raw bytes. When the previous operation was a
// line read, consumption starts at the next line boundary; afterwards the
// line cursor is advanced past everything the raw read touched.
func (s *Source) readRaw(n int) ([]byte, error) {
	start := s.rawOff
	if ls := s.start(s.lineno); ls > start {
		start = ls
	}
	if n < 0 || start+n > len(s.data) {
		return nil, ErrUnexpectedEOF
	}
	b := s.data[start : start+n]
	s.rawOff = start + n
	for s.lineno < len(s.lineOff) && s.start(s.lineno) < s.rawOff {
		s.lineno++
	}
	return b, nil
}
