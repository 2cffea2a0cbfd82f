package dataio

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewSanitizingReader strips a leading UTF-8 byte order mark and replaces
// every invalid UTF-8 byte with '?'. The replacement is a single byte so that
// field widths in the decoded text never grow.
func NewSanitizingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &utf8Sanitizer{src: br}
}

type utf8Sanitizer struct {
	src *bufio.Reader

	// Tail of a rune that did not fit into the caller's buffer.
	pending []byte
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	n := 0
	var buf [utf8.UTFMax]byte
	for n < len(p) {
		if len(s.pending) > 0 {
			c := copy(p[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}

		r, size, err := s.src.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}

		k := 1
		if r == utf8.RuneError && size == 1 {
			buf[0] = '?'
		} else {
			k = utf8.EncodeRune(buf[:], r)
		}
		c := copy(p[n:], buf[:k])
		n += c
		if c < k {
			s.pending = append(s.pending[:0], buf[c:k]...)
		}

		// Hand back what we have rather than block on a slow source.
		if s.src.Buffered() == 0 && len(s.pending) == 0 {
			return n, nil
		}
	}
	return n, nil
}
