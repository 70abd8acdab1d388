package message

import (
	"bytes"
	"fmt"
	"strings"
)

// HeaderWriter helps create headers, folding to the next line when it would
// become too large. Useful for creating DKIM-Signature headers. The zero value
// is ready to use.
type HeaderWriter struct {
	b        strings.Builder
	lineLen  int
	nonfirst bool
}

// maxLineLen is the recommended line length limit, excluding CRLF.
const maxLineLen = 78

// Addf formats the string and calls Add.
func (w *HeaderWriter) Addf(separator string, format string, args ...any) {
	w.Add(separator, fmt.Sprintf(format, args...))
}

// Add adds texts, each separated by separator. Individual elements in text are
// not wrapped. When an element does not fit on the current line, the separator
// is replaced by a fold.
func (w *HeaderWriter) Add(separator string, texts ...string) {
	for _, text := range texts {
		n := len(text)
		if w.nonfirst && w.lineLen > 1 && w.lineLen+len(separator)+n > maxLineLen {
			w.fold()
		} else if w.nonfirst && separator != "" {
			w.b.WriteString(separator)
			w.lineLen += len(separator)
		}
		w.b.WriteString(text)
		w.lineLen += n
		w.nonfirst = true
	}
}

// AddWrap adds data. If text is set, wrapping happens at space/tab, otherwise
// anywhere in the buffer (e.g. for base64 data).
func (w *HeaderWriter) AddWrap(buf []byte, text bool) {
	for len(buf) > 0 {
		n := maxLineLen - w.lineLen
		if n <= 0 {
			w.fold()
			continue
		}
		line := buf
		if len(buf) > n {
			if text {
				if i := bytes.LastIndexAny(buf[:n], " \t"); i > 0 {
					n = i
				} else if i = bytes.IndexAny(buf, " \t"); i > 0 {
					n = i
				}
			}
			line, buf = buf[:n], buf[n:]
		} else {
			buf = nil
		}
		w.b.Write(line)
		w.lineLen += len(line)
		w.nonfirst = true
		if len(buf) > 0 {
			w.fold()
		}
	}
}

func (w *HeaderWriter) fold() {
	w.b.WriteString("\r\n\t")
	w.lineLen = 1
}

// Newline starts a new line.
func (w *HeaderWriter) Newline() {
	w.fold()
	w.nonfirst = true
}

// String returns the header in string form, ending with \r\n.
func (w *HeaderWriter) String() string {
	return w.b.String() + "\r\n"
}
