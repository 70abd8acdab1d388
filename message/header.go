package message

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrHeaderStart = errors.New("malformed header, starts with space/tab")
	ErrHeaderName  = errors.New("malformed header field name")
)

// Header is a header field of a message.
type Header struct {
	Key   string // Key in original case.
	LKey  string // Key in lower-case, for case-insensitive matching.
	Value string // Literal value, possibly spanning multiple lines, excluding leading key and colon, including line endings.
	Raw   string // Like Value, but including key and colon.
}

// ParseHeaders reads header fields from br, until an empty line or the end of
// the input. Lines can end with CRLF or a bare LF.
func ParseHeaders(br *bufio.Reader) ([]Header, error) {
	var l []Header
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line == "" || line == "\r\n" || line == "\n" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(l) == 0 {
				return nil, ErrHeaderStart
			}
			l[len(l)-1].Value += line
			l[len(l)-1].Raw += line
		} else {
			k, v, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("%w: header without colon", ErrHeaderName)
			}
			k = strings.TrimRight(k, " \t")
			if k == "" {
				return nil, fmt.Errorf("%w: empty header key", ErrHeaderName)
			}
			for _, c := range k {
				if c <= ' ' || c >= 0x7f {
					return nil, fmt.Errorf("%w: invalid character %q", ErrHeaderName, c)
				}
			}
			l = append(l, Header{k, strings.ToLower(k), v, line})
		}
		if err == io.EOF {
			break
		}
	}
	return l, nil
}

// FindHeaders returns the header fields with key, matched case-insensitively.
func FindHeaders(l []Header, key string) []Header {
	key = strings.ToLower(key)
	var r []Header
	for _, h := range l {
		if h.LKey == key {
			r = append(r, h)
		}
	}
	return r
}
