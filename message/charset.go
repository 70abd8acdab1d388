package message

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// ErrCharset is returned when decoding text in an unknown charset.
var ErrCharset = errors.New("unknown charset")

// DecodeCharset returns buf, which is in charset, as a UTF-8 string. Charset
// names are looked up in the MIME and IANA indexes, case-insensitively. An empty
// charset, "us-ascii" and "utf-8" return buf as is.
func DecodeCharset(charset string, buf []byte) (string, error) {
	switch strings.ToLower(charset) {
	case "", "us-ascii", "utf-8":
		return string(buf), nil
	}
	enc, _ := ianaindex.MIME.Encoding(charset)
	if enc == nil {
		enc, _ = ianaindex.IANA.Encoding(charset)
	}
	if enc == nil {
		return "", fmt.Errorf("%w: %q", ErrCharset, charset)
	}
	r, err := enc.NewDecoder().Bytes(buf)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", charset, err)
	}
	return string(r), nil
}
