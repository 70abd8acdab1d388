package message

import (
	"errors"
	"testing"
)

func TestDecodeCharset(t *testing.T) {
	test := func(charset string, buf []byte, exp string, expErr error) {
		t.Helper()
		s, err := DecodeCharset(charset, buf)
		if (err == nil) != (expErr == nil) || expErr != nil && !errors.Is(err, expErr) {
			t.Fatalf("decode %q: got err %v, expected %v", charset, err, expErr)
		}
		if s != exp {
			t.Fatalf("decode %q: got %q, expected %q", charset, s, exp)
		}
	}

	test("", []byte("v=1"), "v=1", nil)
	test("US-ASCII", []byte("v=1"), "v=1", nil)
	test("utf-8", []byte("i=møx@example.org"), "i=møx@example.org", nil)
	test("iso-8859-1", []byte{'t', 0xe9, 's', 't'}, "tést", nil)
	test("windows-1252", []byte("d=example.org"), "d=example.org", nil)
	test("no-such-charset", []byte("x"), "", ErrCharset)
}
