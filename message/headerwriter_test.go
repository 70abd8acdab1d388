package message

import (
	"strings"
	"testing"
)

func TestHeaderWriter(t *testing.T) {
	checkLines := func(s string) {
		t.Helper()
		if !strings.HasSuffix(s, "\r\n") {
			t.Fatalf("header %q does not end with crlf", s)
		}
		for _, line := range strings.Split(strings.TrimSuffix(s, "\r\n"), "\r\n") {
			if len(line) > maxLineLen {
				t.Fatalf("line %q longer than %d", line, maxLineLen)
			}
		}
	}

	var w HeaderWriter
	w.Add("", "DKIM-Signature: v=1;")
	w.Addf(" ", "a=%s;", "rsa-sha256")
	w.Add(" ", "d=example.org;", "s=selector;")
	if got, exp := w.String(), "DKIM-Signature: v=1; a=rsa-sha256; d=example.org; s=selector;\r\n"; got != exp {
		t.Fatalf("got %q, expected %q", got, exp)
	}

	w = HeaderWriter{}
	w.Add("", "DKIM-Signature: v=1;")
	for i := 0; i < 20; i++ {
		w.Add(" ", "h=from:to:subject;")
	}
	s := w.String()
	checkLines(s)
	if n := strings.Count(s, "\r\n\t"); n == 0 {
		t.Fatalf("expected folded header, got %q", s)
	}
	if got := strings.ReplaceAll(s, "\r\n\t", " "); got != "DKIM-Signature: v=1;"+strings.Repeat(" h=from:to:subject;", 20)+"\r\n" {
		t.Fatalf("unexpected header after unfolding, got %q", got)
	}

	w = HeaderWriter{}
	w.Add("", "b=")
	data := strings.Repeat("ABCDEFGHIJ", 30)
	w.AddWrap([]byte(data), false)
	s = w.String()
	checkLines(s)
	if got := strings.ReplaceAll(strings.TrimSuffix(s, "\r\n"), "\r\n\t", ""); got != "b="+data {
		t.Fatalf("wrapped data mismatch, got %q", got)
	}

	w = HeaderWriter{}
	w.Add("", "Subject:")
	text := strings.Repeat("word ", 40)
	w.AddWrap([]byte(text), true)
	s = w.String()
	checkLines(s)
	if got := strings.ReplaceAll(strings.TrimSuffix(s, "\r\n"), "\r\n\t", ""); got != "Subject:"+text {
		t.Fatalf("wrapped text mismatch, got %q", got)
	}

	w = HeaderWriter{}
	w.Add("", "X-Test: a")
	w.Newline()
	w.Add(" ", "b")
	if got, exp := w.String(), "X-Test: a\r\n\t b\r\n"; got != exp {
		t.Fatalf("got %q, expected %q", got, exp)
	}
}
