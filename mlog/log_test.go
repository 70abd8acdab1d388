package mlog

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLog(t *testing.T) {
	var out bytes.Buffer
	SetOutput(&out)
	defer SetOutput(os.Stderr)
	defer SetConfig(map[string]Level{"": LevelError})

	log := New("dkim")

	SetConfig(map[string]Level{"": LevelError})
	if log.Debug("hidden") {
		t.Fatalf("debug line logged with default level error")
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}

	SetConfig(map[string]Level{"": LevelError, "dkim": LevelDebug})
	if !log.Debugx("parse result", errors.New("bad tag"), Field("tag", "v"), Field("headers", []string{"from", "to"})) {
		t.Fatalf("debug line not logged with package level debug")
	}
	exp := "debug: parse result: bad tag (pkg: dkim; tag: v; headers: [from,to])\n"
	if got := out.String(); got != exp {
		t.Fatalf("got %q, expected %q", got, exp)
	}

	// Package level overrides default, also when lower.
	out.Reset()
	SetConfig(map[string]Level{"": LevelDebug, "dkim": LevelError})
	if log.Info("hidden") {
		t.Fatalf("info line logged with package level error")
	}
	if !New("other").Info("shown") {
		t.Fatalf("info line not logged with default level debug")
	}

	out.Reset()
	Logfmt = true
	defer func() { Logfmt = false }()
	log.Fields(Field("cmd", "parse")).Print("signature", Field("domain", "example.org"), Field("n", 3))
	exp = "l=print m=signature cmd=parse pkg=dkim domain=example.org n=3\n"
	if got := out.String(); got != exp {
		t.Fatalf("got %q, expected %q", got, exp)
	}

	if got := logfmtValue("two words"); got != `"two words"` {
		t.Fatalf("logfmt value, got %s", got)
	}
	if got := stringValue(false, []int{1, 2}); !strings.HasPrefix(got, "[1;2") {
		t.Fatalf("slice value, got %s", got)
	}
}
