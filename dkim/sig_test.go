package dkim

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestSigString(t *testing.T) {
	roundtrip := func(s string) {
		t.Helper()
		sig, err := Parse(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if r := sig.String(); r != s {
			t.Fatalf("string:\ngot      %q\nexpected %q", r, s)
		}
	}

	const prefix = "v=1; a=rsa-sha1; d=dkim.example; s=default; "
	const suffix = "h=from:to:subject:date; " + validSuffix
	roundtrip(prefix + suffix)
	roundtrip(prefix + "c=relaxed; " + suffix)
	roundtrip(prefix + "c=simple/relaxed; " + suffix)
	roundtrip(prefix + "c=relaxed/relaxed; " + suffix)
	roundtrip(prefix + "q=dns/txt:other; i=user@dkim.example; t=1117574938; x=1118006938; " + "h=from; z=From:user@dkim.example|Subject:a=20b=3B=7Cc; l=0; " + validSuffix + "; x_new=1; other=a b")

	test := func(s, exp string) {
		t.Helper()
		sig, err := Parse(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if r := sig.String(); r != exp {
			t.Fatalf("string:\ngot      %q\nexpected %q", r, exp)
		}
	}

	// Domain is lower case, default canonicalization and query method left out,
	// explicit simple canonicalization too.
	test(
		"v=1; a=rsa-sha1; d=EXAMPLE.com; s=default; c=simple/simple; q=dns/txt; h=from:to:subject:date; "+validSuffix,
		"v=1; a=rsa-sha1; d=example.com; s=default; h=from:to:subject:date; "+validSuffix,
	)
	// Tags are written in fixed order, unknown tags last in original order.
	test(
		"zz=2; "+validSuffix+"; h=From:To; c=relaxed/simple; s=sel; d=example.org; a=ed25519-sha256; aa=1; v=1",
		"v=1; a=ed25519-sha256; d=example.org; s=sel; c=relaxed; h=from:to; "+validSuffix+"; zz=2; aa=1",
	)
	test(gmailSig, "v=1; a=rsa-sha256; d=gmail.com; s=20120113; c=relaxed/relaxed; h=mime-version:date:message-id:subject:from:to:content-type; bh=DrlXO8ocnosZnW5ZN7P4S/fIdR8vwHj0TyzoPISZF2Q=; b="+gmailData)
	test(rfcExampleSig, "v=1; a=rsa-sha256; d=example.net; s=brisbane; i=@eng.example.net; t=1117574938; x=1118006938; h=from:to:subject:date; z=From:foo@eng.example.net|To:joe@example.com|Subject:demo=20run|Date:July=205,=202005=203:44:08=20PM=20-0700; bh=MTIzNDU2Nzg5MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTI=; b=dzdVyOfAKCdLXdJOc9G2q8LoXSlEniSbav+yuU4zGeeruD00lszZVoG4ZHRNiYzR")
}

func TestSigStringFields(t *testing.T) {
	test := func(sig *Sig, exp string) {
		t.Helper()
		if r := sig.String(); r != exp {
			t.Fatalf("string:\ngot      %q\nexpected %q", r, exp)
		}
	}

	sig := NewSig()
	sig.Algorithm = "rsa-sha1"
	sig.Domain = "example.δοκιμή"
	sig.Selector = "ουτοπία"
	sig.Headers = []string{"from", "to", "subject", "date"}
	test(sig, "v=1; a=rsa-sha1; d=example.xn--jxalpdlp; s=xn--kxae4bafwg; h=from:to:subject:date; bh=; b=")

	sig.Domain = "20120113.org"
	sig.Selector = "20120113"
	test(sig, "v=1; a=rsa-sha1; d=20120113.org; s=20120113; h=from:to:subject:date; bh=; b=")

	sig.Domain = "example.org"
	sig.Selector = "sel_2024"
	sig.Canonicalization = Canonicalization{"relaxed", "simple"}
	test(sig, "v=1; a=rsa-sha1; d=example.org; s=sel_2024; c=relaxed; h=from:to:subject:date; bh=; b=")

	sig.Canonicalization = Canonicalization{"", "relaxed"}
	test(sig, "v=1; a=rsa-sha1; d=example.org; s=sel_2024; c=simple/relaxed; h=from:to:subject:date; bh=; b=")

	sig.Canonicalization = Canonicalization{}
	sig.QueryMethods = nil
	sig.Identifier = "a b;c=d|e"
	sig.CopiedHeaders = []string{"Subject:Café"}
	sig.BodyLength = 123
	test(sig, "v=1; a=rsa-sha1; d=example.org; s=sel_2024; i=a=20b=3Bc=3Dd=7Ce; h=from:to:subject:date; z=Subject:Caf=C3=A9; l=123; bh=; b=")

	// An unset sig still renders.
	test(&Sig{}, "v=0; a=; d=; s=; h=; l=0; bh=; b=")
}

func TestSigTimes(t *testing.T) {
	test := func(tm time.Time, exp string) {
		t.Helper()
		sig := NewSig()
		sig.CreatedAt = tm
		if r := sig.String(); !strings.Contains(r, "; t="+exp+";") {
			t.Fatalf("time %v: got %q, expected t=%s", tm, r, exp)
		}
	}

	test(time.Unix(1117574938, 0), "1117574938")
	test(time.Unix(1117574938, 999999999), "1117574938")
	test(time.Unix(1, 900_000_000), "1")
	// Fractional seconds are truncated toward zero, also before the epoch.
	test(time.Unix(-1, 500_000_000), "0")
	test(time.Unix(-2, 100_000_000), "-1")
	test(time.Unix(-5, 0), "-5")
	test(time.Unix(0, 0), "0")
}

func TestSigHelpers(t *testing.T) {
	sig, err := Parse(gmailSig)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sig.AlgorithmSign() != "rsa" || sig.AlgorithmHash() != "sha256" {
		t.Fatalf("algorithm parts: got %q %q", sig.AlgorithmSign(), sig.AlgorithmHash())
	}
	if sig.AUID() != "@gmail.com" {
		t.Fatalf("auid: got %q", sig.AUID())
	}
	sig.Identifier = "user@mail.gmail.com"
	if sig.AUID() != "user@mail.gmail.com" {
		t.Fatalf("auid: got %q", sig.AUID())
	}

	now := time.Unix(1118006938, 0)
	if sig.Expired(now) {
		t.Fatalf("expired without expiration time")
	}
	sig.ExpiresAt = now.Add(-time.Second)
	if !sig.Expired(now) {
		t.Fatalf("not expired with expiration in the past")
	}
	sig.ExpiresAt = now
	if sig.Expired(now) {
		t.Fatalf("expired at expiration time")
	}
}

func TestSigHeader(t *testing.T) {
	test := func(sig *Sig) {
		t.Helper()
		h := sig.Header()
		if !strings.HasPrefix(h, "DKIM-Signature: v=1;") || !strings.HasSuffix(h, "\r\n") {
			t.Fatalf("header: bad start or end: %q", h)
		}
		for _, line := range strings.Split(strings.TrimSuffix(h, "\r\n"), "\r\n") {
			if len(line) > 78 {
				t.Fatalf("header: line too long, %d: %q", len(line), line)
			}
		}
		nsig, err := ParseHeader(h)
		if err != nil {
			t.Fatalf("parse header %q: %v", h, err)
		}
		if !reflect.DeepEqual(nsig, sig) {
			t.Fatalf("parse header:\ngot      %#v\nexpected %#v", nsig, sig)
		}
		if nsig.String() != sig.String() {
			t.Fatalf("header string mismatch")
		}
	}

	for _, s := range []string{gmailSig, rfcExampleSig, validPrefix + "; " + validSuffix + "; zz=last"} {
		sig, err := Parse(s)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		test(sig)
	}

	sig := NewSig()
	sig.Algorithm = "ed25519-sha256"
	sig.Domain = "example.org"
	sig.Selector = "2024a"
	sig.Headers = strings.Split("from:to:cc:subject:date:message-id:mime-version:content-type:content-transfer-encoding:in-reply-to:references:list-id:list-unsubscribe:list-unsubscribe-post", ":")
	sig.BodyHash = "g3zLYH4xKxcPrHOD18z9YfpQcnk/GaJedfustWU5uGs="
	sig.Data = strings.Repeat("ABCDEFGHIJ", 20) + "=="
	test(sig)
}
