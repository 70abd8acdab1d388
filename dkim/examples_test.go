package dkim_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/mjl-/dkimsig/dkim"
)

func ExampleParse() {
	sig, err := dkim.Parse("v=1; a=rsa-sha256; d=example.org; s=sel;\r\n\th=From:To; bh=g3zLYH4xKxcPrHOD18z9YfpQcnk/GaJedfustWU5uGs=; b=dGVzdA==")
	if err != nil {
		log.Fatalf("parse: %v", err)
	}
	fmt.Println(sig.Domain, sig.Selector, sig.Headers, sig.Canonicalization, sig.AUID())

	_, err = dkim.Parse("v=1; v=1")
	fmt.Println(errors.Is(err, dkim.ErrSignature), errors.Is(err, dkim.ErrDuplicateTag))
	// Output:
	// example.org sel [from to] simple/simple @example.org
	// true true
}

func ExampleSig_String() {
	sig := dkim.NewSig()
	sig.Algorithm = "ed25519-sha256"
	sig.Domain = "ουτοπία.example"
	sig.Selector = "2024a"
	sig.Canonicalization = dkim.Canonicalization{Header: "relaxed", Body: "simple"}
	sig.Headers = []string{"from", "to", "subject"}
	sig.BodyHash = "g3zLYH4xKxcPrHOD18z9YfpQcnk/GaJedfustWU5uGs="
	sig.Data = "dGVzdA=="
	fmt.Println(sig.String())
	// Output:
	// v=1; a=ed25519-sha256; d=xn--kxae4bafwg.example; s=2024a; c=relaxed; h=from:to:subject; bh=g3zLYH4xKxcPrHOD18z9YfpQcnk/GaJedfustWU5uGs=; b=dGVzdA==
}
