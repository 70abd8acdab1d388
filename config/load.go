package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mjl-/sconf"

	"github.com/mjl-/dkimsig/dkim"
	"github.com/mjl-/dkimsig/dns"
	"github.com/mjl-/dkimsig/mlog"
)

// ParseStatic parses the static config at path p and prepares it for use.
func ParseStatic(p string) (c Static, errs []error) {
	f, err := os.Open(p)
	if err != nil {
		return c, []error{fmt.Errorf("open config file: %v", err)}
	}
	defer f.Close()
	if err := sconf.Parse(f, &c); err != nil {
		return c, []error{fmt.Errorf("parsing %s%v", p, err)}
	}
	return c, PrepareStatic(&c)
}

// PrepareStatic checks the static config and sets the parsed log levels.
func PrepareStatic(c *Static) (errs []error) {
	if logLevel, ok := mlog.Levels[c.LogLevel]; ok {
		c.Log = map[string]mlog.Level{"": logLevel}
	} else {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.LogLevel))
		c.Log = map[string]mlog.Level{"": mlog.LevelError}
	}
	for pkg, s := range c.PackageLogLevels {
		if logLevel, ok := mlog.Levels[s]; ok {
			c.Log[pkg] = logLevel
		} else {
			errs = append(errs, fmt.Errorf("invalid package log level %q", s))
		}
	}
	return errs
}

// ParseSignature reads a signature description from the file at path p.
func ParseSignature(p string) (Signature, error) {
	var s Signature
	if err := sconf.ParseFile(p, &s); err != nil {
		return s, fmt.Errorf("parsing %s%v", p, err)
	}
	return s, nil
}

// Sig returns the signature described by s. The result is checked by parsing
// its string form, so only signatures that can be parsed are returned. Data can
// be empty, for signatures that still have to be signed.
func (s Signature) Sig() (*dkim.Sig, error) {
	sig := dkim.NewSig()
	sig.Algorithm = strings.ToLower(s.Algorithm)

	d, err := dns.ParseDomain(s.Domain)
	if err != nil {
		return nil, fmt.Errorf("parsing domain %q: %v", s.Domain, err)
	}
	sig.Domain = d.ASCII
	sel, err := dns.ParseDomainLax(s.Selector)
	if err != nil {
		return nil, fmt.Errorf("parsing selector %q: %v", s.Selector, err)
	}
	sig.Selector = sel.ASCII

	if s.Canonicalization != "" {
		h, b, _ := strings.Cut(strings.ToLower(s.Canonicalization), "/")
		for _, c := range []string{h, b} {
			if c != "" && c != "simple" && c != "relaxed" {
				return nil, fmt.Errorf("unknown canonicalization %q", c)
			}
		}
		sig.Canonicalization = dkim.Canonicalization{Header: h, Body: b}
		if b == "" {
			sig.Canonicalization.Body = "simple"
		}
	}

	sig.Identifier = s.Identifier
	if len(s.QueryMethods) > 0 {
		sig.QueryMethods = lower(s.QueryMethods)
	}
	sig.Headers = lower(s.Headers)
	sig.CopiedHeaders = s.CopiedHeaders
	if s.Created > 0 {
		sig.CreatedAt = time.Unix(s.Created, 0).UTC()
	}
	if s.Expiration > 0 {
		if s.Created <= 0 {
			return nil, errors.New("expiration requires created time")
		}
		sig.ExpiresAt = sig.CreatedAt.Add(s.Expiration)
	}
	if s.BodyLength != nil {
		if *s.BodyLength < 0 {
			return nil, fmt.Errorf("negative body length %d", *s.BodyLength)
		}
		sig.BodyLength = *s.BodyLength
	}
	sig.BodyHash = s.BodyHash
	sig.Data = s.Data
	for _, t := range s.Tags {
		sig.UnknownTags = append(sig.UnknownTags, dkim.Tag{Name: t.Name, Value: t.Value})
	}

	check := *sig
	if check.Data == "" {
		// Placeholder, data is added after signing.
		check.Data = "AA=="
	}
	if _, err := dkim.Parse(check.String()); err != nil {
		return nil, err
	}
	return sig, nil
}

func lower(l []string) []string {
	r := make([]string, len(l))
	for i, s := range l {
		r[i] = strings.ToLower(s)
	}
	return r
}
