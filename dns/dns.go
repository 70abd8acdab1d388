// Package dns helps parse internationalized domain names (IDNA) and
// canonicalize names, e.g. for the d= and s= tags of DKIM signatures.
package dns

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

var (
	errTrailingDot = errors.New("dns name has trailing dot")
	errUnderscore  = errors.New("domain name with underscore")
	errIDNA        = errors.New("idna")
)

// Domain is a domain name, with one or more labels, with at least an ASCII
// representation, and for IDNA non-ASCII domains a unicode representation.
// The ASCII string must be used in DKIM-Signature headers and for DNS lookups.
type Domain struct {
	// A non-unicode domain, e.g. with A-labels (xn--...) or NR-LDH (non-reserved
	// letters/digits/hyphens) labels. Always in lower case.
	ASCII string

	// Name as U-labels. Empty if this is an ASCII-only domain.
	Unicode string
}

// Name returns the unicode name if set, otherwise the ASCII name.
func (d Domain) Name() string {
	if d.Unicode != "" {
		return d.Unicode
	}
	return d.ASCII
}

// String returns a human-readable string.
// For IDNA names, the string contains both the unicode and ASCII name.
func (d Domain) String() string {
	return d.LogString()
}

// LogString returns a domain for logging.
// For IDNA names, the string contains both the unicode and ASCII name.
func (d Domain) LogString() string {
	if d.Unicode == "" {
		return d.ASCII
	}
	return d.Unicode + "/" + d.ASCII
}

// IsZero returns if this is an empty Domain.
func (d Domain) IsZero() bool {
	return d == Domain{}
}

// ParseDomain parses a domain name that can consist of ASCII-only labels or U
// labels (unicode).
// Names are IDN-canonicalized and lower-cased.
// Characters in unicode can be replaced by equivalents. E.g. "Ⓡ" to "r". This
// means you should only compare parsed domain names, never strings directly.
func ParseDomain(s string) (Domain, error) {
	return parseDomain(s, false)
}

// ParseDomainLax is like ParseDomain, but allows labels with underscores if the
// entire domain name is ASCII-only and contains no A-labels. DKIM selectors with
// underscores are seen in the wild.
func ParseDomainLax(s string) (Domain, error) {
	return parseDomain(s, true)
}

func parseDomain(s string, lax bool) (Domain, error) {
	if strings.HasSuffix(s, ".") {
		return Domain{}, errTrailingDot
	}

	ascii, err := idna.Lookup.ToASCII(s)
	if err != nil && lax && strings.Contains(s, "_") {
		return parseUnderscore(s)
	} else if err != nil {
		return Domain{}, fmt.Errorf("%w: to ascii: %v", errIDNA, err)
	}
	unicode, err := idna.Lookup.ToUnicode(s)
	if err != nil {
		return Domain{}, fmt.Errorf("%w: to unicode: %v", errIDNA, err)
	}
	// todo: should we cause errors for unicode domains that were not in
	// canonical form? we are now accepting all kinds of obscure spellings
	// for even a basic ASCII domain name.
	// Also see https://daniel.haxx.se/blog/2022/12/14/idn-is-crazy/
	if ascii == unicode {
		return Domain{ascii, ""}, nil
	}
	return Domain{ascii, unicode}, nil
}

// parseUnderscore accepts only plain letter/digit/hyphen/underscore labels, no
// IDNA. Mixing underscores with internationalized labels is not allowed.
func parseUnderscore(s string) (Domain, error) {
	for _, label := range strings.Split(s, ".") {
		if label == "" {
			return Domain{}, fmt.Errorf("%w: empty label", errIDNA)
		}
		if strings.HasPrefix(strings.ToLower(label), "xn--") {
			return Domain{}, fmt.Errorf("%w: a-label %q", errUnderscore, label)
		}
		for _, c := range label {
			if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' {
				continue
			}
			return Domain{}, fmt.Errorf("%w: character %q in label %q", errUnderscore, c, label)
		}
	}
	return Domain{ASCII: strings.ToLower(s)}, nil
}

// DomainASCII returns the lower-case ASCII form of a domain name, with IDNA
// labels converted to A-labels. An empty string is returned for names that
// cannot be parsed.
func DomainASCII(s string) string {
	d, err := ParseDomain(s)
	if err != nil {
		return ""
	}
	return d.ASCII
}

// SelectorASCII is like DomainASCII, but for DKIM selectors, which can contain
// underscores.
//
// All-numeric labels, e.g. selector "20120113", are plain NR-LDH labels for
// IDNA and are returned as is, they are never interpreted as an IP address.
func SelectorASCII(s string) string {
	d, err := ParseDomainLax(s)
	if err != nil {
		return ""
	}
	return d.ASCII
}
