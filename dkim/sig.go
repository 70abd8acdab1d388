package dkim

import (
	"strconv"
	"strings"
	"time"

	"github.com/mjl-/dkimsig/dns"
	"github.com/mjl-/dkimsig/message"
)

// Sig is the value of a DKIM-Signature header.
//
// A Sig returned by the parse functions has all required fields set. A Sig made
// by hand is not checked, start with NewSig to get the defaults.
type Sig struct {
	// Required fields.
	Version   int      // Version, 1. Field "v". Always the first field.
	Algorithm string   // Lower case, e.g. "rsa-sha256" or "ed25519-sha256". Field "a".
	Domain    string   // Signing domain, ASCII (A-labels). Field "d".
	Selector  string   // For looking up the DNS TXT record at <s>._domainkey.<d>, ASCII. Field "s".
	Headers   []string // Signed header fields, lower case. Duplicates are meaningful. Field "h".
	BodyHash  string   // Base64. Field "bh".
	Data      string   // Signature, base64. Field "b".

	// Optional fields.
	Identifier       string           // AUID (agent/user id), decoded. Empty if absent. Field "i".
	QueryMethods     []string         // For the public key, default "dns/txt". Field "q".
	Canonicalization Canonicalization // Field "c".
	CopiedHeaders    []string         // Copied header fields, decoded. Field "z".
	CreatedAt        time.Time        // Zero if absent. Field "t".
	ExpiresAt        time.Time        // Zero if absent. Field "x".
	BodyLength       int64            // Body length covered by the signature, -1 for whole body. Field "l".

	// Tags not known to this package, in order of appearance. They must be
	// ignored by verifiers, and are kept when writing the signature.
	UnknownTags []Tag
}

// Tag is a tag=value pair from a tag-list.
type Tag struct {
	Name  string
	Value string
}

// Canonicalization is the transformation of header and body before hashing,
// "simple" or "relaxed".
type Canonicalization struct {
	Header string
	Body   string
}

// String returns the canonicalization with both parts, e.g. "relaxed/simple".
func (c Canonicalization) String() string {
	return canonOrSimple(c.Header) + "/" + canonOrSimple(c.Body)
}

func canonOrSimple(s string) string {
	if s == "" {
		return "simple"
	}
	return s
}

// NewSig returns a Sig with defaults for all fields.
func NewSig() *Sig {
	return &Sig{
		Version:          1,
		QueryMethods:     []string{"dns/txt"},
		Canonicalization: Canonicalization{"simple", "simple"},
		BodyLength:       -1,
	}
}

// AlgorithmSign returns the signing algorithm part of the algorithm, e.g. "rsa"
// for "rsa-sha256".
func (s *Sig) AlgorithmSign() string {
	t, _, _ := strings.Cut(s.Algorithm, "-")
	return t
}

// AlgorithmHash returns the hash algorithm part of the algorithm, e.g. "sha256"
// for "rsa-sha256".
func (s *Sig) AlgorithmHash() string {
	_, t, _ := strings.Cut(s.Algorithm, "-")
	return t
}

// AUID returns the agent or user identifier. If the "i" field is absent, the
// default is an empty localpart at the signing domain.
func (s *Sig) AUID() string {
	if s.Identifier != "" {
		return s.Identifier
	}
	return "@" + s.Domain
}

// Expired returns whether the signature has an expiration time before now.
func (s *Sig) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(now)
}

// tags returns the tag-list in canonical order, leaving out optional fields
// that are absent or have their default value.
func (s *Sig) tags() []Tag {
	l := []Tag{
		{"v", strconv.Itoa(s.Version)},
		{"a", s.Algorithm},
		// Domain names must always be in ASCII, also when set to unicode after parsing.
		{"d", dns.DomainASCII(s.Domain)},
		{"s", dns.SelectorASCII(s.Selector)},
	}

	hc, bc := canonOrSimple(s.Canonicalization.Header), canonOrSimple(s.Canonicalization.Body)
	if !strings.EqualFold(bc, "simple") {
		l = append(l, Tag{"c", hc + "/" + bc})
	} else if !strings.EqualFold(hc, "simple") {
		l = append(l, Tag{"c", hc})
	}
	if len(s.QueryMethods) > 0 && !(len(s.QueryMethods) == 1 && strings.EqualFold(s.QueryMethods[0], "dns/txt")) {
		l = append(l, Tag{"q", strings.Join(s.QueryMethods, ":")})
	}
	if s.Identifier != "" {
		l = append(l, Tag{"i", packQpHdrValue(s.Identifier)})
	}
	if !s.CreatedAt.IsZero() {
		l = append(l, Tag{"t", strconv.FormatInt(unixTrunc(s.CreatedAt), 10)})
	}
	if !s.ExpiresAt.IsZero() {
		l = append(l, Tag{"x", strconv.FormatInt(unixTrunc(s.ExpiresAt), 10)})
	}
	l = append(l, Tag{"h", strings.Join(s.Headers, ":")})
	if len(s.CopiedHeaders) > 0 {
		z := make([]string, len(s.CopiedHeaders))
		for i, h := range s.CopiedHeaders {
			z[i] = packQpHdrValue(h)
		}
		l = append(l, Tag{"z", strings.Join(z, "|")})
	}
	if s.BodyLength >= 0 {
		l = append(l, Tag{"l", strconv.FormatInt(s.BodyLength, 10)})
	}
	l = append(l, Tag{"bh", s.BodyHash}, Tag{"b", s.Data})
	return append(l, s.UnknownTags...)
}

// unixTrunc returns seconds since the epoch, dropping fractional seconds
// towards zero, also for times before the epoch.
func unixTrunc(tm time.Time) int64 {
	secs := tm.Unix()
	if secs < 0 && tm.Nanosecond() > 0 {
		secs++
	}
	return secs
}

// String returns the value for a DKIM-Signature header on a single line, with
// tags separated by "; ". Domain and selector are written in ASCII. The header
// name is not included, and the line is not folded.
func (s *Sig) String() string {
	var b strings.Builder
	for i, t := range s.tags() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(t.Name)
		b.WriteString("=")
		b.WriteString(t.Value)
	}
	return b.String()
}

// Header returns the DKIM-Signature header in string form, to be prepended to a
// message, including DKIM-Signature field name, folded to lines of at most 78
// characters where possible, and trailing \r\n.
func (s *Sig) Header() string {
	w := &message.HeaderWriter{}
	w.Add("", "DKIM-Signature:")
	tags := s.tags()
	for i, t := range tags {
		end := ";"
		if i == len(tags)-1 {
			end = ""
		}
		switch t.Name {
		case "h", "z":
			// Fold between list elements, the FWS is ignored when parsing.
			sep := ":"
			if t.Name == "z" {
				sep = "|"
			}
			elems := strings.Split(t.Value, sep)
			for j, e := range elems {
				if j < len(elems)-1 {
					e += sep
				} else {
					e += end
				}
				if j == 0 {
					w.Add(" ", t.Name+"="+e)
				} else {
					w.Add("", e)
				}
			}
		case "b":
			w.Add(" ", "b=")
			w.AddWrap([]byte(t.Value), false)
			if end != "" {
				w.Add("", end)
			}
		default:
			w.Add(" ", t.Name+"="+t.Value+end)
		}
	}
	return w.String()
}

// packQpHdrValue is like quoted printable, but with ";" and "|" encoded as well,
// for the "i" and "z" fields. Whitespace is encoded too, it is ignored when
// decoding.
func packQpHdrValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for _, c := range []byte(s) {
		if c > ' ' && c < 0x7f && c != ';' && c != '=' && c != '|' {
			b.WriteByte(c)
		} else {
			b.WriteByte('=')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		}
	}
	return b.String()
}
