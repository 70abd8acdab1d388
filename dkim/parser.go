package dkim

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mjl-/dkimsig/dns"
)

// parseErr is raised with panic while parsing, and recovered by the exported
// parse functions.
type parseErr struct {
	kind error // Sentinel error, e.g. ErrDuplicateTag.
	err  error
}

func xerrorf(kind error, format string, args ...any) {
	var err error
	if format == "" {
		err = fmt.Errorf("%w: %w", ErrSignature, kind)
	} else {
		err = fmt.Errorf("%w: %w: %s", ErrSignature, kind, fmt.Sprintf(format, args...))
	}
	panic(parseErr{kind, err})
}

// Unfold removes folding whitespace from a header value: every line break with
// optional whitespace before and at least one space or tab after it is removed,
// as are line breaks at the end. Line breaks not followed by whitespace are kept.
//
// Unfolding an unfolded string returns the same string.
func Unfold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	o := 0
	for o < len(s) {
		// Match [ \t]*\r?\n[ \t]+ at o.
		i := o
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		j := i
		if strings.HasPrefix(s[j:], "\r\n") {
			j += 2
		} else if strings.HasPrefix(s[j:], "\n") {
			j++
		}
		k := j
		for k < len(s) && (s[k] == ' ' || s[k] == '\t') {
			k++
		}
		if j > i && k > j {
			o = k
			continue
		}
		// No fold. A match cannot start within the whitespace we skipped, so take it
		// all. If there was no whitespace, take one character.
		if i == o {
			i++
		}
		b.WriteString(s[o:i])
		o = i
	}
	r := b.String()
	for {
		if strings.HasSuffix(r, "\r\n") {
			r = r[:len(r)-2]
		} else if strings.HasSuffix(r, "\n") {
			r = r[:len(r)-1]
		} else {
			return r
		}
	}
}

// parser is a tokenizer for an unfolded tag-list.
type parser struct {
	s string
	o int // Offset into s.
}

func (p *parser) empty() bool {
	return p.o >= len(p.s)
}

// skipSpace skips whitespace between tags, including line breaks left after
// unfolding.
func (p *parser) skipSpace() {
	for p.o < len(p.s) {
		switch p.s[p.o] {
		case ' ', '\t', '\r', '\n':
			p.o++
		default:
			return
		}
	}
}

// xtag reads the next "name=value" up to the next ";" or the end. Surrounding
// spaces and tabs are removed from name and value.
func (p *parser) xtag() (name, value string) {
	rest := p.s[p.o:]
	eq := strings.IndexByte(rest, '=')
	if semi := strings.IndexByte(rest, ';'); eq < 0 || semi >= 0 && semi < eq {
		xerrorf(ErrSyntax, "tag without value at offset %d", p.o)
	}
	name = trimWSP(rest[:eq])
	rest = rest[eq+1:]
	if end := strings.IndexByte(rest, ';'); end >= 0 {
		value = rest[:end]
		p.o += eq + 1 + end + 1
	} else {
		value = rest
		p.o = len(p.s)
	}
	return name, trimWSP(value)
}

func trimWSP(s string) string {
	return strings.Trim(s, " \t")
}

func isalpha(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isdigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isalphadigit(c rune) bool {
	return isalpha(c) || isdigit(c)
}

// xcheckTagName checks tag-name = ALPHA *ALNUMPUNC, RFC 6376 section 3.2.
func xcheckTagName(name string) {
	if name == "" {
		xerrorf(ErrTagName, "empty tag name")
	}
	for i, c := range name {
		if !(isalpha(c) || i > 0 && (isdigit(c) || c == '_')) {
			xerrorf(ErrTagName, "%q in %q", c, name)
		}
	}
}

// xcheckTagValue checks that the value has only VALCHAR (printable ASCII
// without ";") and whitespace.
func xcheckTagValue(name, value string) {
	for _, c := range value {
		if !(c == ' ' || c == '\t' || c >= 0x21 && c <= 0x7e && c != ';') {
			xerrorf(ErrTagValue, "%q in value for tag %q", c, name)
		}
	}
}

// tagDecoders sets a field of a Sig from the value of a tag. Tags not in this
// table are kept as unknown tags.
var tagDecoders = map[string]func(sig *Sig, v string){
	"v": func(sig *Sig, v string) {
		// Validity is checked after all tags are read, for a stable error order.
		n, err := parseNumber(v)
		if err != nil || n > 1<<31-1 {
			n = -1
		}
		sig.Version = int(n)
	},
	"a": func(sig *Sig, v string) {
		sig.Algorithm = strings.ToLower(v)
	},
	"c": func(sig *Sig, v string) {
		h, b, _ := strings.Cut(v, "/")
		sig.Canonicalization = Canonicalization{
			canonOrSimple(strings.ToLower(trimWSP(h))),
			canonOrSimple(strings.ToLower(trimWSP(b))),
		}
	},
	"d": func(sig *Sig, v string) {
		sig.Domain = dns.DomainASCII(v)
	},
	"s": func(sig *Sig, v string) {
		sig.Selector = dns.SelectorASCII(v)
	},
	"h": func(sig *Sig, v string) {
		sig.Headers = splitList(v, ":", true)
	},
	"q": func(sig *Sig, v string) {
		if l := splitList(v, ":", true); l != nil {
			sig.QueryMethods = l
		}
	},
	"i": func(sig *Sig, v string) {
		sig.Identifier = unpackQpHdrValue(v)
	},
	"z": func(sig *Sig, v string) {
		l := splitList(v, "|", false)
		for i, s := range l {
			l[i] = unpackQpHdrValue(s)
		}
		sig.CopiedHeaders = l
	},
	"l": func(sig *Sig, v string) {
		n, err := parseNumber(v)
		if err != nil {
			xerrorf(ErrBodyLength, "%q: %v", v, err)
		}
		sig.BodyLength = n
	},
	"t": func(sig *Sig, v string) {
		sig.CreatedAt = xtimestamp("t", v)
	},
	"x": func(sig *Sig, v string) {
		sig.ExpiresAt = xtimestamp("x", v)
	},
	"bh": func(sig *Sig, v string) {
		sig.BodyHash = xbase64("bh", v)
	},
	"b": func(sig *Sig, v string) {
		sig.Data = xbase64("b", v)
	},
}

// splitList splits s on sep, trimming whitespace around elements. An empty s
// results in a nil list.
func splitList(s, sep string, lower bool) []string {
	if s == "" {
		return nil
	}
	l := strings.Split(s, sep)
	for i, e := range l {
		e = trimWSP(e)
		if lower {
			e = strings.ToLower(e)
		}
		l[i] = e
	}
	return l
}

// parseNumber parses a non-negative decimal number. Signs are not allowed.
func parseNumber(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("empty number")
	}
	for _, c := range s {
		if !isdigit(c) {
			return 0, fmt.Errorf("bad character %q in number", c)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

func xtimestamp(name, v string) time.Time {
	n, err := parseNumber(v)
	if err != nil {
		xerrorf(ErrTimestamp, "tag %q, %q: %v", name, v, err)
	}
	return time.Unix(n, 0).UTC()
}

// xbase64 returns the value without whitespace, checking it only contains
// base64 characters. "-" is accepted in addition to "+" and "/". Padding is
// optional.
func xbase64(name, v string) string {
	s := strings.Map(func(c rune) rune {
		switch c {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return c
	}, v)
	n := len(s)
	for pad := 0; pad < 2 && n > 0 && s[n-1] == '='; pad++ {
		n--
	}
	for _, c := range s[:n] {
		if !isalphadigit(c) && c != '+' && c != '/' && c != '-' {
			xerrorf(ErrBase64, "tag %q, bad character %q", name, c)
		}
	}
	return s
}

// unpackQpHdrValue decodes dkim-quoted-printable, RFC 6376 section 2.11: "=XX"
// hex escapes, with whitespace ignored. Bad escapes are kept as is.
func unpackQpHdrValue(s string) string {
	unhex := func(c byte) (byte, bool) {
		switch {
		case c >= '0' && c <= '9':
			return c - '0', true
		case c >= 'A' && c <= 'F':
			return 10 + c - 'A', true
		case c >= 'a' && c <= 'f':
			return 10 + c - 'a', true
		}
		return 0, false
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			continue
		}
		if c == '=' && i+2 < len(s) {
			h, ok1 := unhex(s[i+1])
			l, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				b.WriteByte(h<<4 | l)
				i += 2
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// parseSig parses an unfolded or folded tag-list. It panics with a parseErr on
// the first problem.
func parseSig(s string) *Sig {
	sig := NewSig()
	seen := map[string]struct{}{}
	p := &parser{s: Unfold(s)}
	for {
		p.skipSpace()
		if p.empty() {
			break
		}
		name, value := p.xtag()
		xcheckTagName(name)
		// Tag names are case-sensitive. Duplicates are not allowed. RFC 6376 section 3.2.
		if _, ok := seen[name]; ok {
			xerrorf(ErrDuplicateTag, "%q", name)
		}
		seen[name] = struct{}{}
		xcheckTagValue(name, value)

		if fn, ok := tagDecoders[name]; ok {
			fn(sig, value)
		} else {
			// Unknown tags must be ignored. RFC 6376 section 3.2.
			sig.UnknownTags = append(sig.UnknownTags, Tag{name, value})
		}
	}

	// Order of checks determines which error is returned for multiple problems.
	if _, ok := seen["v"]; !ok {
		xerrorf(ErrMissingVersion, "")
	} else if sig.Version < 0 {
		xerrorf(ErrInvalidVersion, "")
	} else if sig.Version != 1 {
		xerrorf(ErrUnknownVersion, "version %d", sig.Version)
	}
	required := []struct {
		missing bool
		err     error
	}{
		{sig.Algorithm == "", ErrMissingAlgorithm},
		{sig.Data == "", ErrMissingData},
		{sig.BodyHash == "", ErrMissingBodyHash},
		{sig.Selector == "", ErrMissingSelector},
		{sig.Domain == "", ErrMissingDomain},
		{len(sig.Headers) == 0, ErrMissingHeaders},
	}
	for _, r := range required {
		if r.missing {
			xerrorf(r.err, "")
		}
	}
	return sig
}
