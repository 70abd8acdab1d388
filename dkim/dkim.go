// Package dkim parses and writes the value of DKIM-Signature headers, RFC 6376.
//
// A DKIM-Signature is a tag-list, e.g. "v=1; a=rsa-sha256; d=example.org;
// s=sel; h=from:to; bh=...; b=...". Parsing checks the tag-list syntax, decodes
// each known tag into a field of Sig, and checks that all required tags are
// present. Unknown tags are kept. Writing a Sig produces the tags in a fixed
// order, leaving out optional tags with default values.
//
// Verifying or creating signatures, and looking up keys in DNS, is not done by
// this package.
package dkim

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mjl-/dkimsig/message"
	"github.com/mjl-/dkimsig/mlog"
)

var xlog = mlog.New("dkim")

var metricParse = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dkimsig_signature_parse_total",
		Help: "DKIM-Signature values parsed, by result: ok or the kind of error.",
	},
	[]string{
		"result",
	},
)

// ErrSignature is wrapped by all errors returned for invalid DKIM-Signature
// values. The specific problem can be checked with errors.Is on the errors
// below.
var ErrSignature = errors.New("dkim: invalid dkim-signature")

// Parse errors.
var (
	ErrSyntax           = errors.New("tag without value")
	ErrTagName          = errors.New("invalid tag name")
	ErrTagValue         = errors.New("invalid tag value")
	ErrDuplicateTag     = errors.New("duplicate tag")
	ErrMissingVersion   = errors.New("missing version")
	ErrInvalidVersion   = errors.New("invalid version")
	ErrUnknownVersion   = errors.New("unknown version")
	ErrTimestamp        = errors.New("invalid timestamp")
	ErrBodyLength       = errors.New("invalid body length")
	ErrBase64           = errors.New("invalid base64")
	ErrMissingAlgorithm = errors.New("missing algorithm")
	ErrMissingData      = errors.New("missing signature data")
	ErrMissingBodyHash  = errors.New("missing body hash")
	ErrMissingSelector  = errors.New("missing selector")
	ErrMissingDomain    = errors.New("missing domain")
	ErrMissingHeaders   = errors.New("missing signed headers")
	ErrHeaderName       = errors.New("not a dkim-signature header")
)

// Parse parses the value of a DKIM-Signature header, folded or unfolded.
//
// On failure, the error wraps ErrSignature and one of the specific parse
// errors, and no Sig is returned.
func Parse(s string) (*Sig, error) {
	return parse(s, func() *Sig { return parseSig(s) })
}

// ParseBytes is like Parse, for a value in UTF-8 or ASCII.
func ParseBytes(buf []byte) (*Sig, error) {
	return Parse(string(buf))
}

// ParseCharset decodes buf from charset, e.g. "iso-8859-1", and parses the
// result. For an unknown charset, an error wrapping message.ErrCharset is
// returned.
func ParseCharset(buf []byte, charset string) (*Sig, error) {
	s, err := message.DecodeCharset(charset, buf)
	if err != nil {
		return nil, err
	}
	return Parse(s)
}

// ParseHeader parses a complete DKIM-Signature header field, including field
// name and colon, e.g. "DKIM-Signature: v=1; ...". The field name is matched
// case-insensitively.
func ParseHeader(field string) (*Sig, error) {
	return parse(field, func() *Sig {
		k, v, ok := strings.Cut(field, ":")
		if !ok || !strings.EqualFold(trimWSP(k), "DKIM-Signature") {
			xerrorf(ErrHeaderName, "%q", k)
		}
		return parseSig(v)
	})
}

func parse(s string, fn func() *Sig) (sig *Sig, rerr error) {
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		perr, ok := x.(parseErr)
		if !ok {
			panic(x)
		}
		sig = nil
		rerr = perr.err
		metricParse.WithLabelValues(perr.kind.Error()).Inc()
		xlog.Debugx("parsing dkim-signature", rerr, mlog.Field("value", s))
	}()

	sig = fn()
	metricParse.WithLabelValues("ok").Inc()
	xlog.Debug("parsed dkim-signature", mlog.Field("domain", sig.Domain), mlog.Field("selector", sig.Selector))
	return sig, nil
}
