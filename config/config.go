package config

import (
	"time"

	"github.com/mjl-/dkimsig/mlog"
)

// Static is a parsed form of the dkimsig.conf configuration file.
type Static struct {
	LogLevel         string            `sconf-doc:"NOTE: This config file is in 'sconf' format. Indent with tabs. Comments must be on their own line, they don't end a line. Do not escape or quote strings. Details: https://pkg.go.dev/github.com/mjl-/sconf.\n\n\nDefault log level, one of: error, info, debug, trace. At debug level, each parsed signature and the reason for rejecting it are logged."`
	PackageLogLevels map[string]string `sconf:"optional" sconf-doc:"Overrides of log level per package (e.g. dkim)."`
	Fold             bool              `sconf:"optional" sconf-doc:"Print folded DKIM-Signature header fields in the format command, as with its -fold flag."`

	Log map[string]mlog.Level `sconf:"-" json:"-"` // Parsed form of LogLevel and PackageLogLevels.
}

// Signature describes a DKIM-Signature to compose. Field names follow the
// tags of the signature, with defaults for optional tags as in RFC 6376.
type Signature struct {
	Algorithm        string        `sconf-doc:"Signing algorithm, e.g. rsa-sha256 or ed25519-sha256. Tag a."`
	Domain           string        `sconf-doc:"Signing domain, can be an internationalized domain name, it is written in ASCII. Tag d."`
	Selector         string        `sconf-doc:"Selector, the DNS TXT record with the public key is at <selector>._domainkey.<domain>. Tag s."`
	Canonicalization string        `sconf:"optional" sconf-doc:"Canonicalization for header and body, e.g. relaxed/relaxed. Default simple/simple. Tag c."`
	Identifier       string        `sconf:"optional" sconf-doc:"Agent or user identifier, e.g. user@example.org. Default is an empty localpart at the signing domain. Tag i."`
	QueryMethods     []string      `sconf:"optional" sconf-doc:"Methods for looking up the public key. Default dns/txt. Tag q."`
	Headers          []string      `sconf-doc:"Names of signed header fields, in order. Tag h."`
	CopiedHeaders    []string      `sconf:"optional" sconf-doc:"Copies of header fields at signing time, each in the form name:value. Tag z."`
	Created          int64         `sconf:"optional" sconf-doc:"Signing time in seconds since the UNIX epoch. Tag t."`
	Expiration       time.Duration `sconf:"optional" sconf-doc:"Time after the signing time when the signature expires, e.g. 72h. Requires Created. Tag x."`
	BodyLength       *int64        `sconf:"optional" sconf-doc:"Number of body bytes covered by the signature. Default is the whole body. Tag l."`
	BodyHash         string        `sconf-doc:"Hash of the canonicalized body, base64. Tag bh."`
	Data             string        `sconf:"optional" sconf-doc:"Signature data, base64. Left empty when composing a signature before signing. Tag b."`
	Tags             []Tag         `sconf:"optional" sconf-doc:"Additional tags, written after all known tags."`
}

// Tag is an additional tag for a signature.
type Tag struct {
	Name  string
	Value string
}
