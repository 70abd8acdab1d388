/*
Package config holds the configuration file definitions for dkimsig.

There are two kinds of config files:

 1. dkimsig.conf, the optional static configuration, with logging settings
    and defaults for commands. Passed with the -config flag.
 2. Signature files, describing a DKIM-Signature, read by the compose command.

Both are in "sconf" format. Properties of sconf files:

  - Indentation with tabs only.
  - "#" as first non-whitespace character makes the line a comment. Lines with a
    value cannot also have a comment.
  - Values don't have syntax indicating their type. For example, strings are
    not quoted/escaped and can never span multiple lines.
  - Fields that are optional can be left out completely. But the value of an
    optional field may itself have required fields.

See https://pkg.go.dev/github.com/mjl-/sconf for details. Annotated empty
config files are printed by "dkimsig config describe static" and "dkimsig
config describe signature".

# Example signature file

	Algorithm: rsa-sha256
	Domain: example.org
	Selector: 2024a
	Canonicalization: relaxed/relaxed
	Headers:
		- from
		- to
		- subject
		- date
	Created: 1117574938
	Expiration: 120h
	BodyHash: MTIzNDU2Nzg5MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTI=
*/
package config
