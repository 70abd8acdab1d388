/*
Command dkimsig parses, checks and writes DKIM-Signature header fields, RFC 6376.

DKIM-Signature values are tag-lists, e.g. "v=1; a=rsa-sha256; d=example.org;
s=sel; h=from:to; bh=...; b=...". dkimsig parses them into their fields,
reports syntax errors and missing required tags, and writes signatures in
canonical form, with tags in a fixed order and internationalized domain names
in ASCII. It does not verify or create signatures.

# Commands

	dkimsig [-config dkimsig.conf] [-loglevel level] ...
	dkimsig parse [-charset name] [-header] [-stats] <signature
	dkimsig format [-fold] <signature
	dkimsig compose sig.conf
	dkimsig help [command ...]
	dkimsig config test
	dkimsig config describe static >dkimsig.conf
	dkimsig config describe signature >sig.conf
	dkimsig version

# dkimsig parse

Parse a DKIM-Signature and print its fields.

By default, the value of a single DKIM-Signature header field is read from
stdin, without the header field name. The value can be folded over multiple
lines.

With -header, the header fields of a message are read from stdin, and each
DKIM-Signature header field is parsed.

The exit status is 1 if any signature could not be parsed.

	usage: dkimsig parse [-charset name] [-header] [-stats] <signature
	  -charset string
	    	charset of the input, e.g. iso-8859-1, default is utf-8
	  -header
	    	read a message header section, or a complete message, and parse all DKIM-Signature header fields
	  -stats
	    	print counts of parse results to stderr

# dkimsig format

Parse a DKIM-Signature value and print it in canonical form.

Tags are written in a fixed order, with defaults left out. Domain and selector
are written in ASCII. With -fold, a complete DKIM-Signature header field is
printed, folded to lines of at most 78 characters, ready to be prepended to a
message.

The default for -fold can be set with Fold in the config file.

	usage: dkimsig format [-fold] <signature
	  -fold
	    	print a folded DKIM-Signature header field instead of a single line value

# dkimsig compose

Compose a DKIM-Signature header field from a signature config file.

The signature config file describes the tags of the signature, see
"dkimsig config describe signature" for an annotated example. The signature is
checked by parsing it, and printed as a folded header field. Signature data can
be left empty for signatures that still have to be signed.

	usage: dkimsig compose sig.conf

# dkimsig config test

Parses the configuration file specified with -config and prints any errors.

	usage: dkimsig config test
*/
package main
