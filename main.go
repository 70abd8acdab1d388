package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/mjl-/sconf"

	"github.com/mjl-/dkimsig/config"
	"github.com/mjl-/dkimsig/dkim"
	"github.com/mjl-/dkimsig/message"
	"github.com/mjl-/dkimsig/metrics"
	"github.com/mjl-/dkimsig/mlog"
)

func envString(k, def string) string {
	s := os.Getenv(k)
	if s == "" {
		return def
	}
	return s
}

var commands = []struct {
	cmd string
	fn  func(c *cmd)
}{
	{"parse", cmdParse},
	{"format", cmdFormat},
	{"compose", cmdCompose},
	{"help", cmdHelp},
	{"config test", cmdConfigTest},
	{"config describe static", cmdConfigDescribeStatic},
	{"config describe signature", cmdConfigDescribeSignature},
	{"version", cmdVersion},
}

var cmds []cmd

func init() {
	for _, xc := range commands {
		c := cmd{words: strings.Split(xc.cmd, " "), fn: xc.fn}
		cmds = append(cmds, c)
	}
}

type cmd struct {
	words []string
	fn    func(c *cmd)

	// Set before calling command.
	flag     *flag.FlagSet
	flagArgs []string
	_gather  bool // Set when using Parse to gather usage for a command.

	// Set by invoked command or Parse.
	params string // Arguments to command. Multiple lines possible.
	help   string // Additional explanation. First line is synopsis, the rest is only printed for an explicit help/usage for that command.
	args   []string

	log *mlog.Log
}

func (c *cmd) Parse() []string {
	// To gather params and usage information, we just run the command but cause this
	// panic after the command has registered its flags and set its params and help
	// information. This is then caught and that info printed.
	if c._gather {
		panic("gather")
	}

	c.flag.Usage = c.Usage
	c.flag.Parse(c.flagArgs)
	c.args = c.flag.Args()
	return c.args
}

func (c *cmd) gather() {
	c.flag = flag.NewFlagSet("dkimsig "+strings.Join(c.words, " "), flag.ExitOnError)
	c._gather = true
	defer func() {
		x := recover()
		// panic generated by Parse.
		if x != "gather" {
			panic(x)
		}
	}()
	c.fn(c)
}

func (c *cmd) makeUsage() string {
	var r strings.Builder
	cs := "dkimsig " + strings.Join(c.words, " ")
	for i, line := range strings.Split(strings.TrimSpace(c.params), "\n") {
		s := ""
		if i == 0 {
			s = "usage:"
		}
		if line != "" {
			line = " " + line
		}
		fmt.Fprintf(&r, "%6s %s%s\n", s, cs, line)
	}
	c.flag.SetOutput(&r)
	c.flag.PrintDefaults()
	return r.String()
}

func (c *cmd) printUsage() {
	fmt.Fprint(os.Stderr, c.makeUsage())
	if c.help != "" {
		fmt.Fprint(os.Stderr, "\n"+c.help+"\n")
	}
}

func (c *cmd) Usage() {
	c.printUsage()
	os.Exit(2)
}

func cmdHelp(c *cmd) {
	c.params = "[command ...]"
	c.help = `Prints help about matching commands.

If multiple commands match, they are listed along with the first line of their help text.
If a single command matches, its usage and full help text is printed.
`
	args := c.Parse()
	if len(args) == 0 {
		c.Usage()
	}

	prefix := func(l, pre []string) bool {
		if len(pre) > len(l) {
			return false
		}
		return slices.Equal(pre, l[:len(pre)])
	}

	var partial []cmd
	for _, c := range cmds {
		if slices.Equal(c.words, args) {
			c.gather()
			fmt.Print(c.makeUsage())
			if c.help != "" {
				fmt.Print("\n" + c.help + "\n")
			}
			return
		} else if prefix(c.words, args) {
			partial = append(partial, c)
		}
	}
	if len(partial) == 0 {
		fmt.Fprintf(os.Stderr, "%s: unknown command\n", strings.Join(args, " "))
		os.Exit(2)
	}
	for _, c := range partial {
		c.gather()
		line := "dkimsig " + strings.Join(c.words, " ")
		fmt.Printf("%s\n", line)
		if c.help != "" {
			fmt.Printf("\t%s\n", strings.Split(c.help, "\n")[0])
		}
	}
}

func usage(l []cmd, unlisted bool) {
	var lines []string
	if !unlisted {
		lines = append(lines, "dkimsig [-config dkimsig.conf] [-loglevel level] ...")
	}
	for _, c := range l {
		c.gather()
		for _, line := range strings.Split(c.params, "\n") {
			x := append([]string{"dkimsig"}, c.words...)
			if line != "" {
				x = append(x, line)
			}
			lines = append(lines, strings.Join(x, " "))
		}
	}
	for i, line := range lines {
		pre := "       "
		if i == 0 {
			pre = "usage: "
		}
		fmt.Fprintln(os.Stderr, pre+line)
	}
	os.Exit(2)
}

var (
	loglevel   string // Empty means the level from the config file, or error.
	configPath string
	static     config.Static
)

// loadConfig reads the static config file if one was specified, and sets the
// log levels. A -loglevel flag overrides the default level from the config.
func loadConfig() {
	static = config.Static{LogLevel: "error"}
	if configPath != "" {
		var errs []error
		static, errs = config.ParseStatic(configPath)
		if len(errs) > 0 {
			for _, err := range errs {
				log.Printf("%s: %s", configPath, err)
			}
			log.Fatalf("invalid config file %s", configPath)
		}
	} else {
		config.PrepareStatic(&static)
	}
	if loglevel != "" {
		level, ok := mlog.Levels[loglevel]
		if !ok {
			log.Fatalf("unknown loglevel %q", loglevel)
		}
		static.Log[""] = level
	}
	mlog.SetConfig(static.Log)
	mlog.Logfmt = os.Getenv("DKIMSIGLOGFMT") != ""
}

func main() {
	log.SetFlags(0)

	flag.StringVar(&configPath, "config", envString("DKIMSIGCONF", ""), "optional configuration file with log levels and defaults, defaults to $DKIMSIGCONF")
	flag.StringVar(&loglevel, "loglevel", "", "if non-empty, this log level is used instead of the level from the config file")

	flag.Usage = func() { usage(cmds, false) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage(cmds, false)
	}

	loadConfig()

	var partial []cmd
next:
	for _, c := range cmds {
		for i, w := range c.words {
			if i >= len(args) || w != args[i] {
				if i > 0 {
					partial = append(partial, c)
				}
				continue next
			}
		}
		c.flag = flag.NewFlagSet("dkimsig "+strings.Join(c.words, " "), flag.ExitOnError)
		c.flagArgs = args[len(c.words):]
		c.log = mlog.New(strings.Join(c.words, ""))
		run(&c)
		return
	}
	if len(partial) > 0 {
		usage(partial, true)
	}
	usage(cmds, false)
}

// run calls the command, counting and logging an unhandled panic before passing
// it on.
func run(c *cmd) {
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		c.log.Error("unhandled panic", mlog.Field("panic", x))
		debug.PrintStack()
		metrics.PanicInc(metrics.Main)
		panic(x)
	}()
	c.fn(c)
}

func xcheckf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	log.Fatalf("%s: %s", msg, err)
}

func cmdParse(c *cmd) {
	c.params = "[-charset name] [-header] [-stats] <signature"
	var charset string
	var header, stats bool
	c.flag.StringVar(&charset, "charset", "", "charset of the input, e.g. iso-8859-1, default is utf-8")
	c.flag.BoolVar(&header, "header", false, "read a message header section, or a complete message, and parse all DKIM-Signature header fields")
	c.flag.BoolVar(&stats, "stats", false, "print counts of parse results to stderr")
	c.help = `Parse a DKIM-Signature and print its fields.

By default, the value of a single DKIM-Signature header field is read from
stdin, without the header field name. The value can be folded over multiple
lines.

With -header, the header fields of a message are read from stdin, and each
DKIM-Signature header field is parsed.

The exit status is 1 if any signature could not be parsed.
`
	args := c.Parse()
	if len(args) != 0 {
		c.Usage()
	}

	buf, err := io.ReadAll(os.Stdin)
	xcheckf(err, "reading stdin")
	results, err := parseSignatures(buf, charset, header)
	xcheckf(err, "reading signatures")
	c.log.Debug("parsed signatures", mlog.Field("count", len(results)))

	failed := false
	for i, r := range results {
		if i > 0 {
			fmt.Println()
		}
		if r.Err != nil {
			fmt.Printf("error: %v\n", r.Err)
			failed = true
			continue
		}
		writeSig(os.Stdout, r.Sig)
	}
	if header && len(results) == 0 {
		log.Print("no dkim-signature header fields found")
	}
	if stats {
		err := metrics.Write(os.Stderr, "dkimsig_signature_")
		xcheckf(err, "writing stats")
	}
	if failed {
		os.Exit(1)
	}
}

type parseResult struct {
	Sig *dkim.Sig
	Err error
}

// parseSignatures parses buf as a single signature value, or with header set,
// as message header with any number of DKIM-Signature fields. An error is only
// returned for input that cannot be decoded or read as header.
func parseSignatures(buf []byte, charset string, header bool) ([]parseResult, error) {
	if !header {
		sig, err := dkim.ParseCharset(buf, charset)
		if err != nil && !errors.Is(err, dkim.ErrSignature) {
			return nil, err
		}
		return []parseResult{{sig, err}}, nil
	}

	text, err := message.DecodeCharset(charset, buf)
	if err != nil {
		return nil, err
	}
	hdrs, err := message.ParseHeaders(bufio.NewReader(strings.NewReader(text)))
	if err != nil {
		return nil, err
	}
	var results []parseResult
	for _, h := range message.FindHeaders(hdrs, "DKIM-Signature") {
		sig, err := dkim.ParseHeader(h.Raw)
		results = append(results, parseResult{sig, err})
	}
	return results, nil
}

// writeSig prints the fields of sig, one per line.
func writeSig(w io.Writer, sig *dkim.Sig) {
	tm := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return fmt.Sprintf("%d (%s)", t.Unix(), t.UTC().Format(time.RFC3339))
	}
	line := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "%s: %s\n", k, v)
		}
	}

	line("version", fmt.Sprintf("%d", sig.Version))
	line("algorithm", sig.Algorithm)
	line("domain", sig.Domain)
	line("selector", sig.Selector)
	line("canonicalization", sig.Canonicalization.String())
	line("query-methods", strings.Join(sig.QueryMethods, ":"))
	line("identifier", sig.Identifier)
	line("auid", sig.AUID())
	line("created", tm(sig.CreatedAt))
	line("expires", tm(sig.ExpiresAt))
	line("headers", strings.Join(sig.Headers, ":"))
	for _, h := range sig.CopiedHeaders {
		line("copied-header", h)
	}
	if sig.BodyLength >= 0 {
		line("body-length", fmt.Sprintf("%d", sig.BodyLength))
	}
	line("body-hash", sig.BodyHash)
	line("data", sig.Data)
	for _, t := range sig.UnknownTags {
		line("tag "+t.Name, t.Value)
	}
}

func cmdFormat(c *cmd) {
	c.params = "[-fold] <signature"
	var fold bool
	c.flag.BoolVar(&fold, "fold", static.Fold, "print a folded DKIM-Signature header field instead of a single line value")
	c.help = `Parse a DKIM-Signature value and print it in canonical form.

Tags are written in a fixed order, with defaults left out. Domain and selector
are written in ASCII. With -fold, a complete DKIM-Signature header field is
printed, folded to lines of at most 78 characters, ready to be prepended to a
message.

The default for -fold can be set with Fold in the config file.
`
	args := c.Parse()
	if len(args) != 0 {
		c.Usage()
	}

	buf, err := io.ReadAll(os.Stdin)
	xcheckf(err, "reading stdin")
	sig, err := dkim.ParseBytes(buf)
	xcheckf(err, "parsing signature")
	if fold {
		fmt.Print(sig.Header())
	} else {
		fmt.Println(sig.String())
	}
}

func cmdCompose(c *cmd) {
	c.params = "sig.conf"
	c.help = `Compose a DKIM-Signature header field from a signature config file.

The signature config file describes the tags of the signature, see
"dkimsig config describe signature" for an annotated example. The signature is
checked by parsing it, and printed as a folded header field. Signature data can
be left empty for signatures that still have to be signed.
`
	args := c.Parse()
	if len(args) != 1 {
		c.Usage()
	}

	s, err := config.ParseSignature(args[0])
	xcheckf(err, "reading signature config")
	sig, err := s.Sig()
	xcheckf(err, "checking signature config")
	fmt.Print(sig.Header())
}

func cmdConfigTest(c *cmd) {
	c.help = `Parses the configuration file specified with -config and prints any errors.`
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	if configPath == "" {
		log.Fatalf("no config file specified, use -config or set DKIMSIGCONF")
	}
	// Config was already checked at startup, with a fatal error when invalid.
	fmt.Println("config OK")
}

func cmdConfigDescribeStatic(c *cmd) {
	c.params = ">dkimsig.conf"
	c.help = `Prints an annotated empty configuration for use as dkimsig.conf.

The configuration file is optional. It holds log levels and defaults for
commands.
`
	if len(c.Parse()) != 0 {
		c.Usage()
	}

	var sc config.Static
	err := sconf.Describe(os.Stdout, &sc)
	xcheckf(err, "describing config")
}

func cmdConfigDescribeSignature(c *cmd) {
	c.params = ">sig.conf"
	c.help = `Prints an annotated empty signature configuration for use with compose.

The printed configuration needs modifications to make it valid.
`
	if len(c.Parse()) != 0 {
		c.Usage()
	}

	var sc config.Signature
	err := sconf.Describe(os.Stdout, &sc)
	xcheckf(err, "describing config")
}

func cmdVersion(c *cmd) {
	c.help = "Prints this dkimsig version."
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	fmt.Println(version)
	fmt.Printf("%s/%s\n", runtime.GOOS, runtime.GOARCH)
}
