// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

//go:build !js
// +build !js

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/term"

	"github.com/golox/lox"
	"github.com/golox/lox/config"
	"github.com/golox/lox/encoder"
	"github.com/golox/lox/importers"
	"github.com/golox/lox/parser"
)

const title = "Lox"

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 64
	exitCompile = 65
	exitRuntime = 70
	exitIO      = 74
)

var log = commonlog.GetLogger("lox")

// Sentinel errors for repl.
var (
	errExit  = errors.New("exit")
	errUsage = errors.New("usage")
)

type options struct {
	filePath   string
	output     string
	configPath string
	disasm     bool
	trace      []string
	traceSet   bool
	verbosity  verbosityFlag
}

// verbosityFlag counts -v occurrences, -v=N sets the value.
type verbosityFlag struct {
	value int
	set   bool
}

func (v *verbosityFlag) String() string {
	if v == nil {
		return "0"
	}
	return strconv.Itoa(v.value)
}

func (v *verbosityFlag) Set(s string) error {
	v.set = true
	if s == "true" {
		v.value++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	v.value = n
	return nil
}

func (*verbosityFlag) IsBoolFlag() bool { return true }

func parseFlags(flagset *flag.FlagSet, args []string) (*options, error) {
	opts := &options{}
	var trace string
	flagset.StringVar(&trace, "trace", "",
		`Comma separated units: -trace compiler,vm`)
	flagset.Var(&opts.verbosity, "v", "Log verbosity, repeat or use -v=N")
	flagset.StringVar(&opts.configPath, "config", "",
		"Configuration file, lox.toml or .loxrc.toml is searched if empty")
	flagset.StringVar(&opts.output, "o", "",
		"Compile the script and write the chunk to the given .loxc file")
	flagset.BoolVar(&opts.disasm, "disasm", false,
		"Print the disassembly of the script instead of running it")

	flagset.Usage = func() {
		_, _ = fmt.Fprint(flagset.Output(),
			"Usage: lox [flags] [script.lox | script.loxc | -]\n\n",
			"If script file is not provided, REPL terminal application is started\n",
			"Use - to read from stdin\n\n",
			"\nFlags:\n",
		)
		flagset.PrintDefaults()
	}

	if err := flagset.Parse(args); err != nil {
		return nil, err
	}

	if trace != "" {
		units, err := config.ParseTrace(trace)
		if err != nil {
			_, _ = fmt.Fprintln(flagset.Output(), err)
			flagset.Usage()
			return nil, errUsage
		}
		opts.trace = units
		opts.traceSet = true
	}

	switch flagset.NArg() {
	case 0:
	case 1:
		opts.filePath = flagset.Arg(0)
	default:
		flagset.Usage()
		return nil, errUsage
	}
	return opts, nil
}

// apply overrides cfg with the settings given on the command line.
func (o *options) apply(cfg *config.Config) {
	if o.verbosity.set {
		cfg.Verbosity = o.verbosity.value
	}
	if o.traceSet {
		cfg.Trace = o.trace
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Default(), nil
	}
	return config.Find(wd)
}

func runFile(cfg *config.Config, opts *options, stdin io.Reader, stdout io.Writer) error {
	imp := &importers.FileImporter{WorkDir: ".", Stdin: stdin}
	data, err := imp.Import(opts.filePath)
	if err != nil {
		return err
	}
	name := imp.Name(opts.filePath)

	var chunk *lox.Chunk
	if encoder.IsEncoded(data) {
		log.Debugf("decoding %s", name)
		chunk, err = encoder.DecodeChunkFrom(bytes.NewReader(data))
	} else {
		copts := lox.CompilerOptions{Name: name}
		if cfg.Tracing(config.TraceCompiler) {
			copts.Trace = stdout
			copts.TraceCompiler = true
		}
		chunk, err = lox.Compile(data, copts)
	}
	if err != nil {
		return err
	}

	switch {
	case opts.output != "":
		return writeChunk(opts.output, chunk)
	case opts.disasm:
		chunk.Fprint(stdout, name)
		return nil
	}

	vmOpts := lox.VMOptions{Out: stdout}
	if cfg.Tracing(config.TraceVM) {
		vmOpts.Trace = stdout
	}
	_, err = lox.NewVM(vmOpts).Interpret(chunk)
	return err
}

func writeChunk(path string, chunk *lox.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return lox.ErrIO.Wrap(err)
	}
	if err := encoder.EncodeChunkTo(chunk, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return lox.ErrIO.Wrap(err)
	}
	log.Infof("wrote %s", path)
	return nil
}

type repl struct {
	eval     *lox.Eval
	out      io.Writer
	errOut   io.Writer
	prompt   string
	history  string
	commands map[string]func(string) error
}

func newREPL(cfg *config.Config, stdout, stderr io.Writer) *repl {
	copts := lox.CompilerOptions{Name: "(repl)"}
	if cfg.Tracing(config.TraceCompiler) {
		copts.Trace = stdout
		copts.TraceCompiler = true
	}
	vmOpts := lox.VMOptions{Out: stdout}
	if cfg.Tracing(config.TraceVM) {
		vmOpts.Trace = stdout
	}

	history, err := cfg.HistoryPath()
	if err != nil {
		log.Errorf("history disabled: %s", err)
		history = ""
	}

	r := &repl{
		eval:    lox.NewEval(copts, vmOpts),
		out:     stdout,
		errOut:  stderr,
		prompt:  cfg.REPL.Prompt,
		history: history,
	}
	r.commands = map[string]func(string) error{
		".commands": r.cmdCommands,
		".chunk":    r.cmdChunk,
		".tokens":   r.cmdTokens,
		".return":   r.cmdReturn,
		".trace":    r.cmdTrace,
		".exit":     func(string) error { return errExit },
	}
	return r
}

var commandHelp = [][2]string{
	{".commands", "Print REPL commands"},
	{".chunk", "Print the disassembly of the last chunk"},
	{".tokens", "Print the tokens of the rest of the line"},
	{".return", "Print the last result"},
	{".trace", "Toggle VM trace output"},
	{".exit", "Exit"},
}

func (r *repl) cmdCommands(_ string) error {
	for _, c := range commandHelp {
		_, _ = fmt.Fprintf(r.out, "%-10s\t%s\n", c[0], c[1])
	}
	return nil
}

func (r *repl) cmdChunk(_ string) error {
	if r.eval.LastChunk == nil {
		_, _ = fmt.Fprintln(r.out, "no chunk")
		return nil
	}
	r.eval.LastChunk.Fprint(r.out, "(repl)")
	return nil
}

func (r *repl) cmdTokens(line string) error {
	src := strings.TrimSpace(strings.TrimPrefix(line, ".tokens"))
	s := parser.NewScanner([]byte(src), func(err *parser.ScanError) {
		_, _ = fmt.Fprintln(r.out, err)
	})
	for _, tok := range s.ScanAll() {
		if tok.Kind.IsLiteral() || tok.Kind.IsKeyword() {
			_, _ = fmt.Fprintf(r.out, "%4d %-13s '%s'\n",
				tok.Line, tok.Kind, s.Source().Lexeme(tok))
			continue
		}
		_, _ = fmt.Fprintf(r.out, "%4d %s\n", tok.Line, tok.Kind)
	}
	return nil
}

func (r *repl) cmdReturn(_ string) error {
	_, _ = fmt.Fprintln(r.out, r.eval.LastResult)
	return nil
}

func (r *repl) cmdTrace(_ string) error {
	if r.eval.VM.Tracing() {
		r.eval.VM.SetTrace(nil)
		_, _ = fmt.Fprintln(r.out, "trace off")
	} else {
		r.eval.VM.SetTrace(r.out)
		_, _ = fmt.Fprintln(r.out, "trace on")
	}
	return nil
}

func (r *repl) execute(line string) error {
	switch {
	case line == "":
		return nil
	case line[0] == '.':
		cmd := strings.Fields(line)[0]
		if fn, ok := r.commands[cmd]; ok {
			return fn(line)
		}
	}

	if _, _, err := r.eval.Run([]byte(line)); err != nil {
		printError(r.errOut, err)
	}
	return nil
}

func (r *repl) printInfo() {
	_, _ = fmt.Fprintln(r.out, title, "Build:", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintln(r.out, "Write .commands to list available commands")
	_, _ = fmt.Fprintln(r.out, "Press Ctrl+D or write .exit command to exit")
	_, _ = fmt.Fprintln(r.out)
}

func (r *repl) run() error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(r.complete)
	r.readHistory(line)
	defer r.writeHistory(line)
	r.printInfo()

	for {
		str, err := line.Prompt(r.prompt)
		if err != nil {
			switch err {
			case io.EOF:
				return nil
			case liner.ErrPromptAborted:
				continue
			}
			return &lox.Error{Message: "prompt error", Cause: err}
		}
		if err = r.execute(str); err != nil {
			if err == errExit {
				return nil
			}
			return err
		}
		if v := strings.TrimSpace(str); len(v) > 0 {
			line.AppendHistory(v)
		}
	}
}

func (r *repl) complete(line string) (completions []string) {
	for _, c := range commandHelp {
		if strings.HasPrefix(c[0], line) {
			completions = append(completions, c[0])
		}
	}
	return
}

func (r *repl) readHistory(line *liner.State) {
	if r.history == "" {
		return
	}
	f, err := os.Open(r.history)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Errorf("failed history read: %s", err)
		}
		return
	}
	defer f.Close()
	if _, err := line.ReadHistory(f); err != nil {
		log.Errorf("failed history read: %s", err)
	}
}

func (r *repl) writeHistory(line *liner.State) {
	if r.history == "" {
		return
	}
	f, err := os.Create(r.history)
	if err != nil {
		log.Errorf("failed history write: %s", err)
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		log.Errorf("failed history write: %s", err)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printError writes err to w, one compiler diagnostic per line.
func printError(w io.Writer, err error) {
	var cerr *lox.CompilerError
	if errors.As(err, &cerr) {
		for _, e := range cerr.Errs {
			_, _ = fmt.Fprintln(w, e)
		}
		return
	}
	_, _ = fmt.Fprintln(w, err)
}

// exitCode maps err to the process exit status.
func exitCode(err error) int {
	var (
		cerr *lox.CompilerError
		rerr *lox.RuntimeError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &cerr):
		return exitCompile
	case errors.Is(err, lox.ErrIO):
		return exitIO
	case errors.Is(err, errUsage), errors.Is(err, config.ErrInvalidConfig):
		return exitUsage
	case errors.As(err, &rerr):
		return exitRuntime
	case errors.Is(err, lox.ErrMalformedChunk), errors.Is(err, lox.ErrInvalidOpCode):
		return exitCompile
	default:
		return exitRuntime
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flagset := flag.NewFlagSet("lox", flag.ContinueOnError)
	flagset.SetOutput(stderr)
	opts, err := parseFlags(flagset, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		printError(stderr, err)
		return exitCode(err)
	}
	opts.apply(cfg)
	commonlog.Configure(cfg.Verbosity, nil)
	if cfg.Path != "" {
		log.Debugf("configuration loaded from %s", cfg.Path)
	}

	if opts.filePath == "" && !isTerminal(stdin) {
		opts.filePath = importers.StdinName
	}

	if opts.filePath != "" {
		err = runFile(cfg, opts, stdin, stdout)
	} else {
		err = newREPL(cfg, stdout, stderr).run()
	}
	if err != nil {
		printError(stderr, err)
	}
	return exitCode(err)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
