// Copyright (c) 2020 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lox

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/golox/lox/parser"
	"github.com/golox/lox/token"
)

var compilerLog = commonlog.GetLogger("lox.compiler")

// CompilerOptions represents customizable options for Compile().
type CompilerOptions struct {
	// Name is used in trace output and error values.
	Name string
	// Line is the number of the first source line, 1 if zero.
	Line          int
	Trace         io.Writer
	TraceCompiler bool
}

var (
	// DefaultCompilerOptions holds default Compiler options.
	DefaultCompilerOptions = CompilerOptions{
		Name: "script",
	}
	// TraceCompilerOptions holds Compiler options to print trace output
	// to stdout.
	TraceCompilerOptions = CompilerOptions{
		Name:          "script",
		Trace:         os.Stdout,
		TraceCompiler: true,
	}
)

// Precedence is the binding power of an operator. Higher binds tighter.
type Precedence int

// List of precedence levels, lowest first.
const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

var precedenceNames = [...]string{
	PrecNone:       "NONE",
	PrecAssignment: "ASSIGNMENT",
	PrecOr:         "OR",
	PrecAnd:        "AND",
	PrecEquality:   "EQUALITY",
	PrecComparison: "COMPARISON",
	PrecTerm:       "TERM",
	PrecFactor:     "FACTOR",
	PrecUnary:      "UNARY",
	PrecCall:       "CALL",
	PrecPrimary:    "PRIMARY",
}

func (p Precedence) String() string {
	if p >= 0 && int(p) < len(precedenceNames) {
		return precedenceNames[p]
	}
	return "PREC(" + strconv.Itoa(int(p)) + ")"
}

type parseFn func(c *Compiler)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is indexed by token kind. A kind with a precedence above PrecNone
// must have an infix rule.
var rules [token.EOF + 1]parseRule

func init() {
	rules[token.LeftParen] = parseRule{prefix: (*Compiler).grouping}
	rules[token.Minus] = parseRule{
		prefix:     (*Compiler).unary,
		infix:      (*Compiler).binary,
		precedence: PrecTerm,
	}
	rules[token.Plus] = parseRule{infix: (*Compiler).binary, precedence: PrecTerm}
	rules[token.Slash] = parseRule{infix: (*Compiler).binary, precedence: PrecFactor}
	rules[token.Star] = parseRule{infix: (*Compiler).binary, precedence: PrecFactor}
	rules[token.Number] = parseRule{prefix: (*Compiler).number}
}

func getRule(kind token.Kind) *parseRule {
	return &rules[kind]
}

// Compiler parses an expression and emits bytecode into a Chunk in a single
// pass. It keeps two tokens of state, previous and current.
type Compiler struct {
	scanner  *parser.Scanner
	src      *parser.Source
	chunk    *Chunk
	previous parser.Token
	current  parser.Token
	errors   parser.ErrorList
	opts     CompilerOptions
	trace    io.Writer
	indent   int

	// last token a diagnostic was reported at, one per token
	errTok    parser.Token
	hasErrTok bool

	// constant pool overflow is reported once per chunk
	constsFull bool
}

// NewCompiler creates a new Compiler object for script.
func NewCompiler(script []byte, opts CompilerOptions) *Compiler {
	if opts.Name == "" {
		opts.Name = DefaultCompilerOptions.Name
	}
	var trace io.Writer
	if opts.TraceCompiler {
		trace = opts.Trace
	}
	c := &Compiler{
		chunk: NewChunk(),
		opts:  opts,
		trace: trace,
	}
	c.scanner = parser.NewScannerAt(script, opts.Line, func(err *parser.ScanError) {
		if c.trace != nil {
			c.printTrace("SCANERR", err.Msg)
		}
		c.errors.AddScanError(err)
	})
	c.src = c.scanner.Source()
	return c
}

// Compile compiles given script to a Chunk.
func Compile(script []byte, opts CompilerOptions) (*Chunk, error) {
	return NewCompiler(script, opts).Compile()
}

// Compile parses the whole source as one expression followed by the end of
// input. The returned Chunk ends with OpReturn. Every diagnostic is collected
// before a *CompilerError is returned.
func (c *Compiler) Compile() (*Chunk, error) {
	if c.trace != nil {
		defer untracec(tracec(c, fmt.Sprintf("Compile %s", c.opts.Name)))
	}
	c.advance()
	c.expression()
	c.consume(token.EOF, "Expect end of expression.")
	c.emit(c.previous.Line, OpReturn)

	if len(c.errors) > 0 {
		c.errors.Sort()
		compilerLog.Debugf("compile %s: %d errors", c.opts.Name, len(c.errors))
		return nil, &CompilerError{Name: c.opts.Name, Errs: c.errors}
	}

	compilerLog.Debugf("compile %s: %d bytes, %d constants",
		c.opts.Name, len(c.chunk.Code), len(c.chunk.Constants))
	if c.trace != nil {
		DisassembleChunk(c.trace, c.chunk, c.opts.Name)
	}
	return c.chunk, nil
}

func (c *Compiler) advance() {
	c.previous = c.current
	c.current = c.scanner.Scan()
	for c.current.Kind == token.Error {
		// already reported through the scanner's error handler
		c.current = c.scanner.Scan()
	}
}

func (c *Compiler) consume(kind token.Kind, message string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	if c.trace != nil {
		defer untracec(tracec(c, fmt.Sprintf("parsePrecedence(%s) at %q",
			prec, c.src.Lexeme(c.current))))
	}
	c.advance()
	prefix := getRule(c.previous.Kind).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	prefix(c)

	for prec <= getRule(c.current.Kind).precedence {
		c.advance()
		getRule(c.previous.Kind).infix(c)
	}
}

func (c *Compiler) number() {
	lexeme := c.src.Lexeme(c.previous)
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(c.previous.Line, Value(v))
}

func (c *Compiler) grouping() {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary() {
	op := c.previous
	c.parsePrecedence(PrecUnary)

	switch op.Kind {
	case token.Minus:
		c.emit(op.Line, OpNegate)
	}
}

func (c *Compiler) binary() {
	op := c.previous
	rule := getRule(op.Kind)
	// operands of the same precedence group to the left
	c.parsePrecedence(rule.precedence + 1)

	switch op.Kind {
	case token.Plus:
		c.emit(op.Line, OpAdd)
	case token.Minus:
		c.emit(op.Line, OpSubtract)
	case token.Star:
		c.emit(op.Line, OpMultiply)
	case token.Slash:
		c.emit(op.Line, OpDivide)
	}
}

func (c *Compiler) emitConstant(line int, v Value) {
	c.emit(line, OpConstant, c.makeConstant(v))
}

func (c *Compiler) makeConstant(v Value) int {
	idx := c.chunk.AddConstant(v)
	if idx > maxConstantIndex {
		if !c.constsFull {
			c.constsFull = true
			c.error("Too many constants in one chunk.")
		}
		return 0
	}
	return idx
}

func (c *Compiler) emit(line int, op Opcode, operands ...int) {
	if c.trace != nil {
		c.printTrace(append([]interface{}{"EMIT", OpcodeNames[op]}, intsToIfaces(operands)...)...)
	}
	if err := c.chunk.WriteOp(line, op, operands...); err != nil {
		// only reachable with a broken rule table
		panic(err)
	}
}

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) errorAt(tok parser.Token, message string) {
	if c.hasErrTok && c.errTok == tok {
		return
	}
	c.errTok, c.hasErrTok = tok, true

	var where string
	switch tok.Kind {
	case token.EOF:
		where = "at end"
	case token.Error:
	default:
		where = fmt.Sprintf("at '%s'", c.src.Lexeme(tok))
	}
	if c.trace != nil {
		c.printTrace("ERROR", where, message)
	}
	c.errors.Add(tok.Line, where, message)
}

func (c *Compiler) printTrace(a ...interface{}) {
	const (
		dots = ". . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . "
		n    = len(dots)
	)

	i := 2 * c.indent
	for i > n {
		_, _ = fmt.Fprint(c.trace, dots)
		i -= n
	}
	_, _ = fmt.Fprint(c.trace, dots[0:i])
	_, _ = fmt.Fprintln(c.trace, a...)
}

func tracec(c *Compiler, msg string) *Compiler {
	c.printTrace(msg, "{")
	c.indent++
	return c
}

func untracec(c *Compiler) {
	c.indent--
	c.printTrace("}")
}

func intsToIfaces(a []int) []interface{} {
	out := make([]interface{}, len(a))
	for i := range a {
		out[i] = a[i]
	}
	return out
}
