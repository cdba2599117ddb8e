package lox_test

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/golox/lox"
)

func TestVM_Arithmetic(t *testing.T) {
	expectRun(t, `1`, 1)
	expectRun(t, `1.5`, 1.5)
	expectRun(t, `1 + 2`, 3)
	expectRun(t, `2 + 3 * 4`, 14)
	expectRun(t, `(2 + 3) * 4`, 20)
	expectRun(t, `8 - 4 - 2`, 2)
	expectRun(t, `8 / 4 / 2`, 1)
	expectRun(t, `-2 + 3`, 1)
	expectRun(t, `--2`, 2)
	expectRun(t, `-(2 + 3)`, -5)
	expectRun(t, `1 - -1`, 2)
	expectRun(t, `10 / 4`, 2.5)
	expectRun(t, `((((1))))`, 1)
	expectRun(t, "1 +\n2 *\n3 // six plus one", 7)
	expectRun(t, `1 * 2 + 3 * 4 - 10 / 5`, 12)
}

func TestVM_NumberLiterals(t *testing.T) {
	for _, lit := range []string{
		"0", "1", "007", "3.14", "0.5", "123456789", "1.000001",
		"99999999999999999999", "0.30000000000000004",
	} {
		expected, err := strconv.ParseFloat(lit, 64)
		require.NoError(t, err)
		expectRun(t, lit, Value(expected))
		expectRun(t, "-"+lit, Value(-expected))
	}
}

func TestVM_Print(t *testing.T) {
	expectOutput(t, `2 + 3 * 4`, "14\n")
	expectOutput(t, `1 / 10`, "0.1\n")
	expectOutput(t, `2.5 * 2`, "5\n")
	expectOutput(t, `1 / 0`, "inf\n")
	expectOutput(t, `-1 / 0`, "-inf\n")
	expectOutput(t, `0 / 0`, "NaN\n")
	expectOutput(t, `-0`, "-0\n")
	expectOutput(t, `100000000000000000000000`, "100000000000000000000000\n")
}

func TestVM_DivisionByZero(t *testing.T) {
	v, err := Interpret([]byte(`1 / 0`), &bytes.Buffer{})
	require.NoError(t, err)
	require.True(t, math.IsInf(float64(v), 1))

	v, err = Interpret([]byte(`0 / 0`), &bytes.Buffer{})
	require.NoError(t, err)
	require.True(t, math.IsNaN(float64(v)))
}

func TestVM_RuntimeErrors(t *testing.T) {
	// a chunk pushing one more value than the stack holds
	var code []byte
	var lines []int
	for i := 0; i <= StackMax; i++ {
		code = append(code, OpConstant, 0)
		lines = append(lines, 1, 1)
	}
	expectRunErr(t, &Chunk{Code: code, Lines: lines, Constants: []Value{1}},
		ErrStackOverflow, 2*StackMax)

	// exactly StackMax values fit
	code, lines = code[:2*StackMax], lines[:2*StackMax]
	vm := NewVM(VMOptions{Out: &bytes.Buffer{}})
	v, err := vm.Interpret(&Chunk{Code: code, Lines: lines, Constants: []Value{1}})
	require.NoError(t, err)
	require.Equal(t, Value(0), v)
	require.Equal(t, StackMax, vm.StackSize())

	expectRunErr(t, &Chunk{Code: []byte{OpAdd}, Lines: []int{1}},
		ErrStackUnderflow, 0)
	expectRunErr(t, &Chunk{Code: []byte{OpReturn}, Lines: []int{1}},
		ErrStackUnderflow, 0)
	expectRunErr(t, &Chunk{Code: []byte{OpNegate}, Lines: []int{1}},
		ErrStackUnderflow, 0)
	expectRunErr(t, &Chunk{
		Code:      []byte{OpConstant, 0, OpMultiply},
		Lines:     []int{1, 1, 2},
		Constants: []Value{1},
	}, ErrStackUnderflow, 2)

	expectRunErr(t, &Chunk{Code: []byte{0xFF}, Lines: []int{1}},
		ErrInvalidOpCode, 0)
	expectRunErr(t, &Chunk{
		Code:      []byte{OpConstant, 0, 42},
		Lines:     []int{1, 1, 1},
		Constants: []Value{1},
	}, ErrInvalidOpCode, 2)

	expectRunErr(t, &Chunk{Code: []byte{OpConstant}, Lines: []int{1}},
		ErrMalformedChunk, 0)
	expectRunErr(t, &Chunk{Code: []byte{OpConstant, 3}, Lines: []int{1, 1}},
		ErrMalformedChunk, 0)

	_, err = NewVM(VMOptions{}).Interpret(nil)
	require.True(t, errors.Is(err, ErrMissingChunk))
}

func TestVM_RuntimeErrorMessage(t *testing.T) {
	_, err := NewVM(VMOptions{Out: &bytes.Buffer{}}).Interpret(&Chunk{
		Code:  []byte{0xFF},
		Lines: []int{1},
	})
	require.Error(t, err)
	require.Equal(t, "InvalidOpCodeError: 255\n[line 1] in script", err.Error())

	_, err = NewVM(VMOptions{Out: &bytes.Buffer{}}).Interpret(&Chunk{
		Code:      []byte{OpConstant, 0, OpAdd},
		Lines:     []int{3, 3, 4},
		Constants: []Value{2},
	})
	require.Equal(t, "StackUnderflowError\n[line 4] in script", err.Error())

	// no line information
	_, err = NewVM(VMOptions{Out: &bytes.Buffer{}}).Interpret(&Chunk{
		Code: []byte{OpReturn},
	})
	require.Equal(t, "StackUnderflowError", err.Error())
}

func TestVM_EndOfCode(t *testing.T) {
	var out bytes.Buffer
	vm := NewVM(VMOptions{Out: &out})

	v, err := vm.Interpret(&Chunk{})
	require.NoError(t, err)
	require.Equal(t, Value(0), v)

	v, err = vm.Interpret(&Chunk{
		Code:      []byte{OpConstant, 0, OpNegate},
		Lines:     []int{1, 1, 1},
		Constants: []Value{4},
	})
	require.NoError(t, err)
	require.Equal(t, Value(0), v)
	require.Empty(t, out.String())
	require.Equal(t, 1, vm.StackSize())
}

func TestVM_OutputError(t *testing.T) {
	chunk, err := Compile([]byte(`1 + 1`), DefaultCompilerOptions)
	require.NoError(t, err)

	_, err = NewVM(VMOptions{Out: errWriter{}}).Interpret(chunk)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrIO), "%v", err)
	require.True(t, errors.Is(err, errWrite), "%v", err)

	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, 5, rerr.Offset)
	require.Equal(t, 1, rerr.Line)
}

func TestVM_Trace(t *testing.T) {
	chunk, err := Compile([]byte(`1 + 2`), DefaultCompilerOptions)
	require.NoError(t, err)

	var out, trace bytes.Buffer
	vm := NewVM(VMOptions{Out: &out, Trace: &trace})
	require.True(t, vm.Tracing())
	v, err := vm.Interpret(chunk)
	require.NoError(t, err)
	require.Equal(t, Value(3), v)
	require.Equal(t, "3\n", out.String())

	pad := strings.Repeat(" ", 10)
	expected := pad + "\n" +
		"0000    1 OP_CONSTANT         0 '1'\n" +
		pad + "[ 1 ]\n" +
		"0002    | OP_CONSTANT         1 '2'\n" +
		pad + "[ 1 ][ 2 ]\n" +
		"0004    | OP_ADD\n" +
		pad + "[ 3 ]\n" +
		"0005    | OP_RETURN\n"
	require.Equal(t, expected, trace.String())

	trace.Reset()
	vm.SetTrace(nil)
	require.False(t, vm.Tracing())
	_, err = vm.Interpret(chunk)
	require.NoError(t, err)
	require.Empty(t, trace.String())
}

func TestVM_Reuse(t *testing.T) {
	var out bytes.Buffer
	vm := NewVM(VMOptions{Out: &out})

	for i, script := range []string{`1 + 2`, `-4`, `10 / 4`} {
		chunk, err := Compile([]byte(script), DefaultCompilerOptions)
		require.NoError(t, err)
		_, err = vm.Interpret(chunk)
		require.NoError(t, err, "run %d", i)
		require.Equal(t, 0, vm.StackSize())
	}
	require.Equal(t, "3\n-4\n2.5\n", out.String())

	// a failed run leaves the VM usable
	_, err := vm.Interpret(&Chunk{Code: []byte{OpAdd}, Lines: []int{1}})
	require.Error(t, err)
	out.Reset()
	vm.SetOutput(&out)
	chunk, err := Compile([]byte(`7`), DefaultCompilerOptions)
	require.NoError(t, err)
	v, err := vm.Interpret(chunk)
	require.NoError(t, err)
	require.Equal(t, Value(7), v)
	require.Equal(t, "7\n", out.String())
}

func TestVM_Concurrent(t *testing.T) {
	var out bytes.Buffer
	vm := NewVM(VMOptions{Out: &out})

	const n = 50
	chunks := make([]*Chunk, n)
	for i := range chunks {
		c, err := Compile([]byte(strconv.Itoa(i)+" * 2"), DefaultCompilerOptions)
		require.NoError(t, err)
		chunks[i] = c
	}

	results := make([]Value, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range chunks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = vm.Interpret(chunks[i])
		}(i)
	}
	wg.Wait()

	for i := range chunks {
		require.NoError(t, errs[i])
		require.Equal(t, Value(i*2), results[i])
	}
	require.Equal(t, n, strings.Count(out.String(), "\n"))
}

var errWrite = errors.New("write failed")

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, errWrite
}

func expectRun(t *testing.T, script string, expected Value) {
	t.Helper()
	type testCase struct {
		name   string
		copts  CompilerOptions
		traced bool
	}
	testCases := []testCase{
		{name: "default", copts: DefaultCompilerOptions},
		{name: "traced", copts: CompilerOptions{TraceCompiler: true}, traced: true},
	}
	for _, tC := range testCases {
		t.Run(tC.name, func(t *testing.T) {
			t.Helper()
			var trace bytes.Buffer
			copts := tC.copts
			vopts := VMOptions{Out: &bytes.Buffer{}}
			if tC.traced {
				copts.Trace = &trace
				vopts.Trace = &trace
			}
			chunk, err := Compile([]byte(script), copts)
			require.NoError(t, err, "script: %s", script)

			got, err := NewVM(vopts).Interpret(chunk)
			require.NoError(t, err, "script: %s\n%s", script, trace.String())
			if math.IsNaN(float64(expected)) {
				require.True(t, math.IsNaN(float64(got)))
				return
			}
			require.Equal(t, expected, got, "script: %s\n%s", script, chunk)
			if tC.traced {
				require.NotEmpty(t, trace.String())
			}
		})
	}
}

func expectOutput(t *testing.T, script string, expected string) {
	t.Helper()
	var out bytes.Buffer
	_, err := Interpret([]byte(script), &out)
	require.NoError(t, err, "script: %s", script)
	require.Equal(t, expected, out.String(), "script: %s", script)
}

func expectRunErr(t *testing.T, chunk *Chunk, expected *Error, offset int) {
	t.Helper()
	var out bytes.Buffer
	_, err := NewVM(VMOptions{Out: &out}).Interpret(chunk)
	require.Error(t, err)
	require.True(t, errors.Is(err, expected),
		"expected error %v, got %v", expected, err)

	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr), "%T", err)
	require.Equal(t, offset, rerr.Offset)
	require.Equal(t, chunk.Line(offset), rerr.Line)
	require.Empty(t, out.String())
}
