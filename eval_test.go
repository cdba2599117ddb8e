package lox_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/golox/lox"
)

func TestEval(t *testing.T) {
	var out bytes.Buffer
	eval := NewEval(DefaultCompilerOptions, VMOptions{Out: &out})
	require.Equal(t, 1, eval.Line())

	v, chunk, err := eval.Run([]byte(`1 + 2`))
	require.NoError(t, err)
	require.Equal(t, Value(3), v)
	require.NotNil(t, chunk)
	require.Same(t, chunk, eval.LastChunk)
	require.Equal(t, Value(3), eval.LastResult)
	require.Equal(t, 2, eval.Line())

	v, _, err = eval.Run([]byte("4 *\n5"))
	require.NoError(t, err)
	require.Equal(t, Value(20), v)
	require.Equal(t, 4, eval.Line())
	require.Equal(t, "3\n20\n", out.String())

	// diagnostics carry the session line
	_, chunk, err = eval.Run([]byte(`)`))
	require.Nil(t, chunk)
	var cerr *CompilerError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, "[line 4] Error at ')': Expect expression.", cerr.Errs[0].Error())
	require.Equal(t, 5, eval.Line())

	_, _, err = eval.Run([]byte("1 +\n\n(2"))
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, "[line 7] Error at end: Expect ')' after expression.",
		cerr.Errs[0].Error())

	// a failed compile keeps the previous result
	require.Equal(t, Value(20), eval.LastResult)
}

func TestEval_StartLine(t *testing.T) {
	eval := NewEval(CompilerOptions{Line: 10}, VMOptions{Out: &bytes.Buffer{}})
	require.Equal(t, 10, eval.Line())
	_, chunk, err := eval.Run([]byte(`-1`))
	require.NoError(t, err)
	require.Equal(t, 10, chunk.Line(0))
}

func TestInterpret(t *testing.T) {
	var out bytes.Buffer
	v, err := Interpret([]byte(`2 + 3 * 4`), &out)
	require.NoError(t, err)
	require.Equal(t, Value(14), v)
	require.Equal(t, "14\n", out.String())

	out.Reset()
	_, err = Interpret([]byte(`2 +`), &out)
	require.Error(t, err)
	var cerr *CompilerError
	require.True(t, errors.As(err, &cerr))
	require.Empty(t, out.String())
}
