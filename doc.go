// Copyright (c) 2020 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Package lox compiles Lox arithmetic expressions to bytecode chunks and runs
// them on a stack VM.
//
//	v, err := lox.Interpret([]byte("2 + 3 * 4"), os.Stdout) // prints 14
package lox
