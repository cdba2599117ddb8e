// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lox

import (
	"math"
	"strconv"
)

// Value is a runtime value. Only numbers exist so far.
type Value float64

// String formats the value the way the runtime prints it: the shortest
// decimal that round-trips, no exponent, "inf", "-inf" and "NaN" for the
// special values.
func (v Value) String() string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

