package state

import (
	"bytes"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"math"
)

// Int decodes a cached value as an integer. Whole-number floats are accepted, anything else is not.
func Int(v jsontext.Value) (int, bool) {
	if v.Kind() != '0' {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(v, &f); err != nil || f != math.Trunc(f) {
		return 0, false
	}

	return int(f), true
}

// Equal reports whether two values are the same json after canonicalization, so `{"a":1,"b":2}` equals
// `{"b":2, "a":1.0}`.
func Equal(a, b jsontext.Value) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}

	ca, cb := a.Clone(), b.Clone()
	if ca.Canonicalize() != nil || cb.Canonicalize() != nil {
		return bytes.Equal(a, b)
	}

	return bytes.Equal(ca, cb)
}
