package stripe

import (
	"sort"
	"strconv"
	"strings"
)

// Affine is a linear combination of named index variables plus a constant
// offset. It is represented internally as a canonical string so that two
// Affines built from the same terms in different orders compare equal with
// ==, and so Affine can be used directly as a map key (the active-entry
// index and placement keys both key on Affine) and sorted into a total
// order that is stable across runs.
//
// The constant term, if any, is stored under the empty-string variable name.
type Affine struct {
	repr string
}

// ZeroAffine is the affine with no terms and no constant offset.
var ZeroAffine = Affine{}

// AffineFromMap builds an Affine from a variable-name-to-coefficient map.
// Zero coefficients are dropped.
func AffineFromMap(terms map[string]int64) Affine {
	return Affine{repr: canonicalizeTerms(terms)}
}

// Var returns the affine representing a single index variable with
// coefficient 1.
func Var(name string) Affine {
	return AffineFromMap(map[string]int64{name: 1})
}

// ConstAffine returns the affine representing a constant offset.
func ConstAffine(c int64) Affine {
	if c == 0 {
		return ZeroAffine
	}
	return AffineFromMap(map[string]int64{"": c})
}

// GetMap returns the affine's terms, keyed by variable name; the constant
// offset, if nonzero, appears under the empty-string key.
func (a Affine) GetMap() map[string]int64 {
	terms := make(map[string]int64)
	if a.repr == "" {
		return terms
	}
	for _, part := range strings.Split(a.repr, ",") {
		idx := strings.LastIndex(part, ":")
		name := part[:idx]
		coeff, err := strconv.ParseInt(part[idx+1:], 10, 64)
		if err != nil {
			panic("stripe: malformed affine term " + part)
		}
		terms[name] = coeff
	}
	return terms
}

// Add returns the sum of two affines, term by term.
func (a Affine) Add(b Affine) Affine {
	terms := a.GetMap()
	for name, coeff := range b.GetMap() {
		terms[name] += coeff
	}
	return AffineFromMap(terms)
}

// IsZero reports whether the affine has no terms and no constant offset.
func (a Affine) IsZero() bool {
	return a.repr == ""
}

// Less imposes the total order Affine needs when used as a sorted-map key:
// lexicographic on the canonical representation.
func (a Affine) Less(b Affine) bool {
	return a.repr < b.repr
}

// String renders the affine for diagnostics, terms sorted by name with the
// constant first, e.g. "-3 + 2*i0 + j".
func (a Affine) String() string {
	terms := a.GetMap()
	names := make([]string, 0, len(terms))
	for name := range terms {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	first := true
	for _, name := range names {
		coeff := terms[name]
		if !first {
			if coeff < 0 {
				b.WriteString(" - ")
			} else {
				b.WriteString(" + ")
			}
		} else if coeff < 0 {
			b.WriteString("-")
		}
		first = false

		abs := coeff
		if abs < 0 {
			abs = -abs
		}
		if name == "" {
			b.WriteString(strconv.FormatInt(abs, 10))
			continue
		}
		if abs != 1 {
			b.WriteString(strconv.FormatInt(abs, 10))
			b.WriteString("*")
		}
		b.WriteString(name)
	}
	if first {
		b.WriteString("0")
	}
	return b.String()
}

func canonicalizeTerms(terms map[string]int64) string {
	keys := make([]string, 0, len(terms))
	for k, v := range terms {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(terms[k], 10))
	}
	return b.String()
}
