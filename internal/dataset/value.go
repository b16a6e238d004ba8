package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Kind classifies the scalar held in a cell.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// nullTokens are cell spellings that loaders upstream of this tool emit for a
// missing value.
var nullTokens = map[string]struct{}{
	"nan": {}, "null": {}, "none": {}, "n/a": {}, "na": {}, "<na>": {},
}

// Value is an optional scalar. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Null returns the absent value.
func Null() Value { return Value{} }

// Number wraps f. NaN and infinities are not representable in the dataset and
// collapse to Null.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// String wraps s. Blank strings and the usual null spellings collapse to Null.
func String(s string) Value {
	return parseCell(s)
}

func parseCell(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Value{}
	}
	if _, ok := nullTokens[strings.ToLower(trimmed)]; ok {
		return Value{}
	}
	return Value{kind: KindString, str: raw}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float reports the numeric reading of v. String cells are parsed leniently
// (surrounding space and thousands separators are ignored).
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		s := strings.ReplaceAll(strings.TrimSpace(v.str), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Text renders v the way it is written to the delimited file.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	default:
		return ""
	}
}

// Equal compares the rendered forms, which is what lands on disk.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	return v.Text() == o.Text()
}
