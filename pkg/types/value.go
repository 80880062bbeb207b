// Package types defines the data model shared by every stage of the
// full-disjunction pipeline: cell values, columns, tuples and tables, and
// the identifiers that tie columns together across tables.
package types

import "fmt"

// Kind tags the payload carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindLabeledNull
	KindStr
	KindInt
	KindReal
)

// Value is a cell in a tuple. Exactly one of the Kind-appropriate fields is
// meaningful at a time; the zero Value is KindNull.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Real  float64
	Label uint64 // valid iff Kind == KindLabeledNull
}

// Null is the ordinary, unlabeled missing value.
var Null = Value{Kind: KindNull}

// Str builds a string-valued cell.
func Str(s string) Value { return Value{Kind: KindStr, Str: s} }

// Int builds an integer-valued cell.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Real builds a floating-point-valued cell.
func Real(r float64) Value { return Value{Kind: KindReal, Real: r} }

// LabeledNull builds a null cell carrying an opaque, process-unique id. Two
// labeled nulls are equal iff their ids are equal.
func LabeledNull(id uint64) Value { return Value{Kind: KindLabeledNull, Label: id} }

// IsNullLike reports whether v counts as null for complementation and
// subsumption purposes: ordinary nulls and labeled nulls both qualify.
func (v Value) IsNullLike() bool {
	return v.Kind == KindNull || v.Kind == KindLabeledNull
}

// Equal compares two values by tag then payload. Values of different kinds
// (including Str vs Int) are never equal, even when their string forms would
// match — per spec.md's ValueTypeMismatch policy, mismatched comparisons
// report "not equal", never an error.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindLabeledNull:
		return v.Label == o.Label
	case KindStr:
		return v.Str == o.Str
	case KindInt:
		return v.Int == o.Int
	case KindReal:
		return v.Real == o.Real
	default:
		return false
	}
}

// String renders the value for diagnostics and string-form embedding input.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindLabeledNull:
		return ""
	case KindStr:
		return v.Str
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindReal:
		return fmt.Sprintf("%g", v.Real)
	default:
		return ""
	}
}
