// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package answers

import "strconv"

// ValueKind tags the closed set of raw answer shapes.
type ValueKind int

const (
	KindUnset ValueKind = iota
	KindChoice
	KindText
	KindNumber
)

// Value is a tagged union for a raw answer. The kind must match the
// owning question's declared type; photo_evidence questions never carry
// a value at all. The zero Value means "not answered" — a numeric 0 is
// a set value and must never be confused with it.
type Value struct {
	kind   ValueKind
	choice string
	text   string
	number float64
}

// Choice wraps a yes_no or multiple_choice selection.
func Choice(option string) Value {
	return Value{kind: KindChoice, choice: option}
}

// Text wraps a free-text answer.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Number wraps a numeric answer.
func Number(n float64) Value {
	return Value{kind: KindNumber, number: n}
}

// Kind returns the value's tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsSet reports whether an answer has been recorded. Empty strings do
// not count; the number 0 does.
func (v Value) IsSet() bool {
	switch v.kind {
	case KindChoice:
		return v.choice != ""
	case KindText:
		return v.text != ""
	case KindNumber:
		return true
	default:
		return false
	}
}

// ChoiceValue returns the selected option for KindChoice values.
func (v Value) ChoiceValue() string { return v.choice }

// TextValue returns the text for KindText values.
func (v Value) TextValue() string { return v.text }

// NumberValue returns the number for KindNumber values.
func (v Value) NumberValue() float64 { return v.number }

// String renders the value for display and persistence. Unset values
// render as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindChoice:
		return v.choice
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	default:
		return ""
	}
}
