package table

import (
	"fmt"

	"github.com/reldb/reldb/pkg"
)

// ColumnType is the declared type of a table column.
type ColumnType string

const (
	TypeInt   ColumnType = "INT"
	TypeText  ColumnType = "TEXT"
	TypeFloat ColumnType = "FLOAT"
	TypeBool  ColumnType = "BOOL"
)

func (t ColumnType) Valid() bool {
	switch t {
	case TypeInt, TypeText, TypeFloat, TypeBool:
		return true
	}
	return false
}

// Value is a single typed cell. The Type tag selects which payload field is
// meaningful. Tags never coerce: an INT is not a BOOL even though both could
// be encoded as numbers, and an INT never widens to FLOAT.
type Value struct {
	Type  ColumnType
	Int   int
	Text  string
	Float float64
	Bool  bool
}

func Int(v int) Value       { return Value{Type: TypeInt, Int: v} }
func Text(v string) Value   { return Value{Type: TypeText, Text: v} }
func Float(v float64) Value { return Value{Type: TypeFloat, Float: v} }
func Bool(v bool) Value     { return Value{Type: TypeBool, Bool: v} }

// Matches reports whether the value's tag equals the declared type exactly.
func (v Value) Matches(t ColumnType) bool { return v.Type == t }

// Equal is tag-and-content equality.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeInt:
		return v.Int == o.Int
	case TypeText:
		return v.Text == o.Text
	case TypeFloat:
		return v.Float == o.Float
	case TypeBool:
		return v.Bool == o.Bool
	}
	return false
}

// Scalar returns the payload as a bare Go value, for encoding and display.
func (v Value) Scalar() any {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeText:
		return v.Text
	case TypeFloat:
		return v.Float
	case TypeBool:
		return v.Bool
	}
	return nil
}

func (v Value) String() string { return fmt.Sprintf("%v", v.Scalar()) }

// DecodeValue builds a Value of the declared type from a raw decoded scalar.
// This is the boundary where json's numbers-are-float64 behaviour is undone:
// an integral float64 is accepted for an INT column, a Go int is accepted for
// a FLOAT column. Tag mismatches beyond that are rejected.
func DecodeValue(raw any, t ColumnType) (Value, error) {
	switch t {
	case TypeInt:
		switch raw := raw.(type) {
		case int:
			return Int(raw), nil
		case float64:
			if raw != float64(int(raw)) {
				return Value{}, fmt.Errorf("Invalid INT value: %v", raw)
			}
			return Int(pkg.NumToInt(raw)), nil
		}
	case TypeText:
		if s, ok := raw.(string); ok {
			return Text(s), nil
		}
	case TypeFloat:
		switch raw := raw.(type) {
		case float64:
			return Float(raw), nil
		case int:
			return Float(float64(raw)), nil
		}
	case TypeBool:
		if b, ok := raw.(bool); ok {
			return Bool(b), nil
		}
	default:
		return Value{}, fmt.Errorf("Invalid data type: %s", t)
	}
	return Value{}, fmt.Errorf("Invalid %s value: %v (%T)", t, raw, raw)
}
