package table

import (
	"errors"
	"fmt"
)

// SchemaError reports a malformed schema at construction time.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return e.Reason }

func schemaErrorf(format string, args ...any) *SchemaError {
	return &SchemaError{Reason: fmt.Sprintf(format, args...)}
}

// RowShapeError reports a row whose arity differs from the schema's column count.
type RowShapeError struct {
	Want int
	Got  int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("Expected %d values, got %d", e.Want, e.Got)
}

// TypeMismatchError reports a value whose tag does not match the declared column type.
type TypeMismatchError struct {
	Column string
	Want   ColumnType
	Got    ColumnType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("Invalid type for column '%s': expected %s, got %s", e.Column, e.Want, e.Got)
}

type UnknownColumnError struct {
	Column string
	Table  string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("Column '%s' does not exist in table '%s'", e.Column, e.Table)
}

// DuplicatePrimaryKeyError carries the colliding primary key value.
type DuplicatePrimaryKeyError struct {
	Value Value
}

func (e *DuplicatePrimaryKeyError) Error() string {
	return fmt.Sprintf("Duplicate primary key value: %v", e.Value.Scalar())
}

// DuplicateUniqueValueError names the unique column and the colliding value.
type DuplicateUniqueValueError struct {
	Column string
	Value  Value
}

func (e *DuplicateUniqueValueError) Error() string {
	return fmt.Sprintf("Duplicate value for unique column '%s': %v", e.Column, e.Value.Scalar())
}

// ErrEmptyUpdate is returned by update when no set values are given.
var ErrEmptyUpdate = errors.New("Must specify at least one column to update")

type IndexNotFoundError struct {
	Column string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("Index on column '%s' does not exist", e.Column)
}
