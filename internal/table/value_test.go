package table_test

import (
	"testing"

	. "github.com/reldb/reldb/internal/table"
	"gotest.tools/assert"
)

func TestValueEqual(t *testing.T) {
	t.Run("same tag and payload", func(t *testing.T) {
		assert.Assert(t, Int(1).Equal(Int(1)))
		assert.Assert(t, Text("a").Equal(Text("a")))
		assert.Assert(t, Float(1.5).Equal(Float(1.5)))
		assert.Assert(t, Bool(true).Equal(Bool(true)))
	})

	t.Run("no cross-type equality", func(t *testing.T) {
		assert.Assert(t, !Int(1).Equal(Bool(true)))
		assert.Assert(t, !Int(1).Equal(Float(1.0)))
		assert.Assert(t, !Bool(false).Equal(Int(0)))
		assert.Assert(t, !Text("1").Equal(Int(1)))
	})
}

func TestValueMatches(t *testing.T) {
	assert.Assert(t, Int(1).Matches(TypeInt))
	assert.Assert(t, !Int(1).Matches(TypeFloat))
	assert.Assert(t, !Bool(true).Matches(TypeInt))
}

func TestDecodeValue(t *testing.T) {
	t.Run("integral float64 for INT", func(t *testing.T) {
		v, err := DecodeValue(float64(42), TypeInt)
		assert.NilError(t, err)
		assert.Assert(t, v.Equal(Int(42)))
	})

	t.Run("non-integral float64 for INT", func(t *testing.T) {
		_, err := DecodeValue(42.5, TypeInt)
		assert.ErrorContains(t, err, "Invalid INT value")
	})

	t.Run("int for FLOAT", func(t *testing.T) {
		v, err := DecodeValue(3, TypeFloat)
		assert.NilError(t, err)
		assert.Assert(t, v.Equal(Float(3)))
	})

	t.Run("bool for INT rejected", func(t *testing.T) {
		_, err := DecodeValue(true, TypeInt)
		assert.ErrorContains(t, err, "Invalid INT value")
	})

	t.Run("string for TEXT", func(t *testing.T) {
		v, err := DecodeValue("hi", TypeText)
		assert.NilError(t, err)
		assert.Assert(t, v.Equal(Text("hi")))
	})

	t.Run("unknown declared type", func(t *testing.T) {
		_, err := DecodeValue(1, ColumnType("DATE"))
		assert.ErrorContains(t, err, "Invalid data type")
	})
}
