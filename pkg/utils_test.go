package pkg_test

import (
	"testing"

	"github.com/reldb/reldb/pkg"
	"gotest.tools/assert"
)

func TestFilter(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	even := pkg.Filter(items, func(i int) bool { return i%2 == 0 })
	assert.DeepEqual(t, even, []int{2, 4})
}

func TestNumToInt(t *testing.T) {
	assert.Equal(t, pkg.NumToInt(42), 42)
	assert.Equal(t, pkg.NumToInt(42.0), 42)
	assert.Equal(t, pkg.NumToInt("42"), 0)
}
