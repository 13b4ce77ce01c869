package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumber_Format(t *testing.T) {
	for range 100 {
		n := NewNumber()
		require.Regexp(t, `^ORD-[A-Z0-9]{10}$`, n)
	}
}

func TestNewNumber_Distinct(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		n := NewNumber()
		_, dup := seen[n]
		assert.False(t, dup, "duplicate order number %s", n)
		seen[n] = struct{}{}
	}
}
