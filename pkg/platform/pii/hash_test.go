package pii

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasher(t *testing.T) {
	h := NewHasher("secret")

	a := h.Hash("1234 5678 9012")
	assert.Len(t, a, 64)
	assert.Equal(t, a, h.Hash("123456789012"))
	assert.NotContains(t, a, "9012")
	assert.NotEqual(t, a, NewHasher("other").Hash("123456789012"))
	assert.Empty(t, h.Hash("   "))
}

func TestHasherLongKey(t *testing.T) {
	h := NewHasher(strings.Repeat("k", 100))
	assert.Len(t, h.Hash("ABCDE1234F"), 64)
}
