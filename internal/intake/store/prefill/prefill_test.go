package prefill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrollment/internal/intake/models"
)

func TestInMemorySource(t *testing.T) {
	ctx := context.Background()
	src := NewInMemorySource()

	_, ok, err := src.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	rec := models.IdentityRecord{PrimaryID: "482177301294", Name: "Sunita Rao", DateOfBirth: "14/08/1990"}
	require.NoError(t, src.Save(ctx, "s1", rec))

	got, ok, err := src.Lookup(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, *got)
}
