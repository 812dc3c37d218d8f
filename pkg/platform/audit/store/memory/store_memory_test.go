package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "enrollment/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Emit(ctx, audit.Event{Action: audit.EventConsentGranted, SessionID: "a"}))
	require.NoError(t, s.Emit(ctx, audit.Event{Action: audit.EventSessionStarted, SessionID: "b"}))
	require.NoError(t, s.Emit(ctx, audit.Event{Action: audit.EventApplicationSubmitted, SessionID: "a"}))

	events, err := s.ListBySession(ctx, "a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, audit.EventSessionStarted, recent[0].Action)
	assert.Equal(t, audit.CategoryOperations, recent[0].Category)

	s.Clear()
	recent, _ = s.ListRecent(ctx, 10)
	assert.Empty(t, recent)
}
