package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrollment/internal/intake/models"
	dErrors "enrollment/pkg/domain-errors"
)

func TestNext(t *testing.T) {
	to, err := Next(models.StepSubmit, EventSubmitted)
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, to)

	to, err = Next(models.StepCompleted, EventRestart)
	require.NoError(t, err)
	assert.Equal(t, models.StepConsent, to)

	_, err = Next(models.StepConsent, EventSubmitted)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

// The flow only moves forward, apart from the identity verification loops.
func TestTransitionsMoveForward(t *testing.T) {
	loops := map[edge]bool{
		{models.StepVerifyPrimaryID, EventDocumentRejected}:  true,
		{models.StepCorrectPrimaryID, EventCorrectionApplied}: true,
	}
	for e, to := range transitions {
		if loops[e] || to.IsTerminal() {
			continue
		}
		assert.Greater(t, int(to), int(e.from), "%s --%s--> %s", e.from, e.event, to)
	}
}

func TestTerminalStepsHaveNoExits(t *testing.T) {
	for e := range transitions {
		assert.False(t, e.from.IsTerminal(), "terminal %s has edge %s", e.from, e.event)
	}
}

func TestTokenHelpers(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 35, ageOn("14/08/1990", now))
	assert.Equal(t, 36, ageOn("02/03/1990", now))
	assert.Zero(t, ageOn("not a date", now))

	assert.Equal(t, "XXXX XXXX 1294", maskPrimaryID("482177301294"))
	assert.Equal(t, "XXXXXX7890", maskTail("1234567890"))
	assert.Equal(t, "482177301294", digitsOnly("4821-7730 1294"))
	assert.Equal(t, "i agree", normalizeToken("  I   AGREE "))

	field, _, ok := parseCorrectionField("update address")
	require.True(t, ok)
	assert.Equal(t, "address", field)
	_, _, ok = parseCorrectionField("7")
	assert.False(t, ok)

	color, ok := parseRationColor("2")
	require.True(t, ok)
	assert.Equal(t, colorOrange, color)
}
