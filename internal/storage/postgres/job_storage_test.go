package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/models"
)

func TestTransitionQuery_RunningSetsStartedAt(t *testing.T) {
	q := transitionQuery(models.JobStatusRunning)
	assert.Contains(t, q, "started_at = now()")
	assert.Contains(t, q, "AND status = $2")
}

func TestTransitionQuery_TerminalSetsCompletedAt(t *testing.T) {
	for _, to := range []models.JobStatus{models.JobStatusSuccess, models.JobStatusFailed} {
		q := transitionQuery(to)
		assert.Contains(t, q, "completed_at = now()", string(to))
		assert.Contains(t, q, "error_message = $4", string(to))
	}
}

func TestTransitionArgs_TruncatesErrorMessage(t *testing.T) {
	long := strings.Repeat("x", models.MaxErrorMessageLength+50)
	args := transitionArgs("id", models.JobStatusRunning, models.JobStatusFailed, &long)
	require.Len(t, args, 4)

	msg, ok := args[3].(*string)
	require.True(t, ok)
	require.NotNil(t, msg)
	assert.Len(t, *msg, models.MaxErrorMessageLength)
}

func TestTransitionArgs_NonTerminalOmitsMessage(t *testing.T) {
	args := transitionArgs("id", models.JobStatusPending, models.JobStatusRunning, nil)
	assert.Len(t, args, 3)
}
