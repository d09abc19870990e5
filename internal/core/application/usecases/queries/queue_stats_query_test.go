package queries_test

import (
	"testing"

	"storyforge/internal/core/application/usecases/queries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueueStatsQuery_Valid(t *testing.T) {
	query := queries.NewQueueStatsQuery()
	err := query.Validate()
	require.NoError(t, err)
}

func TestQueueStatsQuery_NotConstructedViaConstructor(t *testing.T) {
	query := queries.QueueStatsQuery{}
	err := query.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, queries.ErrQueueStatsQueryIsNotConstructed)
}
