package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointdeck/pointdeck/internal/domain"
	"github.com/pointdeck/pointdeck/internal/infrastructure/stats"
)

func snapshot(revealed bool, estimates ...string) domain.Snapshot {
	snap := domain.Snapshot{ID: "101", Revealed: revealed}
	for i, e := range estimates {
		est := e
		snap.Users = append(snap.Users, domain.UserView{
			ID:       string(rune('a' + i)),
			Name:     "user",
			Estimate: &est,
			Voted:    true,
		})
	}
	return snap
}

func TestMeanExcludesSymbolicTokens(t *testing.T) {
	m := stats.Mean(snapshot(true, "3", "5", "8", "?"))
	require.NotNil(t, m)
	assert.InDelta(t, (3.0+5.0+8.0)/3.0, *m, 1e-9)
}

func TestMeanNilWhileHidden(t *testing.T) {
	assert.Nil(t, stats.Mean(snapshot(false, "3", "5", "8")))
}

func TestMeanNilWithoutNumericVotes(t *testing.T) {
	assert.Nil(t, stats.Mean(snapshot(true, "?", "☕")))
	assert.Nil(t, stats.Mean(snapshot(true)))
}

func TestMeanSkipsMissingVotes(t *testing.T) {
	snap := snapshot(true, "4", "6")
	snap.Users = append(snap.Users, domain.UserView{ID: "z", Name: "lurker"})

	m := stats.Mean(snap)
	require.NotNil(t, m)
	assert.InDelta(t, 5.0, *m, 1e-9)
}

func TestMeanSupportsDecimalEstimates(t *testing.T) {
	m := stats.Mean(snapshot(true, "0.5", "1.5"))
	require.NotNil(t, m)
	assert.InDelta(t, 1.0, *m, 1e-9)
}
