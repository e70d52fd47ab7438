package domain_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/pointdeck/pointdeck/internal/domain"
)

func TestJoinAssignsIdentity(t *testing.T) {
	room := domain.NewRoom("101")

	userID, snap, err := room.Join("alice")
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	user, ok := snap.Users.Get(userID)
	require.True(t, ok)
	assert.Equal(t, "alice", user.Name)
	assert.Nil(t, user.Estimate)
	assert.False(t, user.Voted)
	assert.False(t, snap.Revealed)
}

func TestJoinRejectsBlankName(t *testing.T) {
	room := domain.NewRoom("101")

	_, _, err := room.Join("   ")
	require.Error(t, err)
	assert.Equal(t, 0, len(room.Snapshot().Users))
}

func TestVoteUnknownUser(t *testing.T) {
	room := domain.NewRoom("101")

	_, err := room.Vote("nope", "5")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestVoteLastWriteWins(t *testing.T) {
	room := domain.NewRoom("101")
	userID, _, err := room.Join("alice")
	require.NoError(t, err)

	_, err = room.Vote(userID, "3")
	require.NoError(t, err)
	_, err = room.Vote(userID, "8")
	require.NoError(t, err)

	snap := room.Show()
	user, ok := snap.Users.Get(userID)
	require.True(t, ok)
	require.NotNil(t, user.Estimate)
	assert.Equal(t, "8", *user.Estimate)
}

func TestVoteAfterRevealStaysVisible(t *testing.T) {
	room := domain.NewRoom("101")
	userID, _, err := room.Join("alice")
	require.NoError(t, err)

	room.Show()
	snap, err := room.Vote(userID, "13")
	require.NoError(t, err)

	user, _ := snap.Users.Get(userID)
	require.NotNil(t, user.Estimate)
	assert.Equal(t, "13", *user.Estimate)
	assert.True(t, snap.Revealed)
}

func TestSnapshotMasksHiddenEstimates(t *testing.T) {
	room := domain.NewRoom("101")
	userID, _, err := room.Join("alice")
	require.NoError(t, err)

	snap, err := room.Vote(userID, "5")
	require.NoError(t, err)

	user, _ := snap.Users.Get(userID)
	assert.Nil(t, user.Estimate, "hidden votes must not leave the room")
	assert.True(t, user.Voted)

	snap = room.Show()
	user, _ = snap.Users.Get(userID)
	require.NotNil(t, user.Estimate)
	assert.Equal(t, "5", *user.Estimate)
}

func TestRejoinPreservesEstimateAndReveal(t *testing.T) {
	room := domain.NewRoom("101")
	userID, _, err := room.Join("alice")
	require.NoError(t, err)
	_, err = room.Vote(userID, "5")
	require.NoError(t, err)
	room.Show()

	snap, err := room.Rejoin(userID, "alice the second")
	require.NoError(t, err)

	assert.True(t, snap.Revealed)
	user, ok := snap.Users.Get(userID)
	require.True(t, ok)
	assert.Equal(t, "alice the second", user.Name)
	require.NotNil(t, user.Estimate)
	assert.Equal(t, "5", *user.Estimate)
}

func TestRejoinUnknownUser(t *testing.T) {
	room := domain.NewRoom("101")
	_, _, err := room.Join("alice")
	require.NoError(t, err)

	_, err = room.Rejoin("stale-token", "bob")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, 1, len(room.Snapshot().Users), "rejected rejoin must not create a user")
}

func TestClearIdempotent(t *testing.T) {
	room := domain.NewRoom("101")
	userID, _, err := room.Join("alice")
	require.NoError(t, err)
	_, err = room.Vote(userID, "5")
	require.NoError(t, err)
	room.Show()

	first := room.Clear()
	second := room.Clear()

	assert.False(t, first.Revealed)
	assert.False(t, second.Revealed)
	for _, snap := range []domain.Snapshot{first, second} {
		user, _ := snap.Users.Get(userID)
		assert.Nil(t, user.Estimate)
		assert.False(t, user.Voted)
	}
	assert.Equal(t, first.Users, second.Users)
}

func TestShowClearShow(t *testing.T) {
	room := domain.NewRoom("101")
	userID, _, err := room.Join("alice")
	require.NoError(t, err)
	_, err = room.Vote(userID, "5")
	require.NoError(t, err)

	room.Show()
	room.Clear()
	snap := room.Show()

	assert.True(t, snap.Revealed)
	user, _ := snap.Users.Get(userID)
	assert.Nil(t, user.Estimate)
	assert.False(t, user.Voted)
}

func TestSnapshotSeqMonotonic(t *testing.T) {
	room := domain.NewRoom("101")

	_, first, err := room.Join("alice")
	require.NoError(t, err)
	second := room.Show()
	third := room.Clear()

	assert.Less(t, first.Seq, second.Seq)
	assert.Less(t, second.Seq, third.Seq)
	assert.Equal(t, third.Seq, room.Snapshot().Seq, "reads must not bump the sequence")
}

func TestSnapshotPreservesJoinOrder(t *testing.T) {
	room := domain.NewRoom("101")

	var ids []string
	for i := 0; i < 5; i++ {
		id, _, err := room.Join(fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	snap := room.Snapshot()
	require.Len(t, snap.Users, 5)
	for i, user := range snap.Users {
		assert.Equal(t, ids[i], user.ID)
	}

	// The JSON object keys come out in join order too
	data, err := json.Marshal(snap.Users)
	require.NoError(t, err)
	prev := -1
	for _, id := range ids {
		idx := strings.Index(string(data), `"`+id+`"`)
		require.GreaterOrEqual(t, idx, 0)
		assert.Greater(t, idx, prev)
		prev = idx
	}
}

func TestVotesCommuteAcrossUsers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		room := domain.NewRoom("101")

		n := rapid.IntRange(1, 6).Draw(t, "users")
		ids := make([]string, n)
		for i := range ids {
			id, _, err := room.Join(fmt.Sprintf("user-%d", i))
			require.NoError(t, err)
			ids[i] = id
		}

		// Apply a random interleaving of votes; only the last vote per
		// user may matter.
		last := make(map[string]string)
		votes := rapid.IntRange(0, 20).Draw(t, "votes")
		for i := 0; i < votes; i++ {
			who := ids[rapid.IntRange(0, n-1).Draw(t, "who")]
			estimate := rapid.SampledFrom([]string{"1", "2", "3", "5", "8", "13", "21", "?"}).Draw(t, "estimate")
			_, err := room.Vote(who, estimate)
			require.NoError(t, err)
			last[who] = estimate
		}

		snap := room.Show()
		for _, id := range ids {
			user, ok := snap.Users.Get(id)
			require.True(t, ok)
			want, voted := last[id]
			if !voted {
				assert.Nil(t, user.Estimate)
				continue
			}
			require.NotNil(t, user.Estimate)
			assert.Equal(t, want, *user.Estimate)
		}
	})
}
