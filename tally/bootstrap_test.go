package tally

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestBootstrapTallyWinner(t *testing.T) {
	require := require.New(t)
	tally, err := New(prometheus.NewRegistry())
	require.NoError(err)

	hashA := ids.GenerateTestID()
	hashB := ids.GenerateTestID()

	v1, v2, v3 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	v4, v5 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()

	tally.Vote(v1, hashA, 50)
	tally.Vote(v2, hashA, 50)
	tally.Vote(v3, hashA, 50)
	tally.Vote(v4, hashB, 60)
	tally.Vote(v5, hashB, 60)

	require.Equal(5, tally.TotalVotes())

	hash, height, votes, ok := tally.Winner()
	require.True(ok)
	require.Equal(hashA, hash)
	require.EqualValues(50, height)
	require.Equal(3, votes)
}

func TestBootstrapTallyVoteIsIdempotentPerVoter(t *testing.T) {
	require := require.New(t)
	tally, err := New(nil)
	require.NoError(err)

	voter := ids.GenerateTestNodeID()
	hashA := ids.GenerateTestID()
	hashB := ids.GenerateTestID()

	tally.Vote(voter, hashA, 10)
	tally.Vote(voter, hashB, 20) // same voter, different vote: must be ignored

	require.Equal(1, tally.TotalVotes())
	hash, height, votes, ok := tally.Winner()
	require.True(ok)
	require.Equal(hashA, hash)
	require.EqualValues(10, height)
	require.Equal(1, votes)
}

func TestBootstrapTallyWinnerEmpty(t *testing.T) {
	require := require.New(t)
	tally, err := New(nil)
	require.NoError(err)

	_, _, _, ok := tally.Winner()
	require.False(ok)
}

func TestBootstrapTallyTieBreaksDeterministically(t *testing.T) {
	require := require.New(t)
	tally, err := New(nil)
	require.NoError(err)

	var hashA, hashB ids.ID
	hashA[31] = 1
	hashB[31] = 2

	tally.Vote(ids.GenerateTestNodeID(), hashB, 1)
	tally.Vote(ids.GenerateTestNodeID(), hashA, 1)

	hash1, _, _, _ := tally.Winner()

	tally2, err := New(nil)
	require.NoError(err)
	tally2.Vote(ids.GenerateTestNodeID(), hashA, 1)
	tally2.Vote(ids.GenerateTestNodeID(), hashB, 1)

	hash2, _, _, _ := tally2.Winner()

	require.Equal(hash1, hash2, "tie-break must not depend on vote insertion order")
	require.Equal(hashA, hash1, "lexicographically smaller hash wins the tie")
}
