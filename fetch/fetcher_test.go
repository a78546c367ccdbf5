package fetch

import (
	"context"
	"testing"

	"github.com/luxfi/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/veriloom/unfrozen/admission"
	"github.com/veriloom/unfrozen/collab"
	"github.com/veriloom/unfrozen/consensustest"
	"github.com/veriloom/unfrozen/pool"
)

func newFetcher(t *testing.T, frozenEdge uint64) (*Fetcher, *pool.Pool, *consensustest.VoteRegistry, *consensustest.MeshTransport) {
	t.Helper()
	p, err := pool.New(500, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	chain := consensustest.NewFrozenChain(frozenEdge)
	registry := consensustest.NewVoteRegistry()
	transport := consensustest.NewMeshTransport()
	balance := consensustest.NewBalanceEngine()
	admit := admission.New(p, chain, balance, 0, nil)

	f, err := New(p, chain, registry, transport, admit, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	return f, p, registry, transport
}

func TestSweepFetchesMissingVotedBlock(t *testing.T) {
	require := require.New(t)
	f, p, registry, transport := newFetcher(t, 100)

	b := consensustest.NewBlock(101).Build()
	registry.SeedVotes(101, b.Hash(), 3)
	transport.SetResponse(b.Hash(), collab.MissingBlockResponse{Block: b})

	require.NoError(f.Sweep(context.Background()))

	_, ok := p.Get(101, b.Hash())
	require.True(ok)
}

func TestSweepSkipsHeldBlocks(t *testing.T) {
	require := require.New(t)
	f, p, registry, transport := newFetcher(t, 100)

	b := consensustest.NewBlock(101).Build()
	p.Register(101, b.Hash(), b, 100, false)
	registry.SeedVotes(101, b.Hash(), 3)
	// A fetch for the held hash would receive this stand-in and admit it at
	// height 102, since Fetch only compares hashes.
	transport.SetResponse(b.Hash(), collab.MissingBlockResponse{Block: consensustest.NewBlock(102).WithHash(b.Hash()).Build()})

	require.NoError(f.Sweep(context.Background()))
	require.Empty(transport.Broadcasts) // sweeping never broadcasts votes
	require.Equal(0, p.Count(102), "held block must not be fetched")
}

func TestSweepSkipsFrozenHeights(t *testing.T) {
	require := require.New(t)
	f, p, registry, transport := newFetcher(t, 100)

	hash := ids.GenerateTestID()
	registry.SeedVotes(100, hash, 3) // at or below frozen edge
	transport.SetResponse(hash, collab.MissingBlockResponse{Block: consensustest.NewBlock(100).WithHash(hash).Build()})

	require.NoError(f.Sweep(context.Background()))
	// Nothing should have been registered into the pool for a frozen height.
	require.Equal(0, p.Count(100))
}

func TestFetchDiscardsMismatchedResponse(t *testing.T) {
	require := require.New(t)
	f, p, _, transport := newFetcher(t, 100)

	requested := ids.GenerateTestID()
	wrong := consensustest.NewBlock(101).Build() // has a different hash
	transport.SetResponse(requested, collab.MissingBlockResponse{Block: wrong})

	require.NoError(f.Fetch(context.Background(), 101, requested))
	_, ok := p.Get(101, wrong.Hash())
	require.False(ok)
}

func TestFetchHandlesAbsentResponse(t *testing.T) {
	require := require.New(t)
	f, _, _, _ := newFetcher(t, 100)
	require.NoError(f.Fetch(context.Background(), 101, ids.GenerateTestID()))
}
