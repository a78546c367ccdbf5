package core

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/veriloom/unfrozen/config"
	"github.com/veriloom/unfrozen/consensustest"
)

func TestNodeTickAdmitsVotesAndFreezes(t *testing.T) {
	require := require.New(t)

	cfg, err := config.NewBuilder().
		WithFreezeDwell(time.Millisecond).
		WithFallbackDelay(10 * time.Second).
		Build()
	require.NoError(err)

	chain := consensustest.NewFrozenChain(100)
	chain.SetCurrentCycleLength(8)
	balance := consensustest.NewBalanceEngine()
	registry := consensustest.NewVoteRegistry()
	transport := consensustest.NewMeshTransport()
	nodes := consensustest.NewNodeRegistry(8)
	clock := consensustest.NewClock(1_000_000)

	self := ids.GenerateTestNodeID()
	n, err := New(cfg, self, chain, balance, registry, transport, nodes, clock, nil, prometheus.NewRegistry())
	require.NoError(err)

	b := consensustest.NewBlock(101).
		WithMinimumVoteTimestamp(clock.NowMillis() - 1).
		Build()
	var reasons []string
	require.True(n.Admission.Admit(context.Background(), b, &reasons))

	require.NoError(n.Tick(context.Background()))
	require.Len(transport.Broadcasts, 1)
	require.Equal(b.Hash(), transport.Broadcasts[0].Hash)

	// Seed enough votes for the block this node just voted for, then tick
	// again so Freeze can promote it.
	registry.SeedVotes(101, b.Hash(), 7)
	require.NoError(n.Tick(context.Background()))

	require.Equal(uint64(101), chain.FrozenEdgeHeight())
	require.Equal(0, n.Pool.Count(101))
}
