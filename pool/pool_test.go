package pool

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/veriloom/unfrozen/block"
)

func scoredBlock(height uint64, hash ids.ID, score int64) block.Block {
	return block.New(height, hash, ids.Empty, 0, 0, ids.Empty, true,
		func(uint64) int64 { return score })
}

func TestRegisterAndGet(t *testing.T) {
	require := require.New(t)
	p, err := New(500, nil, prometheus.NewRegistry())
	require.NoError(err)

	h := ids.GenerateTestID()
	b := scoredBlock(101, h, 5)
	p.Register(101, h, b, 100, false)

	got, ok := p.Get(101, h)
	require.True(ok)
	require.Equal(b, got)
	require.Equal(1, p.Count(101))
}

func TestEvictionUnderFlood(t *testing.T) {
	require := require.New(t)
	p, err := New(500, nil, prometheus.NewRegistry())
	require.NoError(err)

	var worstHash ids.ID
	for i := 0; i < 500; i++ {
		h := ids.GenerateTestID()
		score := int64(i + 1) // strictly increasing; last one is highest
		if i == 499 {
			worstHash = h
		}
		p.Register(101, h, scoredBlock(101, h, score), 100, false)
	}
	require.Equal(500, p.Count(101))

	newcomer := ids.GenerateTestID()
	p.Register(101, newcomer, scoredBlock(101, newcomer, 0), 100, false)

	require.Equal(500, p.Count(101))
	_, stillThere := p.Get(101, worstHash)
	require.False(stillThere, "the strictly-highest-scored block should have been evicted")
	_, newcomerThere := p.Get(101, newcomer)
	require.True(newcomerThere)
}

func TestEvictionTieEvictsNewcomer(t *testing.T) {
	require := require.New(t)
	p, err := New(1, nil, prometheus.NewRegistry())
	require.NoError(err)

	existing := ids.GenerateTestID()
	p.Register(101, existing, scoredBlock(101, existing, 5), 100, false)

	newcomer := ids.GenerateTestID()
	p.Register(101, newcomer, scoredBlock(101, newcomer, 5), 100, false)

	require.Equal(1, p.Count(101))
	_, existingThere := p.Get(101, existing)
	require.True(existingThere, "on a tie the newcomer must be evicted")
	_, newcomerThere := p.Get(101, newcomer)
	require.False(newcomerThere, "on a tie the newcomer must be evicted")
}

func TestGenesisCycleExemptFromCap(t *testing.T) {
	require := require.New(t)
	p, err := New(2, nil, prometheus.NewRegistry())
	require.NoError(err)

	for i := 0; i < 5; i++ {
		h := ids.GenerateTestID()
		p.Register(101, h, scoredBlock(101, h, int64(i)), 100, true)
	}
	require.Equal(5, p.Count(101))
}

func TestPurgeAtOrBelow(t *testing.T) {
	require := require.New(t)
	p, err := New(500, nil, prometheus.NewRegistry())
	require.NoError(err)

	h1 := ids.GenerateTestID()
	h2 := ids.GenerateTestID()
	p.Register(100, h1, scoredBlock(100, h1, 0), 99, false)
	p.Register(101, h2, scoredBlock(101, h2, 0), 99, false)
	p.SetThresholdOverride(100, 60)
	p.SetHashOverride(100, ids.GenerateTestID())

	p.PurgeAtOrBelow(100)

	require.Equal(0, p.Count(100))
	require.Equal(1, p.Count(101))
	_, hasThreshold := p.ThresholdOverride(100)
	require.False(hasThreshold)
	_, hasHash := p.HashOverride(100)
	require.False(hasHash)
}

func TestHashOverrideRoundTrip(t *testing.T) {
	require := require.New(t)
	p, err := New(500, nil, prometheus.NewRegistry())
	require.NoError(err)

	h := ids.GenerateTestID()
	p.SetHashOverride(101, h)
	overrides := p.GetHashOverrides()
	require.Equal(h, overrides[101])

	p.SetHashOverride(101, ZeroHash)
	overrides = p.GetHashOverrides()
	_, ok := overrides[101]
	require.False(ok)
}

func TestSetThresholdOverrideIgnoresOutOfRange(t *testing.T) {
	require := require.New(t)
	p, err := New(500, nil, prometheus.NewRegistry())
	require.NoError(err)

	p.SetThresholdOverride(101, 100)
	_, ok := p.ThresholdOverride(101)
	require.False(ok)

	p.SetThresholdOverride(101, 60)
	v, ok := p.ThresholdOverride(101)
	require.True(ok)
	require.Equal(60, v)

	p.SetThresholdOverride(101, 0)
	_, ok = p.ThresholdOverride(101)
	require.False(ok)
}
