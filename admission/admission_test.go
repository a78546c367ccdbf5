package admission

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/veriloom/unfrozen/consensustest"
	"github.com/veriloom/unfrozen/pool"
)

func newAdmission(t *testing.T, frozenEdge uint64) (*Admission, *pool.Pool, *consensustest.FrozenChain, *consensustest.BalanceEngine) {
	t.Helper()
	p, err := pool.New(500, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	chain := consensustest.NewFrozenChain(frozenEdge)
	balance := consensustest.NewBalanceEngine()
	a := New(p, chain, balance, 0, nil)
	return a, p, chain, balance
}

func TestAdmitRejectsTamperedBalanceList(t *testing.T) {
	require := require.New(t)
	a, p, _, balance := newAdmission(t, 100)

	b := consensustest.NewBlock(101).WithBalanceListHash(ids.GenerateTestID()).Build()
	balance.Override[b.Hash()] = ids.GenerateTestID() // diverges from b.BalanceListHash()

	var reasons []string
	require.False(a.Admit(context.Background(), b, &reasons))
	require.NotEmpty(reasons)
	require.Equal(0, p.Count(101))
}

func TestAdmitRejectsStaleHeight(t *testing.T) {
	require := require.New(t)
	a, _, _, _ := newAdmission(t, 100)
	b := consensustest.NewBlock(100).Build()
	require.False(a.Admit(context.Background(), b, nil))
}

func TestAdmitRejectsFutureHeight(t *testing.T) {
	require := require.New(t)
	a, _, chain, _ := newAdmission(t, 100)
	chain.SetOpenEdgeHeight(105)
	b := consensustest.NewBlock(200).Build()
	require.False(a.Admit(context.Background(), b, nil))
}

func TestAdmitRejectsInvalidSignature(t *testing.T) {
	require := require.New(t)
	a, _, _, _ := newAdmission(t, 100)
	b := consensustest.NewBlock(101).WithSignatureValid(false).Build()
	require.False(a.Admit(context.Background(), b, nil))
}

func TestAdmitRejectsDuplicate(t *testing.T) {
	require := require.New(t)
	a, _, _, _ := newAdmission(t, 100)
	hash := ids.GenerateTestID()
	b := consensustest.NewBlock(101).WithHash(hash).Build()
	require.True(a.Admit(context.Background(), b, nil))
	require.False(a.Admit(context.Background(), b, nil))
}

func TestAdmitSkipsIntervalCheckWhenPredecessorUnknown(t *testing.T) {
	require := require.New(t)
	a, _, _, _ := newAdmission(t, 100)
	b := consensustest.NewBlock(101).
		WithPreviousHash(ids.GenerateTestID()).
		WithVerificationTimestamp(1000).
		Build()
	require.True(a.Admit(context.Background(), b, nil))
}

func TestAdmitRejectsVerificationIntervalViolation(t *testing.T) {
	require := require.New(t)
	p, err := pool.New(500, nil, prometheus.NewRegistry())
	require.NoError(err)
	chain := consensustest.NewFrozenChain(100)
	balance := consensustest.NewBalanceEngine()
	a := New(p, chain, balance, 5*time.Second, nil)

	prevHash := ids.GenerateTestID()
	prev := consensustest.NewBlock(100).WithHash(prevHash).WithVerificationTimestamp(10_000).Build()
	p.Register(100, prevHash, prev, 99, false)

	b := consensustest.NewBlock(101).
		WithPreviousHash(prevHash).
		WithVerificationTimestamp(12_000). // only 2s after predecessor, need >=5s
		Build()
	require.False(a.Admit(context.Background(), b, nil))
}

func TestAdmitAcceptsValidBlock(t *testing.T) {
	require := require.New(t)
	a, p, _, _ := newAdmission(t, 100)
	b := consensustest.NewBlock(101).Build()
	require.True(a.Admit(context.Background(), b, nil))
	got, ok := p.Get(101, b.Hash())
	require.True(ok)
	require.Equal(b, got)
}
