// Package freeze implements the Freezer: the two-phase (threshold + dwell)
// state machine that promotes a stable super-majority block to the frozen
// chain and reclaims the pool and override maps.
package freeze

import (
	"context"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/veriloom/unfrozen/collab"
	"github.com/veriloom/unfrozen/internal/metric"
	"github.com/veriloom/unfrozen/pool"
)

// DefaultThresholdPercent is the freeze threshold used at heights with no
// explicit override.
const DefaultThresholdPercent = 75

// Freezer drives one freeze attempt per call to Pass.
type Freezer struct {
	log log.Logger

	pool     *pool.Pool
	chain    collab.FrozenChain
	registry collab.VoteRegistry
	nodes    collab.NodeRegistry

	dwell             time.Duration
	defaultThreshold  int

	freezes   prometheus.Counter
	aborts    prometheus.Counter
	dwellTime metric.Averager
}

// New returns a Freezer. A defaultThresholdPercent of 0 uses
// DefaultThresholdPercent (75).
func New(
	p *pool.Pool,
	chain collab.FrozenChain,
	registry collab.VoteRegistry,
	nodes collab.NodeRegistry,
	dwell time.Duration,
	defaultThresholdPercent int,
	logger log.Logger,
	reg prometheus.Registerer,
) (*Freezer, error) {
	if dwell == 0 {
		dwell = 500 * time.Millisecond
	}
	if defaultThresholdPercent == 0 {
		defaultThresholdPercent = DefaultThresholdPercent
	}
	freezes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "freezer_freezes_total",
		Help: "Number of blocks promoted to the frozen chain",
	})
	aborts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "freezer_aborts_total",
		Help: "Number of freeze passes that aborted without promoting a block",
	})
	if reg != nil {
		if err := reg.Register(freezes); err != nil {
			return nil, err
		}
		if err := reg.Register(aborts); err != nil {
			return nil, err
		}
	}
	return &Freezer{
		log:              logger,
		pool:             p,
		chain:            chain,
		registry:         registry,
		nodes:            nodes,
		dwell:            dwell,
		defaultThreshold: defaultThresholdPercent,
		freezes:          freezes,
		aborts:           aborts,
		dwellTime:        metric.NewAverager(),
	}, nil
}

func (f *Freezer) votingPool() uint64 {
	if f.chain.InGenesisCycle() {
		return f.nodes.MeshSize()
	}
	return f.chain.CurrentCycleLength()
}

func (f *Freezer) threshold(h uint64) uint64 {
	votingPool := f.votingPool()
	if percent, ok := f.pool.ThresholdOverride(h); ok {
		return votingPool * uint64(percent) / 100
	}
	return votingPool * uint64(f.defaultThreshold) / 100
}

// Pass runs one freeze attempt for frozen_edge_height + 1. The pool lock is
// not held during the two VoteRegistry checks or the dwell between them;
// after the recheck it is taken once and held across the block lookup,
// FrozenChain.Freeze, and the reclaim of everything at or below the new
// edge.
func (f *Freezer) Pass(ctx context.Context) error {
	h := f.chain.FrozenEdgeHeight() + 1
	threshold := f.threshold(h)

	leaderHash, votes, ok := f.registry.LeadingHash(h)
	if !ok || uint64(votes) <= threshold {
		f.aborts.Inc()
		return nil
	}

	start := time.Now()
	select {
	case <-time.After(f.dwell):
	case <-ctx.Done():
		return ctx.Err()
	}
	f.dwellTime.Observe(float64(time.Since(start)))

	leaderHashAfter, votesAfter, ok := f.registry.LeadingHash(h)
	if !ok || uint64(votesAfter) <= threshold || leaderHashAfter != leaderHash {
		f.aborts.Inc()
		if f.log != nil {
			f.log.Debug("freeze flicker, aborting pass", "height", h)
		}
		return nil
	}

	f.pool.Lock()
	defer f.pool.Unlock()
	b, exists := f.pool.GetLocked(h, leaderHashAfter)
	if !exists {
		f.aborts.Inc()
		return nil
	}

	if err := f.chain.Freeze(ctx, b); err != nil {
		return err
	}
	f.freezes.Inc()
	if f.log != nil {
		f.log.Info("froze block", "height", h, "hash", leaderHashAfter)
	}

	newEdge := f.chain.FrozenEdgeHeight()
	f.pool.PurgeAtOrBelowLocked(newEdge)

	return nil
}
