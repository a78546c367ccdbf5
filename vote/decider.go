// Package vote implements VoteDecider: on each tick, compute this node's
// vote for frozen_edge_height + 1 and broadcast it if it changed.
package vote

import (
	"context"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/veriloom/unfrozen/block"
	"github.com/veriloom/unfrozen/collab"
	"github.com/veriloom/unfrozen/pool"
)

// FallbackDelayMillis is the default ten-second tie-breaking delay applied
// when no leading hash commands a majority, expressed in the millisecond
// timestamp unit used throughout this module.
const FallbackDelayMillis = 10_000

// Decider computes and broadcasts this node's vote each tick.
type Decider struct {
	log log.Logger

	pool      *pool.Pool
	chain     collab.FrozenChain
	registry  collab.VoteRegistry
	transport collab.MeshTransport
	nodes     collab.NodeRegistry
	clock     collab.Clock
	self      ids.NodeID

	fallbackDelayMillis int64

	votesCast prometheus.Counter
}

// New returns a Decider wired to its collaborators. fallbackDelayMillis
// overrides FallbackDelayMillis; pass 0 to use that default.
func New(
	p *pool.Pool,
	chain collab.FrozenChain,
	registry collab.VoteRegistry,
	transport collab.MeshTransport,
	nodes collab.NodeRegistry,
	clock collab.Clock,
	self ids.NodeID,
	fallbackDelayMillis int64,
	logger log.Logger,
	reg prometheus.Registerer,
) (*Decider, error) {
	if fallbackDelayMillis == 0 {
		fallbackDelayMillis = FallbackDelayMillis
	}
	votesCast := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vote_decider_votes_cast_total",
		Help: "Number of times this node changed and broadcast its vote",
	})
	if reg != nil {
		if err := reg.Register(votesCast); err != nil {
			return nil, err
		}
	}
	return &Decider{
		log:                 logger,
		pool:                p,
		chain:               chain,
		registry:            registry,
		transport:           transport,
		nodes:               nodes,
		clock:               clock,
		self:                self,
		fallbackDelayMillis: fallbackDelayMillis,
		votesCast:           votesCast,
	}, nil
}

// votingPool returns the divisor used to translate vote counts into
// percentages: mesh size during the genesis cycle, cycle length after.
func (d *Decider) votingPool() uint64 {
	if d.chain.InGenesisCycle() {
		return d.nodes.MeshSize()
	}
	return d.chain.CurrentCycleLength()
}

// Tick runs one VoteDecider pass for frozen_edge_height + 1.
func (d *Decider) Tick(ctx context.Context) error {
	h := d.chain.FrozenEdgeHeight() + 1

	d.pool.Lock()
	defer d.pool.Unlock()

	candidates := d.pool.BlocksAtLocked(h)
	if len(candidates) == 0 {
		return nil
	}

	now := d.clock.NowMillis()
	newVoteHash, ok := d.decideLocked(h, now, candidates)
	if !ok {
		return nil
	}

	currentVote, hasVote := d.registry.LocalVote(h)
	if hasVote && currentVote == newVoteHash {
		return nil
	}

	v := collab.BlockVote{Height: h, Hash: newVoteHash, Timestamp: now}
	if err := d.transport.BroadcastVote(ctx, v); err != nil {
		return err
	}
	d.registry.RegisterVote(d.self, h, newVoteHash, now)
	d.votesCast.Inc()
	if d.log != nil {
		d.log.Info("broadcast new vote", "height", h, "hash", newVoteHash)
	}
	return nil
}

// decideLocked picks this node's vote in override / consensus-follow /
// self-choice precedence. Callers must already hold the pool lock.
func (d *Decider) decideLocked(h uint64, now int64, candidates []block.Block) (ids.ID, bool) {
	// 1. Override path.
	if forced, ok := d.pool.HashOverrideLocked(h); ok {
		return forced, true
	}

	// 2. Consensus-follow path.
	poolSize := d.votingPool()
	if leaderHash, votes, ok := d.registry.LeadingHash(h); ok {
		if leaderBlock, ok := d.pool.GetLocked(h, leaderHash); ok {
			majority := poolSize > 0 && uint64(votes) > poolSize/2 && leaderBlock.MinimumVoteTimestamp() <= now
			fallback := leaderBlock.MinimumVoteTimestamp() < now-d.fallbackDelayMillis
			if majority || fallback {
				return leaderHash, true
			}
		}
	}

	// 3. Self-choice path.
	frozenEdge := h - 1
	var best block.Block
	for _, b := range candidates {
		if best == nil || b.ChainScore(frozenEdge) < best.ChainScore(frozenEdge) {
			best = b
		}
	}
	if best != nil && best.MinimumVoteTimestamp() <= now {
		return best.Hash(), true
	}
	return ids.Empty, false
}
