// Package pool implements the CandidatePool: the bounded-memory store of
// unfrozen candidate blocks keyed by (height, hash), plus the operator
// override maps that sit alongside it behind the same lock.
package pool

import (
	"sync"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/veriloom/unfrozen/block"
)

// ZeroHash is the delete sentinel for hash overrides: writing it removes
// the override for that height.
var ZeroHash = ids.Empty

// Pool stores admitted-but-unfrozen blocks and the threshold/hash override
// maps that sit alongside them. All exported methods except the *Locked
// variants take the lock themselves; callers composing a multi-step critical section
// (VoteDecider, Freezer) should use Lock/Unlock directly and the *Locked
// variants.
type Pool struct {
	mu sync.Mutex

	log log.Logger

	cap          int
	unfrozen     map[uint64]map[ids.ID]block.Block
	thresholds   map[uint64]int
	hashOverride map[uint64]ids.ID

	occupancy prometheus.Gauge
	evictions prometheus.Counter
}

// New returns an empty Pool with a per-height cap of perHeightCap.
func New(perHeightCap int, logger log.Logger, reg prometheus.Registerer) (*Pool, error) {
	occupancy := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "candidate_pool_blocks",
		Help: "Number of candidate blocks currently held across all heights",
	})
	evictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "candidate_pool_evictions_total",
		Help: "Number of candidate blocks evicted to respect the per-height cap",
	})
	if reg != nil {
		if err := reg.Register(occupancy); err != nil {
			return nil, err
		}
		if err := reg.Register(evictions); err != nil {
			return nil, err
		}
	}
	return &Pool{
		log:          logger,
		cap:          perHeightCap,
		unfrozen:     make(map[uint64]map[ids.ID]block.Block),
		thresholds:   make(map[uint64]int),
		hashOverride: make(map[uint64]ids.ID),
		occupancy:    occupancy,
		evictions:    evictions,
	}, nil
}

// Lock acquires the pool's critical section. Composing components
// (VoteDecider, Freezer) hold it across several *Locked calls; simple
// callers should prefer the exported non-Locked methods instead.
func (p *Pool) Lock() { p.mu.Lock() }

// Unlock releases the pool's critical section.
func (p *Pool) Unlock() { p.mu.Unlock() }

// Register inserts b at (height, hash), evicting the worst-scored block at
// that height if doing so would exceed the per-height cap. exemptFromCap
// should be true while the node is in the genesis cycle.
func (p *Pool) Register(height uint64, hash ids.ID, b block.Block, frozenEdgeHeight uint64, exemptFromCap bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RegisterLocked(height, hash, b, frozenEdgeHeight, exemptFromCap)
}

// RegisterLocked is Register's body; callers must already hold the lock.
func (p *Pool) RegisterLocked(height uint64, hash ids.ID, b block.Block, frozenEdgeHeight uint64, exemptFromCap bool) {
	inner, ok := p.unfrozen[height]
	if !ok {
		inner = make(map[ids.ID]block.Block)
		p.unfrozen[height] = inner
	}
	inner[hash] = b
	p.occupancy.Inc()

	if exemptFromCap || len(inner) <= p.cap {
		return
	}

	// Evict the worst (highest chain score) block at this height. The
	// newcomer is seeded as the incumbent "worst"; only a strictly greater
	// score displaces it, so on a tie the newcomer itself is evicted.
	worstHash := hash
	worstScore := b.ChainScore(frozenEdgeHeight)
	for h, candidate := range inner {
		if h == hash {
			continue
		}
		if candidate.ChainScore(frozenEdgeHeight) > worstScore {
			worstHash = h
			worstScore = candidate.ChainScore(frozenEdgeHeight)
		}
	}
	delete(inner, worstHash)
	p.occupancy.Dec()
	p.evictions.Inc()
	if p.log != nil {
		p.log.Debug("evicted candidate block",
			"height", height,
			"evictedHash", worstHash,
			"incomingHash", hash,
		)
	}
}

// Get returns the block at (height, hash), if present.
func (p *Pool) Get(height uint64, hash ids.ID) (block.Block, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.GetLocked(height, hash)
}

// GetLocked is Get's body; callers must already hold the lock.
func (p *Pool) GetLocked(height uint64, hash ids.ID) (block.Block, bool) {
	inner, ok := p.unfrozen[height]
	if !ok {
		return nil, false
	}
	b, ok := inner[hash]
	return b, ok
}

// Heights returns a snapshot of every height with at least one candidate.
func (p *Pool) Heights() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint64, 0, len(p.unfrozen))
	for h := range p.unfrozen {
		out = append(out, h)
	}
	return out
}

// Count returns the number of candidates held at height.
func (p *Pool) Count(height uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.unfrozen[height])
}

// BlocksAt returns a snapshot of every candidate held at height.
func (p *Pool) BlocksAt(height uint64) []block.Block {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.BlocksAtLocked(height)
}

// BlocksAtLocked is BlocksAt's body; callers must already hold the lock.
func (p *Pool) BlocksAtLocked(height uint64) []block.Block {
	inner := p.unfrozen[height]
	out := make([]block.Block, 0, len(inner))
	for _, b := range inner {
		out = append(out, b)
	}
	return out
}

// All returns a snapshot of every candidate held across every height.
func (p *Pool) All() []block.Block {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []block.Block
	for _, inner := range p.unfrozen {
		for _, b := range inner {
			out = append(out, b)
		}
	}
	return out
}

// PurgeAtOrBelow drops every candidate with height <= h, along with any
// threshold/hash overrides at or below h.
func (p *Pool) PurgeAtOrBelow(h uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PurgeAtOrBelowLocked(h)
}

// PurgeAtOrBelowLocked is PurgeAtOrBelow's body; callers must already hold
// the lock.
func (p *Pool) PurgeAtOrBelowLocked(h uint64) {
	for height, inner := range p.unfrozen {
		if height <= h {
			p.occupancy.Sub(float64(len(inner)))
			delete(p.unfrozen, height)
		}
	}
	for height := range p.thresholds {
		if height <= h {
			delete(p.thresholds, height)
		}
	}
	for height := range p.hashOverride {
		if height <= h {
			delete(p.hashOverride, height)
		}
	}
}

// Clear drops every candidate and every override, for debugging/resync.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unfrozen = make(map[uint64]map[ids.ID]block.Block)
	p.thresholds = make(map[uint64]int)
	p.hashOverride = make(map[uint64]ids.ID)
	p.occupancy.Set(0)
}

// ThresholdOverride returns the operator-supplied freeze threshold percent
// for height and whether one is set.
func (p *Pool) ThresholdOverride(height uint64) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ThresholdOverrideLocked(height)
}

// ThresholdOverrideLocked is ThresholdOverride's body; callers must already
// hold the lock.
func (p *Pool) ThresholdOverrideLocked(height uint64) (int, bool) {
	v, ok := p.thresholds[height]
	return v, ok
}

// SetThresholdOverride sets the freeze threshold percent for height.
// percent == 0 removes the override; values outside [1, 99] are ignored.
func (p *Pool) SetThresholdOverride(height uint64, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent == 0 {
		delete(p.thresholds, height)
		return
	}
	if percent < 1 || percent >= 100 {
		return
	}
	p.thresholds[height] = percent
}

// GetThresholdOverrides returns a snapshot of every threshold override.
func (p *Pool) GetThresholdOverrides() map[uint64]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[uint64]int, len(p.thresholds))
	for h, v := range p.thresholds {
		out[h] = v
	}
	return out
}

// HashOverride returns the operator-forced hash for height and whether one
// is set.
func (p *Pool) HashOverride(height uint64) (ids.ID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.HashOverrideLocked(height)
}

// HashOverrideLocked is HashOverride's body; callers must already hold the
// lock.
func (p *Pool) HashOverrideLocked(height uint64) (ids.ID, bool) {
	v, ok := p.hashOverride[height]
	return v, ok
}

// SetHashOverride forces VoteDecider to vote hash at height. Writing the
// all-zero hash removes the override.
func (p *Pool) SetHashOverride(height uint64, hash ids.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if hash == ZeroHash {
		delete(p.hashOverride, height)
		return
	}
	p.hashOverride[height] = hash
}

// GetHashOverrides returns a snapshot of every hash override.
func (p *Pool) GetHashOverrides() map[uint64]ids.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[uint64]ids.ID, len(p.hashOverride))
	for h, v := range p.hashOverride {
		out[h] = v
	}
	return out
}
