// Package tally implements BootstrapTally: a standalone per-attempt vote
// count a newly joining node uses to learn the current frozen tip from
// peer (tip_hash, tip_height) votes.
package tally

import (
	"sort"
	"sync"

	"github.com/luxfi/ids"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/veriloom/unfrozen/internal/bag"
)

// tipVote is the compound key a tally counts: a candidate tip and the
// height the voter claims it sits at.
type tipVote struct {
	hash        ids.ID
	startHeight uint64
}

// Tally counts peer (tip_hash, tip_height) votes for one bootstrap
// attempt. It carries its own lock, independent of the candidate pool's,
// since it only exists during bootstrapping.
type Tally struct {
	mu sync.Mutex

	voters map[ids.NodeID]bool
	counts bag.Bag[tipVote]

	votesRegistered prometheus.Counter
}

// New returns an empty Tally, optionally registering a votes-registered
// counter with reg (reg may be nil in tests).
func New(reg prometheus.Registerer) (*Tally, error) {
	votesRegistered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bootstrap_tally_votes_total",
		Help: "Number of bootstrap tip votes accepted (first vote per voter only)",
	})
	if reg != nil {
		if err := reg.Register(votesRegistered); err != nil {
			return nil, err
		}
	}
	return &Tally{
		voters:          make(map[ids.NodeID]bool),
		counts:          bag.New[tipVote](),
		votesRegistered: votesRegistered,
	}, nil
}

// Vote records voter's vote for (hash, startHeight). A voter's first vote
// is binding; later votes from the same voter are ignored.
func (t *Tally) Vote(voter ids.NodeID, hash ids.ID, startHeight uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.voters[voter] {
		return
	}
	t.voters[voter] = true
	t.counts.Add(tipVote{hash: hash, startHeight: startHeight})
	if t.votesRegistered != nil {
		t.votesRegistered.Inc()
	}
}

// TotalVotes returns the sum of every accepted vote.
func (t *Tally) TotalVotes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts.Len()
}

// Winner returns the (hash, startHeight) pair with the highest vote count.
// Ties are broken deterministically by sorting candidates by
// (hash, startHeight) rather than relying on map iteration order.
// ok is false if no votes have been registered.
func (t *Tally) Winner() (hash ids.ID, startHeight uint64, votes int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	candidates := t.counts.List()
	if len(candidates) == 0 {
		return ids.ID{}, 0, 0, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.hash != b.hash {
			return lessID(a.hash, b.hash)
		}
		return a.startHeight < b.startHeight
	})

	best := candidates[0]
	bestCount := t.counts.Count(best)
	for _, c := range candidates[1:] {
		if count := t.counts.Count(c); count > bestCount {
			best, bestCount = c, count
		}
	}
	return best.hash, best.startHeight, bestCount, true
}

func lessID(a, b ids.ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
