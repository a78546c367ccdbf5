// Package admission implements the Admission component: the validity,
// novelty, and balance-list gate a candidate block must pass before it is
// registered into the CandidatePool.
package admission

import (
	"context"
	"time"

	"github.com/luxfi/log"

	"github.com/veriloom/unfrozen/block"
	"github.com/veriloom/unfrozen/collab"
	"github.com/veriloom/unfrozen/pool"
)

// Admission validates and registers newly observed candidate blocks.
type Admission struct {
	log log.Logger

	pool    *pool.Pool
	chain   collab.FrozenChain
	balance collab.BalanceEngine

	minVerificationInterval time.Duration
}

// New returns an Admission gate backed by p, chain, and balance.
func New(p *pool.Pool, chain collab.FrozenChain, balance collab.BalanceEngine, minVerificationInterval time.Duration, logger log.Logger) *Admission {
	return &Admission{
		log:                     logger,
		pool:                    p,
		chain:                   chain,
		balance:                 balance,
		minVerificationInterval: minVerificationInterval,
	}
}

// Admit validates b against every rejection rule and, if it passes,
// registers it into the pool. reasons, if non-nil, is appended to with a
// short diagnostic for every rejection (never for acceptance); this is an
// out-of-band buffer for local admin tooling, never logged at a noisy
// level, since malformed or duplicate candidates are routine under
// adversarial flood.
func (a *Admission) Admit(ctx context.Context, b block.Block, reasons *[]string) bool {
	reject := func(reason string) bool {
		if reasons != nil {
			*reasons = append(*reasons, reason)
		}
		if a.log != nil {
			a.log.Debug("rejected candidate block", "height", b.Height(), "hash", b.Hash(), "reason", reason)
		}
		return false
	}

	frozenEdge := a.chain.FrozenEdgeHeight()
	if b.Height() <= frozenEdge {
		return reject("stale height")
	}

	openEdge := a.chain.OpenEdgeHeight(true)
	if b.Height() > openEdge {
		return reject("future height")
	}

	if !b.SignatureIsValid() {
		return reject("invalid signature")
	}

	if _, exists := a.pool.Get(b.Height(), b.Hash()); exists {
		return reject("duplicate")
	}

	if previous, ok := a.pool.Get(b.Height()-1, b.PreviousHash()); ok {
		if previous.VerificationTimestamp() > b.VerificationTimestamp()-a.minVerificationInterval.Milliseconds() {
			return reject("verification interval violation")
		}
	}
	// If the predecessor is unknown, the interval check is skipped; a later
	// freeze will catch any divergence it would have guarded against.

	balanceHash, err := a.balance.ComputeBalanceListHash(ctx, b)
	if err != nil {
		return reject("balance list computation failed")
	}
	if balanceHash != b.BalanceListHash() {
		return reject("balance list hash mismatch")
	}

	a.pool.Register(b.Height(), b.Hash(), b, frozenEdge, a.chain.InGenesisCycle())
	if a.log != nil {
		a.log.Debug("admitted candidate block", "height", b.Height(), "hash", b.Hash())
	}
	return true
}
