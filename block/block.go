// Package block defines the immutable candidate block type shared by the
// unfrozen-block consensus core. Blocks themselves are produced and signed
// outside this module (by BlockCodec/Crypto collaborators); this package
// only describes the shape the core needs to reason about them.
package block

import (
	"time"

	"github.com/luxfi/ids"
)

// Block is the candidate block as seen by the consensus core. Everything
// about transaction content, execution, or wire encoding lives outside this
// module; the core only needs height, identity, timing, and a balance-list
// fingerprint to admit, vote on, and freeze a block.
type Block interface {
	// Height is the block's absolute position in the chain; candidates sit
	// above the frozen edge.
	Height() uint64

	// Hash is the block's content-addressed identity.
	Hash() ids.ID

	// PreviousHash is the hash of the block this one extends.
	PreviousHash() ids.ID

	// VerificationTimestamp is when the verifier claims to have produced
	// this block, in milliseconds since the epoch.
	VerificationTimestamp() int64

	// MinimumVoteTimestamp is the earliest moment, in milliseconds since
	// the epoch, any honest verifier may cast a vote for this block.
	MinimumVoteTimestamp() int64

	// BalanceListHash is the hash of the balance list this block claims
	// to produce; Admission treats a mismatch against an independently
	// recomputed balance list as rejection.
	BalanceListHash() ids.ID

	// SignatureIsValid reports whether the block's signature verifies.
	SignatureIsValid() bool

	// ChainScore is a deterministic preference ordering over competing
	// blocks at the same height. Lower is preferred.
	ChainScore(frozenEdgeHeight uint64) int64
}

// New constructs a concrete Block from its fields. It performs no
// validation; validation is Admission's job.
func New(
	height uint64,
	hash ids.ID,
	previousHash ids.ID,
	verificationTimestamp int64,
	minimumVoteTimestamp int64,
	balanceListHash ids.ID,
	signatureValid bool,
	score func(frozenEdgeHeight uint64) int64,
) Block {
	return &basicBlock{
		height:                 height,
		hash:                   hash,
		previousHash:           previousHash,
		verificationTimestamp:  verificationTimestamp,
		minimumVoteTimestamp:   minimumVoteTimestamp,
		balanceListHash:        balanceListHash,
		signatureValid:         signatureValid,
		score:                  score,
	}
}

type basicBlock struct {
	height                uint64
	hash                  ids.ID
	previousHash          ids.ID
	verificationTimestamp int64
	minimumVoteTimestamp  int64
	balanceListHash       ids.ID
	signatureValid        bool
	score                 func(frozenEdgeHeight uint64) int64
}

func (b *basicBlock) Height() uint64                { return b.height }
func (b *basicBlock) Hash() ids.ID                  { return b.hash }
func (b *basicBlock) PreviousHash() ids.ID          { return b.previousHash }
func (b *basicBlock) VerificationTimestamp() int64  { return b.verificationTimestamp }
func (b *basicBlock) MinimumVoteTimestamp() int64   { return b.minimumVoteTimestamp }
func (b *basicBlock) BalanceListHash() ids.ID       { return b.balanceListHash }
func (b *basicBlock) SignatureIsValid() bool        { return b.signatureValid }

func (b *basicBlock) ChainScore(frozenEdgeHeight uint64) int64 {
	if b.score != nil {
		return b.score(frozenEdgeHeight)
	}
	return 0
}

// NowMillis is a convenience helper matching the wire timestamp unit used
// throughout this module (milliseconds since the epoch). Components take a
// Clock collaborator for this in production; tests may use this directly.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
