// Package channelstate holds the two checks used to police a two-party
// payment channel: whether a new balance distribution may follow a previous
// one under a fixed deposit, and whether a counterparty's approved balances
// corroborate enough of our own accounting to be considered healthy.
//
// Both checks are pure. They never mutate their inputs and are safe to call
// concurrently. Amounts are assumed non-negative; use Validate at the
// boundary to reject anything else before calling in.
package channelstate

import (
	"errors"
	"fmt"
	"math/big"
)

// HealthThresholdPerMille is the minimum corroborated share, in per-mille,
// for a channel to be considered healthy.
const HealthThresholdPerMille = 950

var (
	ErrNegativeAmount = errors.New("negative amount")
	ErrNilAmount      = errors.New("nil amount")
)

var (
	perMille        = big.NewInt(1000)
	healthThreshold = big.NewInt(HealthThresholdPerMille)
)

// Balances maps a participant identifier to its amount.
type Balances map[string]*big.Int

// Sum returns the total of all amounts. An empty mapping sums to zero.
func (b Balances) Sum() *big.Int {
	total := new(big.Int)
	for _, amount := range b {
		total.Add(total, amount)
	}

	return total
}

// Validate reports the first participant holding a nil or negative amount.
func (b Balances) Validate() error {
	for id, amount := range b {
		if amount == nil {
			return fmt.Errorf("participant %q: %w", id, ErrNilAmount)
		}

		if amount.Sign() < 0 {
			return fmt.Errorf("participant %q: %w", id, ErrNegativeAmount)
		}
	}

	return nil
}

// IsValidTransition reports whether next may follow prev in a channel backed
// by deposit:
//
// 1) sum(next) is strictly below deposit.
// 2) sum(next) is not below sum(prev).
// 3) every participant of prev is present in next with an amount not below
// its previous one. A missing participant is not read as zero.
func IsValidTransition(deposit *big.Int, prev, next Balances) bool {
	if deposit == nil {
		return false
	}

	nextTotal := next.Sum()
	if nextTotal.Cmp(deposit) >= 0 {
		return false
	}

	if nextTotal.Cmp(prev.Sum()) < 0 {
		return false
	}

	for id, before := range prev {
		after, ok := next[id]
		if !ok || after.Cmp(before) < 0 {
			return false
		}
	}

	return true
}

// HealthRatio returns the per-mille share of our total that approved
// corroborates, truncated toward zero. Each shared participant counts for
// the smaller of the two amounts; participants only we know about count as
// zero and participants only approved knows about are ignored.
//
// The second result is false when our total is zero and no ratio exists.
func HealthRatio(our, approved Balances) (*big.Int, bool) {
	ourTotal := our.Sum()
	if ourTotal.Sign() == 0 {
		return nil, false
	}

	corroborated := new(big.Int)
	for id, ours := range our {
		theirs, ok := approved[id]
		if !ok {
			continue
		}

		if theirs.Cmp(ours) < 0 {
			corroborated.Add(corroborated, theirs)
		} else {
			corroborated.Add(corroborated, ours)
		}
	}

	ratio := corroborated.Mul(corroborated, perMille)

	return ratio.Quo(ratio, ourTotal), true
}

// IsHealthy reports whether approved corroborates at least
// HealthThresholdPerMille of our balances. A zero total on our side is
// never healthy.
func IsHealthy(our, approved Balances) bool {
	ratio, ok := HealthRatio(our, approved)
	if !ok {
		return false
	}

	return ratio.Cmp(healthThreshold) >= 0
}
