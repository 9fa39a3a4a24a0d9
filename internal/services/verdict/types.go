package verdict

import (
	"math/big"

	"github.com/fastprodman/changuard/pkg/channelstate"
)

type TransitionInput struct {
	Deposit *big.Int
	Prev    channelstate.Balances
	Next    channelstate.Balances
}

type TransitionVerdict struct {
	Valid     bool
	PrevTotal *big.Int
	NextTotal *big.Int
}

type HealthInput struct {
	Our      channelstate.Balances
	Approved channelstate.Balances
}

type HealthVerdict struct {
	Healthy bool
	// RatioPerMille is nil when our side holds no balance at all.
	RatioPerMille *big.Int
}
