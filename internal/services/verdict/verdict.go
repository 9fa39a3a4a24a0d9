package verdict

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/fastprodman/changuard/pkg/channelstate"
)

type VerdictService struct {
	log *slog.Logger
}

// New returns a VerdictService logging through logger, or through the
// default slog logger when logger is nil.
func New(logger *slog.Logger) *VerdictService {
	if logger == nil {
		logger = slog.Default()
	}

	return &VerdictService{log: logger}
}

// CheckTransition validates the inputs and judges prev -> next:
//
// 1) Reject nil or negative amounts anywhere, including the deposit.
// 2) Run the transition check.
// 3) Report totals alongside the verdict.
func (s *VerdictService) CheckTransition(ctx context.Context, in TransitionInput) (TransitionVerdict, error) {
	err := validateDeposit(in.Deposit)
	if err != nil {
		s.reject(ctx, "transition", err)
		return TransitionVerdict{}, fmt.Errorf("deposit: %w", err)
	}

	err = in.Prev.Validate()
	if err != nil {
		s.reject(ctx, "transition", err)
		return TransitionVerdict{}, fmt.Errorf("prev balances: %w", err)
	}

	err = in.Next.Validate()
	if err != nil {
		s.reject(ctx, "transition", err)
		return TransitionVerdict{}, fmt.Errorf("next balances: %w", err)
	}

	v := TransitionVerdict{
		Valid:     channelstate.IsValidTransition(in.Deposit, in.Prev, in.Next),
		PrevTotal: in.Prev.Sum(),
		NextTotal: in.Next.Sum(),
	}

	s.log.DebugContext(ctx, "transition checked",
		"valid", v.Valid,
		"deposit", in.Deposit.String(),
		"prevTotal", v.PrevTotal.String(),
		"nextTotal", v.NextTotal.String(),
		"prevParticipants", len(in.Prev),
		"nextParticipants", len(in.Next),
	)

	return v, nil
}

// CheckHealth validates both mappings and computes the health verdict.
func (s *VerdictService) CheckHealth(ctx context.Context, in HealthInput) (HealthVerdict, error) {
	err := in.Our.Validate()
	if err != nil {
		s.reject(ctx, "health", err)
		return HealthVerdict{}, fmt.Errorf("our balances: %w", err)
	}

	err = in.Approved.Validate()
	if err != nil {
		s.reject(ctx, "health", err)
		return HealthVerdict{}, fmt.Errorf("approved balances: %w", err)
	}

	ratio, ok := channelstate.HealthRatio(in.Our, in.Approved)

	v := HealthVerdict{Healthy: channelstate.IsHealthy(in.Our, in.Approved)}
	if ok {
		v.RatioPerMille = ratio
	}

	attrs := []any{"healthy", v.Healthy, "ourParticipants", len(in.Our)}
	if ok {
		attrs = append(attrs, "ratioPerMille", ratio.String())
	}

	s.log.DebugContext(ctx, "health checked", attrs...)

	return v, nil
}

func (s *VerdictService) reject(ctx context.Context, check string, err error) {
	s.log.WarnContext(ctx, "rejected input", "check", check, "error", err)
}

func validateDeposit(deposit *big.Int) error {
	if deposit == nil {
		return channelstate.ErrNilAmount
	}

	if deposit.Sign() < 0 {
		return channelstate.ErrNegativeAmount
	}

	return nil
}
