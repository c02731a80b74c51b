package projection

import (
	"errors"
	"fmt"

	"github.com/qubicdash/qubicdash/pkg/types"
)

// ErrNotComputable is wrapped by every error ComputeIncome returns when it
// declines to produce an estimate.
var ErrNotComputable = errors.New("projection: income not computable")

// IncomeInput carries everything ComputeIncome reads.
type IncomeInput struct {
	Snapshot *types.NetworkSnapshot
	Window   EpochWindow
	Price    float64

	// Hashrate is the user's it/s. Required.
	Hashrate *float64

	// Solutions is the user's solution count so far this epoch. Optional.
	Solutions *float64
}

// SolutionIncome is the per-solution pricing under one method.
type SolutionIncome struct {
	Method                   PricingMethod `json:"-"`
	PricePerSolution         Amount        `json:"price_per_solution"`
	DailyIncomeFromSolutions Amount        `json:"daily_income_from_solutions"`
}

// IncomeEstimate is the full set of derived income figures.
type IncomeEstimate struct {
	Price                  float64
	PerUnitIncome          Amount
	DailyIncome            Amount
	ExpectedDailySolutions Amount
	ExpectedSolutionsSoFar Amount
	Luckiness              Amount

	// BySolutions holds one entry per PricingMethod, in Methods order.
	BySolutions []SolutionIncome
}

// Solutions returns the pricing for m. ok is false for unknown methods.
func (e IncomeEstimate) Solutions(m PricingMethod) (SolutionIncome, bool) {
	for _, s := range e.BySolutions {
		if s.Method == m {
			return s, true
		}
	}
	return SolutionIncome{}, false
}

// ComputeIncome derives income and luckiness figures:
//
//	perUnitIncome          = PoolShare * price * (EpochEmission / estimatedIts / EpochDays / HashrateCorrection)
//	dailyIncome            = hashrate * perUnitIncome
//	pricePerSolution       = (1 / basis / ScoreCorrection) * SolutionReward * SolutionRewardShare * price
//	expectedDailySolutions = 24 * hashrate * solutionsPerHourCalculated / estimatedIts
//	expectedSolutionsSoFar = expectedDailySolutions * progress * EpochDays
//	luckiness              = solutions / expectedSolutionsSoFar
//
// It declines with an error wrapping ErrNotComputable when the price is zero,
// the hashrate is absent or the snapshot is nil. Zero divisors in the snapshot
// do not decline; the affected figures are N/A.
func ComputeIncome(in IncomeInput, p Params) (IncomeEstimate, error) {
	switch {
	case in.Snapshot == nil:
		return IncomeEstimate{}, fmt.Errorf("%w: %w", ErrNotComputable, ErrIncompleteSnapshot)
	case in.Price == 0:
		return IncomeEstimate{}, fmt.Errorf("%w: price is zero", ErrNotComputable)
	case in.Hashrate == nil:
		return IncomeEstimate{}, fmt.Errorf("%w: hashrate missing", ErrNotComputable)
	}

	snap := in.Snapshot
	hashrate := *in.Hashrate

	perUnit := div(p.EpochEmission, snap.EstimatedIts).
		Div(p.EpochDays).
		Div(p.HashrateCorrection).
		Mul(p.PoolShare * in.Price)

	out := IncomeEstimate{
		Price:                  in.Price,
		PerUnitIncome:          perUnit,
		DailyIncome:            perUnit.Mul(hashrate),
		ExpectedDailySolutions: div(24*hashrate*snap.SolutionsPerHourCalculated, snap.EstimatedIts),
	}
	out.ExpectedSolutionsSoFar = out.ExpectedDailySolutions.Mul(in.Window.Progress * p.EpochDays)

	for _, m := range Methods {
		out.BySolutions = append(out.BySolutions, solutionIncome(m, snap, in.Price, in.Solutions, p))
	}

	if in.Solutions != nil {
		if expected, ok := out.ExpectedSolutionsSoFar.Value(); ok {
			out.Luckiness = div(*in.Solutions, expected)
		}
	}
	return out, nil
}

// solutionIncome prices one solution against m's score basis.
func solutionIncome(m PricingMethod, snap *types.NetworkSnapshot, price float64, solutions *float64, p Params) SolutionIncome {
	out := SolutionIncome{Method: m}
	if basis, ok := m.scoreBasis(snap, p).Value(); ok {
		out.PricePerSolution = div(1, basis).
			Div(p.ScoreCorrection).
			Mul(p.SolutionReward).
			Mul(p.SolutionRewardShare).
			Mul(price)
	}
	switch {
	case solutions == nil:
		out.DailyIncomeFromSolutions = Of(0)
	default:
		out.DailyIncomeFromSolutions = out.PricePerSolution.Mul(*solutions)
	}
	return out
}
