package projection

import "fmt"

// Params holds the business constants of the income formulas. The values are
// deployment parameters; DefaultParams reproduces the reference deployment.
type Params struct {
	// PoolShare is the fraction of gross reward kept after pool fees.
	PoolShare float64 `yaml:"pool_share" toml:"pool_share" json:"pool_share"`

	// EpochEmission is the reward emitted to miners per epoch.
	EpochEmission float64 `yaml:"epoch_emission" toml:"epoch_emission" json:"epoch_emission"`

	// EpochDays is the number of days in one epoch.
	EpochDays float64 `yaml:"epoch_days" toml:"epoch_days" json:"epoch_days"`

	// HashrateCorrection divides the per-it/s income.
	HashrateCorrection float64 `yaml:"hashrate_correction" toml:"hashrate_correction" json:"hashrate_correction"`

	// SolutionReward is the gross reward basis for one unit of score.
	SolutionReward float64 `yaml:"solution_reward" toml:"solution_reward" json:"solution_reward"`

	// ScoreCorrection divides the per-score reward.
	ScoreCorrection float64 `yaml:"score_correction" toml:"score_correction" json:"score_correction"`

	// SolutionRewardShare is the fraction of SolutionReward paid out.
	SolutionRewardShare float64 `yaml:"solution_reward_share" toml:"solution_reward_share" json:"solution_reward_share"`

	// ActiveComputors divides the total score in MethodTotalScore.
	ActiveComputors float64 `yaml:"active_computors" toml:"active_computors" json:"active_computors"`
}

// DefaultParams returns the reference deployment constants.
func DefaultParams() Params {
	return Params{
		PoolShare:           0.85,
		EpochEmission:       782_000_000_000,
		EpochDays:           7,
		HashrateCorrection:  1.06,
		SolutionReward:      1_035_500_000,
		ScoreCorrection:     1.1,
		SolutionRewardShare: 0.92,
		ActiveComputors:     676,
	}
}

// Validate rejects non-positive constants, which would make every figure N/A.
func (p Params) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"pool_share", p.PoolShare},
		{"epoch_emission", p.EpochEmission},
		{"epoch_days", p.EpochDays},
		{"hashrate_correction", p.HashrateCorrection},
		{"solution_reward", p.SolutionReward},
		{"score_correction", p.ScoreCorrection},
		{"solution_reward_share", p.SolutionRewardShare},
		{"active_computors", p.ActiveComputors},
	}
	for _, c := range checks {
		if c.v <= 0 {
			return fmt.Errorf("projection.%s must be positive, got %v", c.name, c.v)
		}
	}
	if p.PoolShare > 1 {
		return fmt.Errorf("projection.pool_share must be at most 1, got %v", p.PoolShare)
	}
	return nil
}
