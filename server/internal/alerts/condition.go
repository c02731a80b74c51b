package alerts

import (
	"strconv"
	"strings"
	"time"

	"github.com/qubicdash/qubicdash/pkg/types"
	"github.com/qubicdash/qubicdash/server/internal/projection"
)

// Observation is the set of figures rules are evaluated against.
type Observation struct {
	EstimatedIts     float64   `json:"estimated_its"`
	AverageScore     float64   `json:"average_score"`
	SolutionsPerHour float64   `json:"solutions_per_hour"`
	Price            float64   `json:"price"`
	EpochProgress    float64   `json:"epoch_progress"`
	Epoch            int       `json:"epoch"`
	At               time.Time `json:"at"`
}

// NewObservation collects the rule fields from a snapshot, a price and the
// epoch window computed for it.
func NewObservation(snap *types.NetworkSnapshot, price float64, win projection.EpochWindow, at time.Time) Observation {
	obs := Observation{
		Price:         price,
		EpochProgress: win.Progress,
		Epoch:         win.Number,
		At:            at,
	}
	if snap != nil {
		obs.EstimatedIts = snap.EstimatedIts
		obs.AverageScore = snap.AverageScore
		obs.SolutionsPerHour = snap.SolutionsPerHourCalculated
	}
	return obs
}

// evalCondition evaluates a rule condition string against an Observation.
//
// Supported expressions (field operator value):
//
//	estimated_its < 1000000
//	average_score < 50
//	solutions_per_hour < 100
//	price < 0.000001
//	epoch_progress > 1
//	epoch != 140
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, obs Observation) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	v, ok := numericField(field, obs)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the observation.
func numericField(field string, obs Observation) (float64, bool) {
	switch field {
	case "estimated_its":
		return obs.EstimatedIts, true
	case "average_score":
		return obs.AverageScore, true
	case "solutions_per_hour":
		return obs.SolutionsPerHour, true
	case "price":
		return obs.Price, true
	case "epoch_progress":
		return obs.EpochProgress, true
	case "epoch":
		return float64(obs.Epoch), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
