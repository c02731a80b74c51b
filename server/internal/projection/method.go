package projection

import (
	"fmt"
	"strings"

	"github.com/qubicdash/qubicdash/pkg/types"
)

// PricingMethod selects the score basis used to price one solution.
type PricingMethod int

const (
	// MethodAverageScore prices a solution against the network average score.
	MethodAverageScore PricingMethod = iota + 1

	// MethodTotalScore prices a solution against the summed score of all
	// entries divided by Params.ActiveComputors.
	MethodTotalScore
)

// Methods lists every pricing method in display order.
var Methods = []PricingMethod{MethodAverageScore, MethodTotalScore}

// String returns the wire name of m.
func (m PricingMethod) String() string {
	switch m {
	case MethodAverageScore:
		return "average"
	case MethodTotalScore:
		return "total"
	default:
		return fmt.Sprintf("PricingMethod(%d)", int(m))
	}
}

// ParseMethod maps a wire name to a PricingMethod. The empty string selects
// MethodAverageScore. "method1"/"method2" are accepted as aliases.
func ParseMethod(s string) (PricingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "average", "avg", "method1":
		return MethodAverageScore, nil
	case "total", "method2":
		return MethodTotalScore, nil
	default:
		return 0, fmt.Errorf("projection: unknown pricing method %q", s)
	}
}

// scoreBasis returns the per-computor score the method divides by.
func (m PricingMethod) scoreBasis(snap *types.NetworkSnapshot, p Params) Amount {
	switch m {
	case MethodAverageScore:
		return Of(snap.AverageScore)
	case MethodTotalScore:
		return div(snap.TotalScore(), p.ActiveComputors)
	default:
		return Amount{}
	}
}
