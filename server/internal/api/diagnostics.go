package api

import (
	"fmt"
	"sort"
	"time"

	"github.com/qubicdash/qubicdash/pkg/types"
	"github.com/qubicdash/qubicdash/server/internal/projection"
)

// DiagnosticHint is one human-readable note about the quality of the data
// the projections are computed from.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical".
	Level string `json:"level"`
	// Title is a short label.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is an optional number associated with the hint.
	Value *float64 `json:"value,omitempty"`
}

// diagnosticInput is what computeDiagnostics looks at. snap is nil when no
// live snapshot is stored.
type diagnosticInput struct {
	snap     *types.NetworkSnapshot
	age      time.Duration
	hasPrice bool
	price    float64
	now      time.Time
	anchor   projection.Anchor
}

var levelRank = map[string]int{"critical": 0, "warning": 1, "info": 2, "ok": 3}

// computeDiagnostics derives data-quality hints, critical first.
func computeDiagnostics(in diagnosticInput) []DiagnosticHint {
	var hints []DiagnosticHint

	// ── Price ────────────────────────────────────────────────────────────────
	switch {
	case !in.hasPrice:
		hints = append(hints, DiagnosticHint{
			Key:   "no_price",
			Level: "critical",
			Title: "No price",
			Detail: "No live spot price is stored. Every income figure needs a price, " +
				"so income estimates are unavailable until the price feed answers again.",
		})
	case in.price == 0:
		v := in.price
		hints = append(hints, DiagnosticHint{
			Key:    "zero_price",
			Level:  "warning",
			Title:  "Price is zero",
			Detail: "The price feed reported 0. Income estimates are declined until a non-zero price arrives.",
			Value:  &v,
		})
	}

	// ── Snapshot ─────────────────────────────────────────────────────────────
	if in.snap == nil {
		hints = append(hints, DiagnosticHint{
			Key:   "no_snapshot",
			Level: "critical",
			Title: "No network snapshot",
			Detail: "No live network snapshot is stored. Either the score service has not " +
				"answered yet or the last successful fetch is older than the snapshot TTL.",
		})
		return sortHints(hints)
	}
	snap := in.snap

	if snap.EstimatedIts == 0 {
		hints = append(hints, DiagnosticHint{
			Key:   "zero_estimated_its",
			Level: "warning",
			Title: "Network it/s is zero",
			Detail: "The snapshot reports an estimated network throughput of 0. " +
				"Income per it/s and expected solutions cannot be computed and show as N/A.",
		})
	}
	if snap.AverageScore == 0 {
		hints = append(hints, DiagnosticHint{
			Key:    "zero_average_score",
			Level:  "warning",
			Title:  "Average score is zero",
			Detail: "Solution pricing by network average score divides by the average score and shows as N/A.",
		})
	}
	if snap.TotalScore() == 0 {
		hints = append(hints, DiagnosticHint{
			Key:    "zero_total_score",
			Level:  "warning",
			Title:  "Total score is zero",
			Detail: "The score list is empty or all zero. Solution pricing by total score shows as N/A.",
		})
	}
	if snap.SolutionsPerHourCalculated == 0 && snap.EstimatedIts != 0 {
		hints = append(hints, DiagnosticHint{
			Key:    "zero_solution_rate",
			Level:  "info",
			Title:  "No solution rate",
			Detail: "The calculated solutions per hour is 0, so expected solutions are 0 and luckiness shows as N/A.",
		})
	}

	// ── Epoch ────────────────────────────────────────────────────────────────
	win, err := projection.EpochWindowFromSnapshot(in.anchor, snap, in.now)
	if err != nil {
		hints = append(hints, DiagnosticHint{
			Key:    "no_epoch",
			Level:  "critical",
			Title:  "Epoch unknown",
			Detail: "The snapshot carries no score statistics, so the current epoch and its window cannot be placed.",
		})
	} else if win.Progress > 1 {
		v := win.Progress * 100
		hints = append(hints, DiagnosticHint{
			Key:   "stale_epoch",
			Level: "warning",
			Title: fmt.Sprintf("Epoch %d overran", win.Number),
			Detail: fmt.Sprintf(
				"Epoch %d should have ended at %s but the upstream still reports it. "+
					"Progress is %.1f%% and expected solutions are extrapolated past the window.",
				win.Number, win.End.Format(time.RFC3339), v),
			Value: &v,
		})
	}

	// ── All clear ────────────────────────────────────────────────────────────
	if len(hints) == 0 {
		age := in.age.Seconds()
		hints = append(hints, DiagnosticHint{
			Key:    "healthy",
			Level:  "ok",
			Title:  "All clear",
			Detail: fmt.Sprintf("Snapshot and price are live. The snapshot was fetched %.0f seconds ago.", age),
			Value:  &age,
		})
	}
	return sortHints(hints)
}

func sortHints(hints []DiagnosticHint) []DiagnosticHint {
	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank[hints[i].Level] < levelRank[hints[j].Level]
	})
	return hints
}
