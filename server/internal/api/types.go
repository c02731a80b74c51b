package api

import (
	"github.com/qubicdash/qubicdash/pkg/types"
	"github.com/qubicdash/qubicdash/server/internal/alerts"
	"github.com/qubicdash/qubicdash/server/internal/projection"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State        string   `json:"state"` // "ok" | "degraded" | "unknown"
	SnapshotLive bool     `json:"snapshot_live"`
	PriceLive    bool     `json:"price_live"`
	SnapshotAge  *float64 `json:"snapshot_age_seconds,omitempty"`
	AlertCount   int      `json:"alert_count"`
	GeneratedAt  string   `json:"generated_at"` // RFC3339
}

// NetworkResponse is the payload for GET /api/v1/network.
type NetworkResponse struct {
	Epoch                      int            `json:"epoch"`
	EstimatedIts               float64        `json:"estimated_its"`
	AverageScore               float64        `json:"average_score"`
	MinScore                   float64        `json:"min_score"`
	MaxScore                   float64        `json:"max_score"`
	TotalScore                 float64        `json:"total_score"`
	ScoreCount                 int            `json:"score_count"`
	ComputorCount              int            `json:"computor_count"`
	SolutionsPerHour           float64        `json:"solutions_per_hour"`
	SolutionsPerHourCalculated float64        `json:"solutions_per_hour_calculated"`
	Difficulty                 float64        `json:"difficulty"`
	CreatedAt                  string         `json:"created_at"`
	UpdatedAt                  string         `json:"updated_at"` // RFC3339, when fetched
	Display                    NetworkDisplay `json:"display"`
}

// NetworkDisplay holds the network figures as display strings.
type NetworkDisplay struct {
	EstimatedIts     string `json:"estimated_its"`    // "7,414,904"
	EstimatedItsSI   string `json:"estimated_its_si"` // "7.41 Mit/s"
	AverageScore     string `json:"average_score"`
	SolutionsPerHour string `json:"solutions_per_hour"`
	Difficulty       string `json:"difficulty"`
	CreatedAt        string `json:"created_at"`
}

// EpochResponse is the payload for GET /api/v1/epoch.
type EpochResponse struct {
	Number           int          `json:"number"`
	Start            string       `json:"start"` // RFC3339 UTC
	End              string       `json:"end"`   // RFC3339 UTC
	Progress         float64      `json:"progress"`
	RemainingSeconds int64        `json:"remaining_seconds"`
	Display          EpochDisplay `json:"display"`
}

// EpochDisplay holds the epoch window as display strings.
type EpochDisplay struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Progress  string `json:"progress"`
	Remaining string `json:"remaining"`
}

// PriceResponse is the payload for GET /api/v1/price.
type PriceResponse struct {
	Asset    string  `json:"asset"`
	Currency string  `json:"currency"`
	Price    float64 `json:"price"`
	At       string  `json:"at"` // RFC3339
	Display  string  `json:"display"`
}

// IncomeResponse is the payload for GET /api/v1/income.
// Figures that cannot be computed are null; their display strings are "N/A".
type IncomeResponse struct {
	Lang                     string                 `json:"lang"`
	Method                   string                 `json:"method"`
	Hashrate                 float64                `json:"hashrate"`
	Solutions                *float64               `json:"solutions"`
	Epoch                    int                    `json:"epoch"`
	EpochProgress            float64                `json:"epoch_progress"`
	Price                    projection.Amount      `json:"price"`
	PerUnitIncome            projection.Amount      `json:"per_unit_income"`
	DailyIncome              projection.Amount      `json:"daily_income"`
	PricePerSolution         projection.Amount      `json:"price_per_solution"`
	DailyIncomeFromSolutions projection.Amount      `json:"daily_income_from_solutions"`
	ExpectedDailySolutions   projection.Amount      `json:"expected_daily_solutions"`
	ExpectedSolutionsSoFar   projection.Amount      `json:"expected_solutions_so_far"`
	Luckiness                projection.Amount      `json:"luckiness"`
	Methods                  []MethodIncomeResponse `json:"methods"`
	Display                  IncomeDisplay          `json:"display"`
}

// MethodIncomeResponse is the per-solution pricing under one method.
type MethodIncomeResponse struct {
	Method                   string            `json:"method"`
	Label                    string            `json:"label"`
	PricePerSolution         projection.Amount `json:"price_per_solution"`
	DailyIncomeFromSolutions projection.Amount `json:"daily_income_from_solutions"`
	Display                  struct {
		PricePerSolution         string `json:"price_per_solution"`
		DailyIncomeFromSolutions string `json:"daily_income_from_solutions"`
	} `json:"display"`
}

// IncomeDisplay holds the selected-method figures as display strings.
type IncomeDisplay struct {
	Price                    string `json:"price"`
	PerUnitIncome            string `json:"per_unit_income"`
	DailyIncome              string `json:"daily_income"`
	PricePerSolution         string `json:"price_per_solution"`
	DailyIncomeFromSolutions string `json:"daily_income_from_solutions"`
	ExpectedDailySolutions   string `json:"expected_daily_solutions"`
	ExpectedSolutionsSoFar   string `json:"expected_solutions_so_far"`
	Luckiness                string `json:"luckiness"`
	EpochProgress            string `json:"epoch_progress"`
}

// ScoreChartPoint is one day of GET /api/v1/charts/scores.
type ScoreChartPoint struct {
	Date         string  `json:"date"`
	Epoch        int     `json:"epoch"`
	AvgScore     float64 `json:"avg_score"`
	MaxScore     float64 `json:"max_score"`
	MinScore     float64 `json:"min_score"`
	RealMinScore float64 `json:"real_min_score"`
}

// SeriesResponse is the payload for GET /api/v1/charts/{its|sols|totals}.
type SeriesResponse struct {
	Series string              `json:"series"`
	Points []types.SeriesPoint `json:"points"`
}

// TranslationsResponse is the payload for GET /api/v1/translations.
type TranslationsResponse struct {
	Lang     string            `json:"lang"`
	Messages map[string]string `json:"messages"`
}

// DashboardResponse is the payload for GET /api/v1/snapshot and the data of
// every WebSocket broadcast. Sections without live data are null.
type DashboardResponse struct {
	Lang        string           `json:"lang"`
	Network     *NetworkResponse `json:"network"`
	Epoch       *EpochResponse   `json:"epoch"`
	Price       *PriceResponse   `json:"price"`
	Diagnostics []DiagnosticHint `json:"diagnostics"`
	Alerts      []*alerts.Alert  `json:"alerts"`
	GeneratedAt string           `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
