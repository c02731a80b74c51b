package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/qubicdash/qubicdash/pkg/types"
	"github.com/qubicdash/qubicdash/server/internal/upstream"
)

// chartSeries maps the dashboard's series names to upstream kinds.
var chartSeries = map[string]upstream.SeriesKind{
	"its":    upstream.SeriesITS,
	"sols":   upstream.SeriesSols,
	"totals": upstream.SeriesScores,
}

// scoreChart returns GET /api/v1/charts/scores: the snapshot's daily score
// statistics, oldest day first.
func (h *Handler) scoreChart(w http.ResponseWriter, _ *http.Request) {
	e, ok := h.deps.Store.Snapshot()
	if !ok {
		jsonErr(w, http.StatusServiceUnavailable, "no live network snapshot")
		return
	}
	stats := e.Snapshot.ScoreStatistics
	out := make([]ScoreChartPoint, 0, len(stats))
	for i := len(stats) - 1; i >= 0; i-- {
		s := stats[i]
		out = append(out, ScoreChartPoint{
			Date:         s.DayDate,
			Epoch:        s.Epoch,
			AvgScore:     s.AvgScore,
			MaxScore:     s.MaxScore,
			MinScore:     s.MinScore,
			RealMinScore: s.RealMinScore,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// seriesChart returns GET /api/v1/charts/{its|sols|totals}, fetched with the
// server's own session token.
func (h *Handler) seriesChart(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["series"]
	kind, ok := chartSeries[name]
	if !ok {
		jsonErr(w, http.StatusNotFound, "unknown series")
		return
	}

	token, err := h.deps.Tokens.Token(r.Context())
	h.observe("qubic.li", err)
	if err != nil {
		h.chartFailed(w, r, err)
		return
	}
	points, err := h.deps.History.Series(r.Context(), kind, token)
	h.observe("history", err)
	if err != nil {
		var se *upstream.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
			h.deps.Tokens.Invalidate()
		}
		h.chartFailed(w, r, err)
		return
	}
	if points == nil {
		points = []types.SeriesPoint{}
	}
	jsonResp(w, http.StatusOK, SeriesResponse{Series: name, Points: points})
}

func (h *Handler) chartFailed(w http.ResponseWriter, r *http.Request, err error) {
	slog.Warn("api: chart fetch failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
	jsonErr(w, http.StatusBadGateway, "history unavailable")
}
