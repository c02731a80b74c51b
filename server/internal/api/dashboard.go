package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/qubicdash/qubicdash/server/internal/alerts"
	"github.com/qubicdash/qubicdash/server/internal/format"
	"github.com/qubicdash/qubicdash/server/internal/i18n"
	"github.com/qubicdash/qubicdash/server/internal/projection"
	"github.com/qubicdash/qubicdash/server/internal/store"
)

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: whether snapshot and price are live.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	resp := HealthResponse{
		AlertCount:  len(h.activeAlerts()),
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
	if e, ok := h.deps.Store.Snapshot(); ok {
		resp.SnapshotLive = true
		age := math.Max(0, now.Sub(e.UpdatedAt).Seconds())
		resp.SnapshotAge = &age
	}
	_, resp.PriceLive = h.deps.Store.Price(h.opts.Asset, h.opts.Currency)

	switch {
	case resp.SnapshotLive && resp.PriceLive:
		resp.State = "ok"
	case resp.SnapshotLive || resp.PriceLive:
		resp.State = "degraded"
	default:
		resp.State = "unknown"
	}
	jsonResp(w, http.StatusOK, resp)
}

// network returns GET /api/v1/network.
func (h *Handler) network(w http.ResponseWriter, r *http.Request) {
	e, ok := h.deps.Store.Snapshot()
	if !ok {
		jsonErr(w, http.StatusServiceUnavailable, "no live network snapshot")
		return
	}
	jsonResp(w, http.StatusOK, h.buildNetwork(e, h.formatter(h.lang(r))))
}

// epoch returns GET /api/v1/epoch.
func (h *Handler) epoch(w http.ResponseWriter, r *http.Request) {
	e, ok := h.deps.Store.Snapshot()
	if !ok {
		jsonErr(w, http.StatusServiceUnavailable, "no live network snapshot")
		return
	}
	resp, err := h.buildEpoch(e, h.now(), h.formatter(h.lang(r)))
	if err != nil {
		jsonErr(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, resp)
}

// price returns GET /api/v1/price.
func (h *Handler) price(w http.ResponseWriter, r *http.Request) {
	e, ok := h.deps.Store.Price(h.opts.Asset, h.opts.Currency)
	if !ok {
		jsonErr(w, http.StatusServiceUnavailable, "no live price")
		return
	}
	jsonResp(w, http.StatusOK, buildPrice(e, h.formatter(h.lang(r))))
}

// income returns GET /api/v1/income?hashrate=&solutions=&method=&lang=.
//
// 400 for malformed parameters, 503 when no live snapshot or price is stored,
// 422 when the projection declines (no hashrate, zero price).
func (h *Handler) income(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hashrate, err := optionalFloat(q, "hashrate")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	solutions, err := optionalFloat(q, "solutions")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	method, err := projection.ParseMethod(q.Get("method"))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, ok := h.deps.Store.Snapshot()
	if !ok {
		jsonErr(w, http.StatusServiceUnavailable, "no live network snapshot")
		return
	}
	price, ok := h.deps.Store.Price(h.opts.Asset, h.opts.Currency)
	if !ok {
		jsonErr(w, http.StatusServiceUnavailable, "no live price")
		return
	}
	win, err := projection.EpochWindowFromSnapshot(h.opts.Anchor, snap.Snapshot, h.now())
	if err != nil {
		jsonErr(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	est, err := projection.ComputeIncome(projection.IncomeInput{
		Snapshot:  snap.Snapshot,
		Window:    win,
		Price:     price.Quote.Price,
		Hashrate:  hashrate,
		Solutions: solutions,
	}, h.Params())
	if errors.Is(err, projection.ErrNotComputable) {
		jsonErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	lang := h.lang(r)
	jsonResp(w, http.StatusOK, buildIncome(lang, h.formatter(lang), method, *hashrate, solutions, win, est))
}

// translations returns GET /api/v1/translations?lang=.
func (h *Handler) translations(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	jsonResp(w, http.StatusOK, TranslationsResponse{Lang: string(lang), Messages: i18n.Messages(lang)})
}

// diagnostics returns GET /api/v1/diagnostics.
func (h *Handler) diagnostics(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.Dashboard(h.opts.Language).Diagnostics)
}

// alerts returns GET /api/v1/alerts.
func (h *Handler) alerts(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.activeAlerts())
}

// snapshot returns GET /api/v1/snapshot: the full dashboard document.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.Dashboard(h.lang(r)))
}

// Dashboard assembles the dashboard document in lang from the live store.
func (h *Handler) Dashboard(lang i18n.Lang) DashboardResponse {
	now := h.now()
	f := h.formatter(lang)
	out := DashboardResponse{
		Lang:        string(lang),
		Alerts:      h.activeAlerts(),
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
	in := diagnosticInput{now: now, anchor: h.opts.Anchor}

	if e, ok := h.deps.Store.Snapshot(); ok {
		out.Network = h.buildNetwork(e, f)
		if ep, err := h.buildEpoch(e, now, f); err == nil {
			out.Epoch = ep
		}
		in.snap = e.Snapshot
		in.age = max(0, now.Sub(e.UpdatedAt))
	}
	if e, ok := h.deps.Store.Price(h.opts.Asset, h.opts.Currency); ok {
		out.Price = buildPrice(e, f)
		in.hasPrice = true
		in.price = e.Quote.Price
	}
	out.Diagnostics = computeDiagnostics(in)
	return out
}

// --- builders ---------------------------------------------------------------

func (h *Handler) lang(r *http.Request) i18n.Lang {
	return i18n.Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), h.opts.Language)
}

func (h *Handler) formatter(lang i18n.Lang) *format.Formatter {
	return format.New(lang.Tag(), h.opts.Location)
}

func (h *Handler) activeAlerts() []*alerts.Alert {
	if h.deps.Alerts == nil {
		return []*alerts.Alert{}
	}
	return h.deps.Alerts.Active()
}

func (h *Handler) buildNetwork(e *store.SnapshotEntry, f *format.Formatter) *NetworkResponse {
	snap := e.Snapshot
	epoch, _ := snap.CurrentEpoch()
	computors := 0
	for _, s := range snap.Scores {
		if s.IsComputor {
			computors++
		}
	}
	created := snap.CreatedAt
	if t, ok := parseCreatedAt(snap.CreatedAt); ok {
		created = f.Date(t)
	}
	return &NetworkResponse{
		Epoch:                      epoch,
		EstimatedIts:               snap.EstimatedIts,
		AverageScore:               snap.AverageScore,
		MinScore:                   snap.MinScore,
		MaxScore:                   snap.MaxScore,
		TotalScore:                 snap.TotalScore(),
		ScoreCount:                 len(snap.Scores),
		ComputorCount:              computors,
		SolutionsPerHour:           snap.SolutionsPerHour,
		SolutionsPerHourCalculated: snap.SolutionsPerHourCalculated,
		Difficulty:                 snap.Difficulty,
		CreatedAt:                  snap.CreatedAt,
		UpdatedAt:                  e.UpdatedAt.UTC().Format(time.RFC3339),
		Display: NetworkDisplay{
			EstimatedIts:     f.Grouped(snap.EstimatedIts),
			EstimatedItsSI:   f.Rate(snap.EstimatedIts, "it/s"),
			AverageScore:     f.Fixed(projection.Of(snap.AverageScore), 2),
			SolutionsPerHour: f.Fixed(projection.Of(snap.SolutionsPerHourCalculated), 2),
			Difficulty:       f.Grouped(snap.Difficulty),
			CreatedAt:        created,
		},
	}
}

func (h *Handler) buildEpoch(e *store.SnapshotEntry, now time.Time, f *format.Formatter) (*EpochResponse, error) {
	win, err := projection.EpochWindowFromSnapshot(h.opts.Anchor, e.Snapshot, now)
	if err != nil {
		return nil, err
	}
	remaining := win.Remaining(now)
	return &EpochResponse{
		Number:           win.Number,
		Start:            win.Start.UTC().Format(time.RFC3339),
		End:              win.End.UTC().Format(time.RFC3339),
		Progress:         win.Progress,
		RemainingSeconds: int64(remaining / time.Second),
		Display: EpochDisplay{
			Start:     f.Date(win.Start),
			End:       f.Date(win.End),
			Progress:  f.Percent(win.Progress),
			Remaining: f.Remaining(remaining),
		},
	}, nil
}

func buildPrice(e *store.PriceEntry, f *format.Formatter) *PriceResponse {
	return &PriceResponse{
		Asset:    e.Quote.Asset,
		Currency: e.Quote.Currency,
		Price:    e.Quote.Price,
		At:       e.Quote.At.UTC().Format(time.RFC3339),
		Display:  f.Price(projection.Of(e.Quote.Price)),
	}
}

func buildIncome(lang i18n.Lang, f *format.Formatter, method projection.PricingMethod, hashrate float64,
	solutions *float64, win projection.EpochWindow, est projection.IncomeEstimate) IncomeResponse {
	sel, _ := est.Solutions(method)
	price := projection.Of(est.Price)

	resp := IncomeResponse{
		Lang:                     string(lang),
		Method:                   method.String(),
		Hashrate:                 hashrate,
		Solutions:                solutions,
		Epoch:                    win.Number,
		EpochProgress:            win.Progress,
		Price:                    price,
		PerUnitIncome:            est.PerUnitIncome,
		DailyIncome:              est.DailyIncome,
		PricePerSolution:         sel.PricePerSolution,
		DailyIncomeFromSolutions: sel.DailyIncomeFromSolutions,
		ExpectedDailySolutions:   est.ExpectedDailySolutions,
		ExpectedSolutionsSoFar:   est.ExpectedSolutionsSoFar,
		Luckiness:                est.Luckiness,
		Methods:                  make([]MethodIncomeResponse, 0, len(est.BySolutions)),
		Display: IncomeDisplay{
			Price:                    f.Price(price),
			PerUnitIncome:            f.Price(est.PerUnitIncome),
			DailyIncome:              f.Income(est.DailyIncome),
			PricePerSolution:         f.Income(sel.PricePerSolution),
			DailyIncomeFromSolutions: f.Income(sel.DailyIncomeFromSolutions),
			ExpectedDailySolutions:   f.Solutions(est.ExpectedDailySolutions),
			ExpectedSolutionsSoFar:   f.Solutions(est.ExpectedSolutionsSoFar),
			Luckiness:                f.Luckiness(est.Luckiness),
			EpochProgress:            f.Percent(win.Progress),
		},
	}
	for _, s := range est.BySolutions {
		m := MethodIncomeResponse{
			Method:                   s.Method.String(),
			Label:                    i18n.T(lang, methodLabelKey(s.Method)),
			PricePerSolution:         s.PricePerSolution,
			DailyIncomeFromSolutions: s.DailyIncomeFromSolutions,
		}
		m.Display.PricePerSolution = f.Income(s.PricePerSolution)
		m.Display.DailyIncomeFromSolutions = f.Income(s.DailyIncomeFromSolutions)
		resp.Methods = append(resp.Methods, m)
	}
	return resp
}

func methodLabelKey(m projection.PricingMethod) string {
	if m == projection.MethodTotalScore {
		return "methodTotal"
	}
	return "methodAverage"
}

// optionalFloat parses q[key]. Absent or empty yields nil; anything that is
// not a finite, non-negative number is an error.
func optionalFloat(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%s: %q is not a number", key, raw)
	}
	if v < 0 {
		return nil, fmt.Errorf("%s must not be negative", key)
	}
	return &v, nil
}

// parseCreatedAt reads the score service's createdAt, which may lack a zone
// (taken as UTC).
func parseCreatedAt(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
