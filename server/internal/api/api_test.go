package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qubicdash/qubicdash/pkg/types"
	"github.com/qubicdash/qubicdash/server/internal/api"
	"github.com/qubicdash/qubicdash/server/internal/i18n"
	"github.com/qubicdash/qubicdash/server/internal/metrics"
	"github.com/qubicdash/qubicdash/server/internal/projection"
	"github.com/qubicdash/qubicdash/server/internal/store"
	"github.com/qubicdash/qubicdash/server/internal/upstream"
)

// testNow is halfway through epoch 97 of the default anchor.
var testNow = time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC)

// --- fakes ------------------------------------------------------------------

type fakeScores struct {
	resp      *upstream.Response
	err       error
	gotBody   []byte
	gotToken  string
	loginHits int
}

func (f *fakeScores) ForwardLogin(_ context.Context, body []byte) (*upstream.Response, error) {
	f.loginHits++
	f.gotBody = body
	return f.resp, f.err
}

func (f *fakeScores) ForwardScores(_ context.Context, token string) (*upstream.Response, error) {
	f.gotToken = token
	return f.resp, f.err
}

type fakeHistory struct {
	resp     *upstream.Response
	points   []types.SeriesPoint
	err      error
	gotKind  upstream.SeriesKind
	gotToken string
	gotBody  []byte
}

func (f *fakeHistory) Forward(_ context.Context, k upstream.SeriesKind, token string, body []byte) (*upstream.Response, error) {
	f.gotKind, f.gotToken, f.gotBody = k, token, body
	return f.resp, f.err
}

func (f *fakeHistory) Series(_ context.Context, k upstream.SeriesKind, token string) ([]types.SeriesPoint, error) {
	f.gotKind, f.gotToken = k, token
	return f.points, f.err
}

type fakeTokens struct {
	token       string
	err         error
	invalidated int
}

func (f *fakeTokens) Token(context.Context) (string, error) { return f.token, f.err }
func (f *fakeTokens) Invalidate()                           { f.invalidated++ }

// --- helpers ----------------------------------------------------------------

func testSnapshot() *types.NetworkSnapshot {
	return &types.NetworkSnapshot{
		Scores: []types.ScoreEntry{
			{ID: "a", Score: 600, IsComputor: true},
			{ID: "b", Score: 400},
		},
		MinScore:                   400,
		MaxScore:                   600,
		AverageScore:               500,
		CreatedAt:                  "2024-02-24T16:00:00",
		EstimatedIts:               1_000_000,
		SolutionsPerHour:           480,
		SolutionsPerHourCalculated: 500,
		Difficulty:                 1234567,
		ScoreStatistics: []types.ScoreStatistic{
			{Epoch: 97, DayDate: "2024-02-24", AvgScore: 500, MaxScore: 600},
			{Epoch: 97, DayDate: "2024-02-23", AvgScore: 450, MaxScore: 550},
			{Epoch: 97, DayDate: "2024-02-22", AvgScore: 400, MaxScore: 500},
		},
	}
}

type fixture struct {
	h       *api.Handler
	st      *store.Store
	scores  *fakeScores
	history *fakeHistory
	tokens  *fakeTokens
	reg     *metrics.Registry
}

func newFixture(t *testing.T, mutate ...func(*api.Options)) *fixture {
	t.Helper()
	f := &fixture{
		st:      store.New(5 * time.Minute),
		scores:  &fakeScores{},
		history: &fakeHistory{},
		tokens:  &fakeTokens{token: "server-token"},
		reg:     metrics.New(),
	}
	opts := api.Options{
		Asset:    "qubic-network",
		Currency: "usd",
		Anchor:   projection.DefaultAnchor(),
		Params:   projection.DefaultParams(),
		Now:      func() time.Time { return testNow },
	}
	for _, m := range mutate {
		m(&opts)
	}
	f.h = api.New(api.Deps{
		Store:   f.st,
		Scores:  f.scores,
		History: f.history,
		Tokens:  f.tokens,
		Metrics: f.reg,
	}, opts)
	return f
}

func (f *fixture) seed(snap *types.NetworkSnapshot, price float64) {
	if snap != nil {
		f.st.PutSnapshot(snap)
	}
	f.st.PutPrice(types.PriceQuote{Asset: "qubic-network", Currency: "usd", Price: price, At: testNow})
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

// --- health / network / epoch / price ---------------------------------------

func TestHealth(t *testing.T) {
	cases := []struct {
		name  string
		seed  func(*fixture)
		state string
	}{
		{"empty", func(*fixture) {}, "unknown"},
		{"price only", func(f *fixture) { f.seed(nil, 0.000002) }, "degraded"},
		{"both", func(f *fixture) { f.seed(testSnapshot(), 0.000002) }, "ok"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.seed(f)
			rec := f.do(t, http.MethodGet, "/api/v1/health", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.state, decode(t, rec)["state"])
		})
	}
}

func TestNetwork(t *testing.T) {
	f := newFixture(t, func(o *api.Options) {
		o.Location = time.FixedZone("CST", 8*3600)
	})
	f.seed(testSnapshot(), 0.000002)

	rec := f.do(t, http.MethodGet, "/api/v1/network", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.NetworkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 97, resp.Epoch)
	assert.Equal(t, 1000.0, resp.TotalScore)
	assert.Equal(t, 2, resp.ScoreCount)
	assert.Equal(t, 1, resp.ComputorCount)
	assert.Equal(t, "1,000,000", resp.Display.EstimatedIts)
	assert.Equal(t, "500.00", resp.Display.AverageScore)
	assert.Equal(t, "500.00", resp.Display.SolutionsPerHour)
	assert.Equal(t, "1,234,567", resp.Display.Difficulty)
	assert.Equal(t, "2024-02-25 00:00:00", resp.Display.CreatedAt)
}

func TestNetwork_NoSnapshot(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/network", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["error"])
}

func TestEpoch(t *testing.T) {
	f := newFixture(t)
	f.seed(testSnapshot(), 0.000002)

	rec := f.do(t, http.MethodGet, "/api/v1/epoch", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.EpochResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 97, resp.Number)
	assert.Equal(t, "2024-02-21T12:00:00Z", resp.Start)
	assert.Equal(t, "2024-02-28T11:59:59Z", resp.End)
	assert.InDelta(t, 0.5, resp.Progress, 1e-9)
	assert.Equal(t, int64(302399), resp.RemainingSeconds)
	assert.Equal(t, "50.0%", resp.Display.Progress)
	assert.Equal(t, "3 days 11 hours", resp.Display.Remaining)
}

func TestEpoch_NoStatistics(t *testing.T) {
	f := newFixture(t)
	snap := testSnapshot()
	snap.ScoreStatistics = nil
	f.seed(snap, 0.000002)

	rec := f.do(t, http.MethodGet, "/api/v1/epoch", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPrice(t *testing.T) {
	f := newFixture(t)
	f.seed(nil, 0.000002)

	rec := f.do(t, http.MethodGet, "/api/v1/price", "")
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode(t, rec)
	assert.Equal(t, 0.000002, m["price"])
	assert.Equal(t, "0.00000200", m["display"])
}

// --- income -----------------------------------------------------------------

func TestIncome(t *testing.T) {
	f := newFixture(t)
	f.seed(testSnapshot(), 0.000002)

	rec := f.do(t, http.MethodGet, "/api/v1/income?hashrate=100&solutions=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.IncomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "average", resp.Method)
	assert.Equal(t, 97, resp.Epoch)

	perUnit, ok := resp.PerUnitIncome.Value()
	require.True(t, ok)
	assert.InDelta(t, 782e9/1e6/7/1.06*0.85*0.000002, perUnit, 1e-12)

	assert.Equal(t, "0.17916442", resp.Display.PerUnitIncome)
	assert.Equal(t, "17.92", resp.Display.DailyIncome)
	assert.Equal(t, "1.200", resp.Display.ExpectedDailySolutions)
	assert.Equal(t, "4.200", resp.Display.ExpectedSolutionsSoFar)
	assert.Equal(t, "0.48", resp.Display.Luckiness)
	assert.Equal(t, "50.0%", resp.Display.EpochProgress)

	require.Len(t, resp.Methods, 2)
	assert.Equal(t, "average", resp.Methods[0].Method)
	assert.Equal(t, "total", resp.Methods[1].Method)
	assert.NotEmpty(t, resp.Methods[0].Label)
}

func TestIncome_MissingFiguresAreNA(t *testing.T) {
	f := newFixture(t)
	snap := testSnapshot()
	snap.EstimatedIts = 0
	f.seed(snap, 0.000002)

	rec := f.do(t, http.MethodGet, "/api/v1/income?hashrate=100", "")
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode(t, rec)
	assert.Nil(t, m["per_unit_income"])
	assert.Nil(t, m["daily_income"])
	assert.Nil(t, m["luckiness"])

	display := m["display"].(map[string]any)
	assert.Equal(t, projection.NA, display["per_unit_income"])
	assert.Equal(t, projection.NA, display["daily_income"])
	assert.Equal(t, projection.NA, display["expected_daily_solutions"])
	assert.Equal(t, projection.NA, display["luckiness"])
	assert.NotEqual(t, projection.NA, display["price_per_solution"])
}

func TestIncome_Errors(t *testing.T) {
	cases := []struct {
		name   string
		seed   bool
		price  float64
		query  string
		status int
	}{
		{"no hashrate", true, 0.000002, "", http.StatusUnprocessableEntity},
		{"zero price", true, 0, "?hashrate=100", http.StatusUnprocessableEntity},
		{"not a number", true, 0.000002, "?hashrate=abc", http.StatusBadRequest},
		{"negative", true, 0.000002, "?hashrate=-1", http.StatusBadRequest},
		{"bad solutions", true, 0.000002, "?hashrate=1&solutions=NaN", http.StatusBadRequest},
		{"unknown method", true, 0.000002, "?hashrate=1&method=median", http.StatusBadRequest},
		{"no snapshot", false, 0.000002, "?hashrate=100", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			var snap *types.NetworkSnapshot
			if tc.seed {
				snap = testSnapshot()
			}
			f.seed(snap, tc.price)

			rec := f.do(t, http.MethodGet, "/api/v1/income"+tc.query, "")
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestIncome_ChineseLabels(t *testing.T) {
	f := newFixture(t)
	f.seed(testSnapshot(), 0.000002)

	rec := f.do(t, http.MethodGet, "/api/v1/income?hashrate=100&lang=zh", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.IncomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(i18n.Chinese), resp.Lang)
	assert.Equal(t, i18n.T(i18n.Chinese, "methodTotal"), resp.Methods[1].Label)
}

func TestSetParams_AppliesToLaterRequests(t *testing.T) {
	f := newFixture(t)
	f.seed(testSnapshot(), 0.000002)

	p := projection.DefaultParams()
	p.PoolShare = 0.425
	f.h.SetParams(p)

	rec := f.do(t, http.MethodGet, "/api/v1/income?hashrate=100", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.IncomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "8.96", resp.Display.DailyIncome)
}

// --- charts -----------------------------------------------------------------

func TestScoreChart_OldestFirst(t *testing.T) {
	f := newFixture(t)
	f.seed(testSnapshot(), 0.000002)

	rec := f.do(t, http.MethodGet, "/api/v1/charts/scores", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var pts []api.ScoreChartPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pts))
	require.Len(t, pts, 3)
	assert.Equal(t, "2024-02-22", pts[0].Date)
	assert.Equal(t, "2024-02-24", pts[2].Date)
	assert.Equal(t, 600.0, pts[2].MaxScore)
}

func TestSeriesChart(t *testing.T) {
	f := newFixture(t)
	f.history.points = []types.SeriesPoint{{Time: 1, Value: 10}, {Time: 2, Value: 20}}

	rec := f.do(t, http.MethodGet, "/api/v1/charts/totals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, upstream.SeriesScores, f.history.gotKind)
	assert.Equal(t, "server-token", f.history.gotToken)

	var resp api.SeriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "totals", resp.Series)
	assert.Len(t, resp.Points, 2)

	v, _ := f.reg.Value(metrics.UpstreamRequests, "history", metrics.OutcomeOK)
	assert.Equal(t, 1.0, v)
}

func TestSeriesChart_UnauthorizedInvalidatesToken(t *testing.T) {
	f := newFixture(t)
	f.history.err = &upstream.StatusError{URL: "x", StatusCode: http.StatusUnauthorized}

	rec := f.do(t, http.MethodGet, "/api/v1/charts/its", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1, f.tokens.invalidated)
}

// --- translations / diagnostics / snapshot ----------------------------------

func TestTranslations_AcceptLanguage(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/translations", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.TranslationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(i18n.Chinese), resp.Lang)
	assert.Len(t, resp.Messages, len(i18n.Keys()))
}

func TestDiagnostics_NoData(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/diagnostics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var hints []api.DiagnosticHint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hints))
	keys := make([]string, 0, len(hints))
	for _, h := range hints {
		keys = append(keys, h.Key)
	}
	assert.ElementsMatch(t, []string{"no_price", "no_snapshot"}, keys)
}

func TestSnapshot_Dashboard(t *testing.T) {
	f := newFixture(t)
	f.seed(testSnapshot(), 0.000002)

	rec := f.do(t, http.MethodGet, "/api/v1/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.DashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Network)
	require.NotNil(t, resp.Epoch)
	require.NotNil(t, resp.Price)
	assert.Equal(t, "healthy", resp.Diagnostics[0].Key)
	assert.NotNil(t, resp.Alerts)
	assert.Equal(t, "2024-02-25T00:00:00Z", resp.GeneratedAt)
}

func TestAlerts_NoEngine(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

// --- proxy ------------------------------------------------------------------

func TestProxyLogin_PassThrough(t *testing.T) {
	f := newFixture(t)
	f.scores.resp = &upstream.Response{
		StatusCode:  http.StatusOK,
		ContentType: "application/json; charset=utf-8",
		Body:        []byte(`{"success":true,"token":"abc"}`),
	}

	rec := f.do(t, http.MethodPost, "/api/qubic", `{"userName":"u","password":"p","twoFactorCode":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"success":true,"token":"abc"}`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"userName":"u","password":"p","twoFactorCode":""}`, string(f.scores.gotBody))
}

func TestProxyLogin_InvalidJSON(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/qubic", `{"userName":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.scores.loginHits)
}

func TestProxyScores(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{"ok", "?token=t1", nil, http.StatusOK},
		{"missing token", "", nil, http.StatusBadRequest},
		{"upstream 401", "?token=t1", &upstream.StatusError{URL: "x", StatusCode: 401}, http.StatusUnauthorized},
		{"upstream 500", "?token=t1", &upstream.StatusError{URL: "x", StatusCode: 500}, http.StatusBadGateway},
		{"network", "?token=t1", errors.New("dial tcp: refused"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.scores.err = tc.err
			f.scores.resp = &upstream.Response{StatusCode: http.StatusOK, Body: []byte(`{"scores":[]}`)}

			rec := f.do(t, http.MethodGet, "/api/qubic"+tc.query, "")
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "t1", f.scores.gotToken)
				assert.Equal(t, `{"scores":[]}`, rec.Body.String())
			}
		})
	}
}

func TestProxyGraph(t *testing.T) {
	f := newFixture(t)
	f.history.resp = &upstream.Response{StatusCode: http.StatusOK, Body: []byte(`[{"timestamp":1,"its":5}]`)}

	rec := f.do(t, http.MethodGet, "/api/graph/its?token=t2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, upstream.SeriesITS, f.history.gotKind)
	assert.Equal(t, "t2", f.history.gotToken)

	rec = f.do(t, http.MethodPost, "/api/graph/scores", `{"token":"t3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, upstream.SeriesScores, f.history.gotKind)
	assert.JSONEq(t, `{"token":"t3"}`, string(f.history.gotBody))

	rec = f.do(t, http.MethodGet, "/api/graph/nope?token=t2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- routing and middleware -------------------------------------------------

func TestMethodNotAllowed_JSON(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPut, "/api/qubic", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, decode(t, rec)["error"])
}

func TestNotFound_JSON(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode(t, rec)["error"])
}

func TestRequestID(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/health", "")
	assert.NotEmpty(t, rec.Header().Get(api.RequestIDHeader))

	const id = "0b9d5f0e-4f8c-4d5a-9a55-1f0e2c3b4a59"
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(api.RequestIDHeader, id)
	rec = httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(api.RequestIDHeader))
}

func TestAPIKey(t *testing.T) {
	f := newFixture(t, func(o *api.Options) {
		o.Auth = api.AuthOptions{Mode: "apikey", Header: "X-API-Key", Key: "s3cret"}
	})

	rec := f.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-API-Key", "s3cret")
	rec = httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The proxy routes stay open.
	f.scores.resp = &upstream.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}
	rec = f.do(t, http.MethodGet, "/api/qubic?token=t", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t)
	f.reg.Set(metrics.Epoch, 97)
	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), metrics.Epoch+" 97")
}
