package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/qubicdash/qubicdash/pkg/types"
)

// SeriesKind names one historical network series.
type SeriesKind string

const (
	// SeriesITS is the network throughput estimate (it/s).
	SeriesITS SeriesKind = "its"

	// SeriesSols is the network solutions per hour.
	SeriesSols SeriesKind = "sols"

	// SeriesScores is the aggregate score history.
	SeriesScores SeriesKind = "scores"
)

// ParseSeriesKind maps a route segment to a SeriesKind.
func ParseSeriesKind(s string) (SeriesKind, error) {
	switch k := SeriesKind(strings.ToLower(s)); k {
	case SeriesITS, SeriesSols, SeriesScores:
		return k, nil
	default:
		return "", fmt.Errorf("upstream: unknown series %q", s)
	}
}

// path is the upstream endpoint that serves k. Throughput and solutions
// share /api/data; each view drops the other's field.
func (k SeriesKind) path() string {
	if k == SeriesScores {
		return "/api/scores"
	}
	return "/api/data"
}

// dropField is the field removed from every element for k, if any.
func (k SeriesKind) dropField() string {
	switch k {
	case SeriesITS:
		return "solutionsPerHour"
	case SeriesSols:
		return "EstimatedIts"
	default:
		return ""
	}
}

// valueField is the field that becomes SeriesPoint.Value.
func (k SeriesKind) valueField() string {
	switch k {
	case SeriesITS:
		return "EstimatedIts"
	case SeriesSols:
		return "solutionsPerHour"
	default:
		return "TotalCurrent"
	}
}

// History is a client for the qbm network history service.
type History struct {
	baseURL string
	client  *http.Client
}

// NewHistory returns a client for baseURL (e.g. https://qbm.mdesk.tech).
func NewHistory(baseURL string, client *http.Client) *History {
	return &History{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Forward fetches series k and returns it with k's excluded field removed
// from every element. A nil body issues GET with token as bearer; a non-nil
// body is POSTed unchanged. Non-2xx answers are returned as *StatusError.
func (h *History) Forward(ctx context.Context, k SeriesKind, token string, body []byte) (*Response, error) {
	r := request{method: http.MethodGet, url: h.baseURL + k.path(), token: token}
	if body != nil {
		r = request{method: http.MethodPost, url: h.baseURL + k.path(), body: body}
	}

	resp, err := do(ctx, h.client, r)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", k, err)
	}
	if err := checkStatus(r.url, resp); err != nil {
		return nil, fmt.Errorf("history %s: %w", k, err)
	}

	if field := k.dropField(); field != "" {
		cleaned, err := StripField(resp.Body, field)
		if err != nil {
			return nil, fmt.Errorf("history %s: %w", k, err)
		}
		resp.Body = cleaned
	}
	resp.ContentType = "application/json"
	return resp, nil
}

// Series fetches k and normalizes it to time-ordered {time, value} points.
// Elements without the value field are skipped.
func (h *History) Series(ctx context.Context, k SeriesKind, token string) ([]types.SeriesPoint, error) {
	resp, err := h.Forward(ctx, k, token, nil)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := codec.Unmarshal(resp.Body, &rows); err != nil {
		return nil, fmt.Errorf("history %s: decode: %w", k, err)
	}

	field := k.valueField()
	out := make([]types.SeriesPoint, 0, len(rows))
	for _, row := range rows {
		ts, ok := number(row["time"])
		if !ok {
			continue
		}
		v, ok := number(row[field])
		if !ok {
			continue
		}
		out = append(out, types.SeriesPoint{Time: int64(ts), Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

// number converts a decoded JSON value to float64.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// StripField removes field from every object of a JSON array. Numbers are
// re-encoded exactly as received.
func StripField(body []byte, field string) ([]byte, error) {
	var rows []map[string]any
	if err := codec.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("strip %q: decode: %w", field, err)
	}
	for _, row := range rows {
		delete(row, field)
	}
	out, err := codec.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("strip %q: encode: %w", field, err)
	}
	return out, nil
}
