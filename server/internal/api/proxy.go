package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"

	"github.com/qubicdash/qubicdash/server/internal/upstream"
)

// maxRequestBody caps a proxied request body.
const maxRequestBody = 1 << 20

// proxyLogin handles POST /api/qubic: the JSON body goes to the score
// service's login endpoint and its answer comes back unchanged.
func (h *Handler) proxyLogin(w http.ResponseWriter, r *http.Request) {
	body, err := readJSONBody(r)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.deps.Scores.ForwardLogin(r.Context(), body)
	h.observe("qubic.li", err)
	if err != nil {
		upstreamErr(w, r, err)
		return
	}
	passThrough(w, resp)
}

// proxyScores handles GET /api/qubic?token=: the score snapshot fetched with
// the caller's bearer token, returned unchanged.
func (h *Handler) proxyScores(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		jsonErr(w, http.StatusBadRequest, "token is required")
		return
	}
	resp, err := h.deps.Scores.ForwardScores(r.Context(), token)
	h.observe("qubic.li", err)
	if err != nil {
		upstreamErr(w, r, err)
		return
	}
	passThrough(w, resp)
}

// proxyGraph handles GET|POST /api/graph/{its|sols|scores}. GET forwards the
// ?token= as bearer; POST forwards the JSON body. The series' excluded field
// is dropped from every element.
func (h *Handler) proxyGraph(w http.ResponseWriter, r *http.Request) {
	kind, err := upstream.ParseSeriesKind(mux.Vars(r)["series"])
	if err != nil {
		jsonErr(w, http.StatusNotFound, err.Error())
		return
	}

	var body []byte
	token := ""
	if r.Method == http.MethodPost {
		if body, err = readJSONBody(r); err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
	} else if token = r.URL.Query().Get("token"); token == "" {
		jsonErr(w, http.StatusBadRequest, "token is required")
		return
	}

	resp, err := h.deps.History.Forward(r.Context(), kind, token, body)
	h.observe("history", err)
	if err != nil {
		upstreamErr(w, r, err)
		return
	}
	passThrough(w, resp)
}

func readJSONBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !sonic.ConfigStd.Valid(b) {
		return nil, errors.New("body is not valid JSON")
	}
	return b, nil
}

func passThrough(w http.ResponseWriter, resp *upstream.Response) {
	ct := resp.ContentType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// upstreamErr answers a failed upstream call: client errors from the
// upstream keep their status, everything else is 502.
func upstreamErr(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusBadGateway
	var se *upstream.StatusError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
		code = se.StatusCode
	}
	slog.Warn("api: upstream call failed",
		"path", r.URL.Path,
		"status", code,
		"request_id", RequestID(r.Context()),
		"err", err,
	)
	jsonErr(w, code, err.Error())
}
