package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/qubicdash/qubicdash/pkg/types"
)

// QubicLi is a client for the qubic.li score service.
type QubicLi struct {
	baseURL string
	client  *http.Client
}

// NewQubicLi returns a client for baseURL (e.g. https://api.qubic.li).
func NewQubicLi(baseURL string, client *http.Client) *QubicLi {
	return &QubicLi{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// Login exchanges credentials for a session token.
func (q *QubicLi) Login(ctx context.Context, creds types.Credentials) (string, error) {
	body, err := sonic.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("qubic.li login: encode: %w", err)
	}
	var out loginResponse
	if err := doJSON(ctx, q.client, request{
		method: http.MethodPost,
		url:    q.baseURL + "/Auth/Login",
		body:   body,
	}, &out); err != nil {
		return "", fmt.Errorf("qubic.li login: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("qubic.li login: no token in response")
	}
	return out.Token, nil
}

// FetchSnapshot returns the current network score snapshot.
func (q *QubicLi) FetchSnapshot(ctx context.Context, token string) (*types.NetworkSnapshot, error) {
	var snap types.NetworkSnapshot
	if err := doJSON(ctx, q.client, request{
		method: http.MethodGet,
		url:    q.baseURL + "/Score/Get",
		token:  token,
	}, &snap); err != nil {
		return nil, fmt.Errorf("qubic.li scores: %w", err)
	}
	return &snap, nil
}

// ForwardLogin posts body to /Auth/Login unchanged and returns the answer.
func (q *QubicLi) ForwardLogin(ctx context.Context, body []byte) (*Response, error) {
	resp, err := do(ctx, q.client, request{
		method: http.MethodPost,
		url:    q.baseURL + "/Auth/Login",
		body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("qubic.li login: %w", err)
	}
	return resp, nil
}

// ForwardScores fetches /Score/Get with token and returns the answer unchanged.
func (q *QubicLi) ForwardScores(ctx context.Context, token string) (*Response, error) {
	resp, err := do(ctx, q.client, request{
		method: http.MethodGet,
		url:    q.baseURL + "/Score/Get",
		token:  token,
	})
	if err != nil {
		return nil, fmt.Errorf("qubic.li scores: %w", err)
	}
	return resp, nil
}
