package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// CoinGecko is a client for the CoinGecko simple price API.
type CoinGecko struct {
	baseURL string
	client  *http.Client
}

// NewCoinGecko returns a client for baseURL (e.g. https://api.coingecko.com/api/v3).
func NewCoinGecko(baseURL string, client *http.Client) *CoinGecko {
	return &CoinGecko{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// FetchPrice returns the spot price of asset in currency. A pair missing
// from the answer yields an error wrapping ErrNotFound.
func (c *CoinGecko) FetchPrice(ctx context.Context, asset, currency string) (float64, error) {
	q := url.Values{}
	q.Set("ids", asset)
	q.Set("vs_currencies", currency)

	var out map[string]map[string]float64
	if err := doJSON(ctx, c.client, request{
		method: http.MethodGet,
		url:    c.baseURL + "/simple/price?" + q.Encode(),
	}, &out); err != nil {
		return 0, fmt.Errorf("coingecko price %s/%s: %w", asset, currency, err)
	}

	price, ok := out[asset][currency]
	if !ok {
		return 0, fmt.Errorf("coingecko price %s/%s: %w", asset, currency, ErrNotFound)
	}
	return price, nil
}
