package types

import "time"

// SeriesPoint is one normalized sample of a historical network series.
type SeriesPoint struct {
	Time  int64   `json:"time"` // unix seconds
	Value float64 `json:"value"`
}

// At returns the sample time in UTC.
func (p SeriesPoint) At() time.Time {
	return time.Unix(p.Time, 0).UTC()
}

// PriceQuote is a spot price for one asset in one currency.
type PriceQuote struct {
	Asset    string    `json:"asset"`
	Currency string    `json:"currency"`
	Price    float64   `json:"price"`
	At       time.Time `json:"at"`
}

// Key identifies the asset/currency pair of q.
func (q PriceQuote) Key() string {
	return PairKey(q.Asset, q.Currency)
}

// PairKey builds the lookup key for an asset/currency pair.
func PairKey(asset, currency string) string {
	return asset + "/" + currency
}

// Credentials is the body of POST /Auth/Login.
type Credentials struct {
	UserName      string `json:"userName"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"twoFactorCode"`
}
