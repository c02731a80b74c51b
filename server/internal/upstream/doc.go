// Package upstream provides clients for the three read-only services the
// dashboard proxies:
//
//   - qubic.li (qubicli.go): guest login and the network score snapshot.
//   - CoinGecko (coingecko.go): spot price for an asset/currency pair.
//   - qbm history (history.go): network throughput, solutions-per-hour and
//     score time series.
//
// Each client offers typed fetches used by the refresher and the dashboard,
// plus Forward methods that return the upstream body untouched (or with one
// field stripped from every series element) for the proxy routes.
//
// TokenCache (token.go) keeps the qubic.li session token and logs in again
// shortly before the JWT exp claim lapses.
//
// Non-2xx answers surface as *StatusError; transport and decode failures are
// wrapped errors. Nothing here retries: the caller decides.
package upstream
