// Package refresher polls the upstreams on an interval and keeps the store
// supplied with the latest network snapshot and price. Each fetch is retried
// with exponential backoff; the previous data stays served until its TTL
// lapses.
package refresher
