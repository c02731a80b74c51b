// Package store holds the latest network snapshot and price quotes fetched
// from the upstreams. Reads exclude entries older than the configured TTL and
// a background loop evicts them.
package store
