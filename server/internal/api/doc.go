// Package api implements the HTTP surface of qubicdash-server.
//
// New(deps, opts) returns a Handler that serves:
//
//	POST     /api/qubic                 login passthrough to qubic.li
//	GET      /api/qubic?token=          score snapshot passthrough
//	GET|POST /api/graph/{its|sols|scores}  history passthrough, one field dropped
//	GET      /api/v1/health             liveness of the stored data
//	GET      /api/v1/network            latest network snapshot summary
//	GET      /api/v1/epoch              current epoch window
//	GET      /api/v1/price              latest spot price
//	GET      /api/v1/income             income and luckiness projection
//	GET      /api/v1/charts/scores      daily score statistics
//	GET      /api/v1/charts/{its|sols|totals}  normalized history series
//	GET      /api/v1/translations       label table for a language
//	GET      /api/v1/diagnostics        data-quality hints
//	GET      /api/v1/alerts             firing and recently resolved alerts
//	GET      /api/v1/snapshot           everything above in one document
//	GET      /metrics                   Prometheus text exposition
//
// Every /api/v1 endpoint answers JSON, returns 405 for other methods and sits
// behind the API key middleware. Every response carries an X-Request-ID.
package api
