// Package http serves the monthly export dataset as JSON.
//
// Handlers stay thin: they parse and validate the query, ask the store for
// records, shape them through the series package where a chart needs it, and
// render either a success envelope
//
//	{"status": "success", "data": ..., "count": n}
//
// or an RFC 7807 problem document produced by internal/errors.
//
// # Routes
//
//	GET /healthz
//	GET /metrics
//	GET /api/v1/monthly?hs_code=&country=&from=YYYY-MM&to=YYYY-MM&limit=
//	GET /api/v1/countries
//	GET /api/v1/hs-codes
//	GET /api/v1/hs/{code}/top-buyers?top=&from=&to=
//	GET /api/v1/hs-by-year?country=
package http
