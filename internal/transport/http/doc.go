// Package http implements the HTTP handlers of the web service. Handlers are
// thin: they parse the request, call a service and render the result, and
// hand every error to the shared RFC 7807 error handler.
//
// Routes:
//
//	GET  /api/health
//	GET  /api/v1/symbols
//	GET  /api/v1/features/{symbol}?tail=N
//	POST /api/v1/standardize
//	POST /api/v1/run
package http
