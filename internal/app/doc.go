// Package app wires the web service together: configuration, logging and
// telemetry, the pipeline and data services, the websocket hub, the HTTP
// router, the cron scheduler and the data-directory watcher.
//
// # Initialization Flow
//
//	1. Resolve paths and create the data and output directories
//	2. Initialize OpenTelemetry providers
//	3. Build the standardizer, feature pipeline and services
//	4. Set up the router and HTTP server
//	5. Start the hub, scheduler, watcher and server in Run
//
// Run blocks until its context is cancelled or the server fails, then shuts
// every component down in reverse order.
package app
