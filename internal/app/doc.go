// Package app wires the sharkclean HTTP service together: configuration,
// logging, OpenTelemetry, the WebSocket hub, the cleaning job queue, the cron
// scheduler and the chi router.
//
// # Initialization Flow
//
//  1. Load configuration (YAML file, then SHARKCLEAN_* environment variables)
//  2. Initialize the slog logger and OpenTelemetry providers
//  3. Create the hub, status broadcaster, job queue and services
//  4. Register middleware and routes
//  5. Start the hub, queue workers, scheduler and HTTP server
//
// # Usage
//
//	app, err := app.NewApplication("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM. Stop drains the HTTP server, stops the
// scheduler, waits for running cleaning jobs, closes WebSocket clients and
// flushes telemetry.
package app
