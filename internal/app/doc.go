// Package app wires configuration, logging, telemetry, the dataset store and
// the HTTP router into a runnable web application, and exposes the helpers the
// command-line tools share for opening the store and the publisher.
//
// # Lifecycle
//
//	a, err := app.NewApplication(cfg, logger, nil)
//	if err != nil {
//	    return err
//	}
//	return a.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains the HTTP server within
// Server.ShutdownTimeout, closes the store and flushes telemetry.
package app
