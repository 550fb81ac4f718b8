// Package app wires the SalesPulse server together: configuration, logging,
// OpenTelemetry, the analytics session service and the chi router.
//
// # Initialization Flow
//
//	1. Load configuration from environment and an optional YAML file
//	2. Initialize logging and observability
//	3. Load the promotional calendar and prepare the data directory
//	4. Create the analytics and health services
//	5. Build the router: RequestID, RealIP, OTel, logging, recovery, CORS,
//	   security headers, rate limit, timeout, body limit
//	6. Create the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	if err := app.Preload(ctx, "latest"); err != nil {
//	    return err
//	}
//	return app.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns after SIGINT, SIGTERM or cancellation of its context. Stop
// drains in-flight requests, drops the session dataset and flushes
// OpenTelemetry providers. The package never calls os.Exit.
package app
