// Package services holds the session layer between the HTTP handlers and
// the analysis engine.
//
// AnalyticsService owns one loaded dataset at a time. Load and Reload swap
// it in, Invalidate drops it, and every analytic method fails with a
// NotLoaded error until a load succeeds. Calls are serialized by a mutex,
// traced with OpenTelemetry and counted through infrastructure.AnalyticsMetrics:
//
//	svc := services.NewAnalyticsService(cfg.Analysis, calendar, metrics, logger)
//	if _, err := svc.Load(ctx, "data/orders.csv"); err != nil {
//	    return err
//	}
//	series, err := svc.SalesByTime(ctx, domain.UnitMonth, "")
//
// Report computes every derived table in one pass and records the sections
// that could not be computed instead of failing.
//
// HealthService reports liveness, readiness (a dataset is loaded) and
// version information.
package services
