// Package http implements the HTTP handlers of the SalesPulse server.
// Handlers stay thin: they parse and validate input, call the session
// service, and render JSON.
//
// # Routes
//
// AnalyticsHandler.Routes is mounted under /api:
//
//	POST /dataset              load a file into the session
//	GET  /dataset              current session
//	POST /dataset/reload       re-read the current file
//	GET  /dataset/files        loadable files in the data directory
//	GET  /dataset/summary      summary plus total-price mismatches
//	GET  /sales/time           ?unit=day|month|quarter|year&category=
//	GET  /sales/category       ?subcategory=true
//	GET  /sales/region         ?level=province|city
//	GET  /sales/pivot          ?category=
//	GET  /products/top         ?n=&measure=revenue|quantity&category=
//	GET  /customers/segments   ?k=&seed=
//	GET  /promotions/festivals
//	GET  /promotions/discounts
//	GET  /promotions/seasonal
//	GET  /forecast             ?unit=&category=&method=&periods=
//	GET  /forecast/methods
//	GET  /advice               ?category=
//	GET  /report               full report as JSON
//
// HealthHandler serves /api/health, /api/health/ready and /api/health/live;
// MetricsHandler serves /api/metrics in the Prometheus text format.
//
// # Error Handling
//
// Every error is rendered as RFC 7807 Problem Details by the shared
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/dataset/not-loaded",
//	    "title": "Dataset Not Loaded",
//	    "status": 409,
//	    "detail": "sales_by_time: no dataset loaded",
//	    "instance": "/api/sales/time",
//	    "error_code": "NOT_LOADED"
//	}
//
// Query validation failures use the /errors/validation type with a list of
// offending fields.
package http
