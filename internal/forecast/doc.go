// Package forecast projects an aggregated revenue series forward.
//
// Three models are selectable by name:
//
//   - linear: ordinary least squares against the bucket index.
//   - exponential_smoothing: additive Holt-Winters with a 12-bucket season.
//   - seasonal_regression: trend plus Fourier seasonality fitted by ridge
//     regression, with 80% bounds on every row. Builds tagged noseasonal
//     leave it out; selecting it then fails with an UnavailableMethodError.
//
// Use IsMethodAvailable or Methods to discover what the current build
// supports. A run validates its input, selects the model, fits, projects and
// assembles the historical rows followed by the forecast rows.
package forecast
