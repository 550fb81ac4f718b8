// Package shared holds helpers used across the salespulse packages.
//
// The testutil subpackage provides a log-capturing slog handler and seeded
// order-table fixtures. It must not import any engine package other than the
// domain contracts so every engine package can use it from its tests.
package shared
