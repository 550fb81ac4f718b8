// Package config loads salespulse configuration.
//
// Values come from three sources, highest priority first:
//
//	1. Environment variables prefixed SALESPULSE_ (SALESPULSE_SERVER_PORT, ...)
//	2. A YAML file named by SALESPULSE_CONFIG, or config.yaml in the working directory
//	3. Defaults declared in struct tags
//
// The promotional calendar (named date windows and discount bucket edges) is
// loaded separately from its own YAML file so the analytics can be re-run
// against a different calendar without touching the main configuration.
// DefaultCalendar returns the built-in windows.
package config
