package config

// Application constants
const (
	AppName    = "SalesPulse"
	AppVersion = "1.0.0"

	EnvPrefix     = "SALESPULSE"
	ConfigFileEnv = "SALESPULSE_CONFIG"

	// Analysis limits
	MinForecastPeriods = 1
	MaxForecastPeriods = 24
	MaxClusters        = 20
	MaxTopN            = 100
	SeasonalPeriod     = 12
	DefaultClusters    = 4
	DefaultSeed        = 42
)
