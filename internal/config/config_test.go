package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "stdout", cfg.Logging.Output)
				assert.Equal(t, 4, cfg.Analysis.Clusters)
				assert.Equal(t, int64(42), cfg.Analysis.Seed)
				assert.Equal(t, 6, cfg.Analysis.ForecastPeriods)
				assert.Equal(t, "linear", cfg.Analysis.ForecastMethod)
				assert.Equal(t, "", cfg.Calendar.Path)
			},
		},
		{
			name: "env overrides defaults",
			env: map[string]string{
				"SALESPULSE_SERVER_PORT":       "9090",
				"SALESPULSE_ANALYSIS_CLUSTERS": "3",
				"SALESPULSE_LOGGING_LEVEL":     "debug",
				"SALESPULSE_CALENDAR_FILE":     "calendar.yaml",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 3, cfg.Analysis.Clusters)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "calendar.yaml", cfg.Calendar.Path)
			},
		},
		{
			name: "file fills values env leaves unset",
			fileContent: `
server:
  port: 7070
analysis:
  forecast_method: exponential_smoothing
  forecast_periods: 12
`,
			env: map[string]string{"SALESPULSE_ANALYSIS_FORECAST_PERIODS": "3"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "exponential_smoothing", cfg.Analysis.ForecastMethod)
				assert.Equal(t, 3, cfg.Analysis.ForecastPeriods, "env must win over file")
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"SALESPULSE_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "forecast periods out of range",
			env:     map[string]string{"SALESPULSE_ANALYSIS_FORECAST_PERIODS": "30"},
			wantErr: true,
		},
		{
			name:        "malformed file",
			fileContent: "server: [",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.fileContent != "" {
				t.Setenv(ConfigFileEnv, writeFile(t, "config.yaml", tt.fileContent))
			} else {
				t.Setenv(ConfigFileEnv, "")
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestValidate_NormalizesLoggingOutput(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "logs/salespulse.log", cfg.Logging.FilePath)
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().validate())
}

func TestLoad_ShippedExample(t *testing.T) {
	t.Setenv(ConfigFileEnv, "../../configs/config.example.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
	assert.Equal(t, Default().Analysis, cfg.Analysis)
	assert.Equal(t, "configs/calendar.example.yaml", cfg.Calendar.Path)
}
