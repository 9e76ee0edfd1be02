package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Cleaning.Impute)
	assert.Equal(t, []string{"case_number"}, cfg.Cleaning.DuplicateSubset)
	assert.Equal(t, 3, cfg.Cleaning.SparseThreshold)
	assert.Equal(t, "@daily", cfg.Schedule.Spec)
	assert.Equal(t, DefaultWorkbookName, cfg.Schedule.Input)
	assert.Equal(t, IncidentLogURL, cfg.Fetch.URL)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		env      map[string]string
		wantErr  string
		validate func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 2, cfg.Cleaning.JobWorkers)
				assert.True(t, filepath.IsAbs(cfg.Paths.BaseDir))
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9090
cleaning:
  impute: false
  sparse_threshold: 5
  output_sheet: GSAF
sheets:
  sheet_name: incidents
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.False(t, cfg.Cleaning.Impute)
				assert.Equal(t, 5, cfg.Cleaning.SparseThreshold)
				assert.Equal(t, "incidents", cfg.Sheets.SheetName)
				assert.Equal(t, "GSAF", cfg.Cleaning.OutputSheet, "workbook tab is separate from the Sheets tab")
				// untouched sections keep their defaults
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, CredentialsFileName, cfg.Sheets.CredentialsFile)
			},
		},
		{
			name: "env wins over file",
			file: "server:\n  port: 9090\n",
			env: map[string]string{
				"SHARKCLEAN_SERVER_PORT":               "7070",
				"SHARKCLEAN_CLEANING_DUPLICATE_SUBSET": "case_number,date",
				"SHARKCLEAN_CLEANING_BATCH_WORKERS":    "4",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, []string{"case_number", "date"}, cfg.Cleaning.DuplicateSubset)
				assert.Equal(t, 4, cfg.Cleaning.BatchWorkers)
			},
		},
		{
			name: "schedule validated with cron parser",
			env: map[string]string{
				"SHARKCLEAN_SCHEDULE_ENABLED": "true",
				"SHARKCLEAN_SCHEDULE_SPEC":    "not a cron line",
			},
			wantErr: "invalid schedule spec",
		},
		{
			name: "valid schedule",
			env: map[string]string{
				"SHARKCLEAN_SCHEDULE_ENABLED": "true",
				"SHARKCLEAN_SCHEDULE_SPEC":    "0 3 * * *",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Schedule.Enabled)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"SHARKCLEAN_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "sparse threshold below one",
			file:    "cleaning:\n  sparse_threshold: 0\n",
			wantErr: "sparse threshold",
		},
		{
			name:    "sheets without spreadsheet",
			env:     map[string]string{"SHARKCLEAN_SHEETS_ENABLED": "true"},
			wantErr: "spreadsheet id",
		},
		{
			name:    "unknown trace exporter",
			env:     map[string]string{"SHARKCLEAN_TELEMETRY_TRACE_EXPORTER": "jaeger"},
			wantErr: "unknown trace exporter",
		},
		{
			name:    "sample ratio above one",
			file:    "telemetry:\n  sample_ratio: 1.5\n",
			wantErr: "sample ratio",
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"SHARKCLEAN_SERVER_READ_TIMEOUT": "soon"},
			wantErr: "failed to load config from env",
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: "failed to load config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHARKCLEAN_PATHS_BASE_DIR", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFile(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestValidate_NormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Logging.Format = "logfmt"
	cfg.Logging.Output = "syslog"

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, filepath.Join(cfg.Paths.BaseDir, "logs", "sharkclean.log"), cfg.Logging.FilePath)

	cfg.Logging.Format = "TEXT"
	require.NoError(t, cfg.validate())
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestResolvedPaths(t *testing.T) {
	base := t.TempDir()
	abs := t.TempDir()

	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.DataDir = abs
	cfg.Paths.LogsDir = "var/log"

	p := cfg.ResolvedPaths()
	assert.Equal(t, abs, p.DataDir)
	assert.Equal(t, filepath.Join(abs, "raw"), p.RawDir)
	assert.Equal(t, filepath.Join(base, "var", "log"), p.LogsDir)
	assert.Equal(t, filepath.Join(base, CredentialsFileName), p.CredentialsFile)
}
