// Package config provides configuration management for sharkclean.
//
// # Configuration Sources
//
// Values are layered in order of increasing precedence:
//
//  1. Default() values
//  2. A YAML file (config.yaml or configs/config.yaml, or an explicit path)
//  3. Environment variables with the SHARKCLEAN_ prefix
//
// Environment variable names follow the struct nesting:
//
//	SHARKCLEAN_SERVER_PORT=8080
//	SHARKCLEAN_CLEANING_IMPUTE=false
//	SHARKCLEAN_CLEANING_DUPLICATE_SUBSET=case_number,date
//	SHARKCLEAN_CLEANING_FILL_VALUE=-1
//	SHARKCLEAN_SCHEDULE_ENABLED=true
//	SHARKCLEAN_SCHEDULE_SPEC="0 3 * * *"
//	SHARKCLEAN_SHEETS_SPREADSHEET_ID=1AbC...
//	SHARKCLEAN_LOGGING_FORMAT=text
//	SHARKCLEAN_TELEMETRY_SAMPLE_RATIO=0.1
//
// # Path Management
//
// Paths describes the on-disk layout (raw, clean and reports under the data
// directory, plus logs). Relative directories in the config are anchored at
// Paths.BaseDir, which defaults to the executable directory:
//
//	cfg, err := config.Load()
//	paths := cfg.ResolvedPaths()
//	if err := paths.EnsureDirectories(); err != nil {
//	    return err
//	}
//	out := paths.CleanPath(config.CleanedName("GSAF5.xlsx", ".xlsx"))
package config
