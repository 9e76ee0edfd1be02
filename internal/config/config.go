package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. SHARKCLEAN_SERVER_PORT.
const EnvPrefix = "SHARKCLEAN"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Cleaning  CleaningConfig  `yaml:"cleaning" envconfig:"CLEANING"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Schedule  ScheduleConfig  `yaml:"schedule" envconfig:"SCHEDULE"`
	Fetch     FetchConfig     `yaml:"fetch" envconfig:"FETCH"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"` // none or stdout
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// PathsConfig contains file system paths configuration.
// Relative paths are resolved against BaseDir, which defaults to the
// executable directory.
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// CleaningConfig tunes the cleaning pipeline and the job queue.
type CleaningConfig struct {
	Sheet           string   `yaml:"sheet" envconfig:"SHEET"`
	OutputSheet     string   `yaml:"output_sheet" envconfig:"OUTPUT_SHEET"` // tab of the cleaned workbook
	Impute          bool     `yaml:"impute" envconfig:"IMPUTE"`
	DuplicateSubset []string `yaml:"duplicate_subset" envconfig:"DUPLICATE_SUBSET"`
	SurveyMappings  bool     `yaml:"survey_mappings" envconfig:"SURVEY_MAPPINGS"`
	ImputeRemaining bool     `yaml:"impute_remaining" envconfig:"IMPUTE_REMAINING"`
	FillValue       string   `yaml:"fill_value" envconfig:"FILL_VALUE"` // e.g. -1; empty leaves gaps
	SparseThreshold int      `yaml:"sparse_threshold" envconfig:"SPARSE_THRESHOLD"`
	BatchWorkers    int      `yaml:"batch_workers" envconfig:"BATCH_WORKERS"`
	JobWorkers      int      `yaml:"job_workers" envconfig:"JOB_WORKERS"`
	JobQueueSize    int      `yaml:"job_queue_size" envconfig:"JOB_QUEUE_SIZE"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
}

// SheetsConfig configures the Google Sheets export.
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"ENABLED"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	SheetName       string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
}

// ScheduleConfig configures periodic re-cleaning of a workbook in the raw dir.
type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Spec    string `yaml:"spec" envconfig:"SPEC"`
	Input   string `yaml:"input" envconfig:"INPUT"`
}

// FetchConfig configures the incident-log downloader.
type FetchConfig struct {
	URL      string        `yaml:"url" envconfig:"URL"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	Headless bool          `yaml:"headless" envconfig:"HEADLESS"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Load builds the configuration from defaults, the first config file found in
// the usual locations, and SHARKCLEAN_* environment variables, in that order
// of increasing precedence.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields carry no default tags, so unset variables leave the value alone.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes a YAML file over cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths anchors the base directory
func (c *Config) resolvePaths() error {
	if c.Paths.BaseDir != "" {
		abs, err := filepath.Abs(c.Paths.BaseDir)
		if err != nil {
			return err
		}
		c.Paths.BaseDir = abs
		return nil
	}

	dir, err := ExecutableDir()
	if err != nil {
		return err
	}
	c.Paths.BaseDir = dir
	return nil
}

// ResolvedPaths returns the directory layout described by the Paths section.
func (c *Config) ResolvedPaths() *Paths {
	p := NewPaths(c.Paths.BaseDir)
	if c.Paths.DataDir != "" {
		p.setDataDir(c.resolve(c.Paths.DataDir))
	}
	if c.Paths.LogsDir != "" {
		p.LogsDir = c.resolve(c.Paths.LogsDir)
	}
	if c.Sheets.CredentialsFile != "" {
		p.CredentialsFile = c.resolve(c.Sheets.CredentialsFile)
	}
	return p
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Paths.BaseDir, path)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	if c.Cleaning.SparseThreshold < 1 {
		return fmt.Errorf("sparse threshold must be at least 1, got %d", c.Cleaning.SparseThreshold)
	}

	if c.Cleaning.BatchWorkers < 0 {
		return fmt.Errorf("batch workers cannot be negative")
	}

	if c.Cleaning.JobWorkers < 1 {
		return fmt.Errorf("job workers must be at least 1, got %d", c.Cleaning.JobWorkers)
	}

	if c.Cleaning.JobQueueSize < 1 {
		return fmt.Errorf("job queue size must be at least 1, got %d", c.Cleaning.JobQueueSize)
	}

	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets export enabled without a spreadsheet id")
	}

	if c.Schedule.Enabled {
		if _, err := cron.ParseStandard(c.Schedule.Spec); err != nil {
			return fmt.Errorf("invalid schedule spec %q: %w", c.Schedule.Spec, err)
		}
		if c.Schedule.Input == "" {
			return fmt.Errorf("schedule enabled without an input workbook")
		}
	}

	switch strings.ToLower(c.Telemetry.TraceExporter) {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("unknown trace exporter %q", c.Telemetry.TraceExporter)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be within [0, 1], got %g", c.Telemetry.SampleRatio)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
		c.Logging.Format = strings.ToLower(c.Logging.Format)
	default:
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.ResolvedPaths().LogsDir, "sharkclean.log")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "both",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			TraceExporter:  "none",
			SampleRatio:    1,
			MetricsEnabled: true,
		},
		Paths: PathsConfig{
			DataDir: "data",
			LogsDir: "logs",
		},
		Cleaning: CleaningConfig{
			OutputSheet:     "cleaned",
			Impute:          true,
			DuplicateSubset: []string{"case_number"},
			SparseThreshold: 3,
			JobWorkers:      2,
			JobQueueSize:    32,
			MaxUploadBytes:  32 << 20, // 32MB
		},
		Sheets: SheetsConfig{
			CredentialsFile: CredentialsFileName,
			SheetName:       "cleaned",
		},
		Schedule: ScheduleConfig{
			Spec:  "@daily",
			Input: DefaultWorkbookName,
		},
		Fetch: FetchConfig{
			URL:      IncidentLogURL,
			Timeout:  2 * time.Minute,
			Headless: true,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
