package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains the application's directory layout.
//
//	<base>/
//	  ├── credentials.json   (Google service account, optional)
//	  ├── data/
//	  │   ├── raw/           (downloaded or uploaded workbooks)
//	  │   ├── clean/         (cleaned workbooks and CSVs)
//	  │   └── reports/       (summaries and profiles)
//	  └── logs/
type Paths struct {
	BaseDir    string
	DataDir    string
	RawDir     string
	CleanDir   string
	ReportsDir string
	LogsDir    string

	CredentialsFile string
}

// NewPaths lays the directory structure out under baseDir.
func NewPaths(baseDir string) *Paths {
	p := &Paths{
		BaseDir:         baseDir,
		LogsDir:         filepath.Join(baseDir, "logs"),
		CredentialsFile: filepath.Join(baseDir, CredentialsFileName),
	}
	p.setDataDir(filepath.Join(baseDir, "data"))
	return p
}

func (p *Paths) setDataDir(dir string) {
	p.DataDir = dir
	p.RawDir = filepath.Join(dir, "raw")
	p.CleanDir = filepath.Join(dir, "clean")
	p.ReportsDir = filepath.Join(dir, "reports")
}

// ExecutableDir returns the directory holding the running binary, with
// symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// GetPaths returns the paths relative to the executable location, never the
// working directory.
func GetPaths() (*Paths, error) {
	dir, err := ExecutableDir()
	if err != nil {
		return nil, err
	}
	return NewPaths(dir), nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.RawDir,
		p.CleanDir,
		p.ReportsDir,
		p.LogsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// RawPath joins a file name onto the raw workbook directory. Only the base
// name is used, so callers cannot escape the directory.
func (p *Paths) RawPath(filename string) string {
	return filepath.Join(p.RawDir, filepath.Base(filename))
}

// CleanPath joins a file name onto the cleaned output directory.
func (p *Paths) CleanPath(filename string) string {
	return filepath.Join(p.CleanDir, filepath.Base(filename))
}

// ReportPath joins a file name onto the reports directory.
func (p *Paths) ReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filepath.Base(filename))
}

// CleanedName derives an output name from an input workbook name:
// GSAF5.xls -> GSAF5_clean.xlsx.
func CleanedName(input, ext string) string {
	return Stem(input) + CleanedSuffix + ext
}

// SummaryName derives the summary CSV name from an input workbook name.
func SummaryName(input string) string {
	return Stem(input) + SummarySuffix + ".csv"
}

// Stem strips directory and extension from a file name.
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LogPathResolution logs the resolved layout at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved application paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("raw_dir", p.RawDir),
		slog.String("clean_dir", p.CleanDir),
		slog.String("reports_dir", p.ReportsDir),
		slog.String("logs_dir", p.LogsDir),
		slog.Bool("credentials_present", FileExists(p.CredentialsFile)))
}
