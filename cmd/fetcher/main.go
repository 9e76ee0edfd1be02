// Command fetcher downloads the latest GSAF incident log into the raw data
// directory. A headless browser renders the incident-log page and collects
// its spreadsheet links; the file itself is fetched over plain HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/chromedp/chromedp"

	"sharkclean/internal/config"
	"sharkclean/internal/infrastructure"
	"sharkclean/internal/validation"
)

// linksScript collects every anchor pointing at a spreadsheet
const linksScript = `Array.from(document.querySelectorAll('a[href]'))
	.map(a => ({href: a.href, text: a.innerText.trim()}))
	.filter(l => /\.xlsx?(\?|$)/i.test(l.href))`

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fetcher panicked: %v\n%s\n", r, debug.Stack())
			if logger != nil {
				logger.Error("Fetcher panicked", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	configFile := flag.String("config", "", "config file (defaults to config.yaml search)")
	pageURL := flag.String("url", "", "incident log page (defaults to fetch.url)")
	outName := flag.String("out", "", "file name inside the raw data dir (defaults to the link's file name)")
	headless := flag.Bool("headless", true, "run Chrome headless")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}
	if *pageURL != "" {
		cfg.Fetch.URL = *pageURL
	}
	cfg.Fetch.Headless = *headless

	logger, err = infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		logger = slog.Default()
		logger.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
	}
	defer infrastructure.CloseLogFile()

	paths := cfg.ResolvedPaths()
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create data directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Fetch.Timeout)
	defer cancel()

	dest, err := fetch(ctx, cfg.Fetch, paths, *outName, logger)
	if err != nil {
		logger.Error("Fetch failed", slog.String("url", cfg.Fetch.URL), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Fetcher finished", slog.String("file", dest))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func fetch(ctx context.Context, cfg config.FetchConfig, paths *config.Paths, outName string, logger *slog.Logger) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", cfg.Headless))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var links []pageLink
	start := time.Now()
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(cfg.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(linksScript, &links),
	); err != nil {
		return "", fmt.Errorf("render %s: %w", cfg.URL, err)
	}
	logger.Info("Incident log page rendered",
		slog.String("url", cfg.URL),
		slog.Int("spreadsheet_links", len(links)),
		slog.Duration("elapsed", time.Since(start)))

	link, err := pickSpreadsheet(links)
	if err != nil {
		return "", err
	}

	name := outName
	if name == "" {
		name = fileNameFromURL(link.Href)
	}
	if isLegacyWorkbook(name) {
		logger.Warn("Downloaded a legacy .xls workbook; convert it to .xlsx before cleaning",
			slog.String("file", name))
	}

	dest, err := downloadFile(ctx, newHTTPClient(cfg.Timeout), link.Href, paths.RawPath(name), logger)
	if err != nil || isLegacyWorkbook(name) {
		return dest, err
	}
	if err := validation.NewFileValidator(logger).ValidateInputFile(dest); err != nil {
		return dest, fmt.Errorf("downloaded file is not usable: %w", err)
	}
	return dest, nil
}
