// Command web serves the sharkclean HTTP API, the job status page and the
// WebSocket progress stream.
package main

import (
	"flag"
	"log/slog"
	"os"

	"sharkclean/internal/app"
	"sharkclean/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "config file (defaults to config.yaml search)")
	flag.Parse()

	application, err := app.NewApplication(*configFile)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := application.Run(); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
