package http

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"sharkclean/internal/operations"
	"sharkclean/pkg/contracts"
)

// statusPageJobs is how many recent jobs the status page lists
const statusPageJobs = 20

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta http-equiv="refresh" content="10">
    <title>sharkclean status</title>
</head>
<body>
    <h1>sharkclean {{.Version}}</h1>
    <p>Rendered {{.Now.Format "2006-01-02 15:04:05"}}.
       {{.Queue.active_jobs}} running, {{.Queue.queued}} queued of {{.Queue.capacity}}, {{.Queue.workers}} workers.</p>
    <h2>Recent jobs</h2>
    {{if .Jobs}}
    <table>
        <tr><th>ID</th><th>Input</th><th>Source</th><th>Status</th><th>Progress</th><th>Created</th><th>Message</th></tr>
        {{range .Jobs}}
        <tr>
            <td><a href="/api/v1/jobs/{{.ID}}">{{.ID}}</a></td>
            <td>{{.Input}}</td>
            <td>{{.Source}}</td>
            <td>{{.Status}}</td>
            <td>{{.Progress}}%</td>
            <td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
            <td>{{if .Error}}{{.Error}}{{else}}{{.Message}}{{end}}</td>
        </tr>
        {{end}}
    </table>
    {{else}}
    <p>No jobs yet.</p>
    {{end}}
    <h2>Links</h2>
    <ul>
        <li><a href="/api/health/ready">Readiness</a></li>
        <li><a href="/api/version">Version</a></li>
        <li><a href="/api/v1/datasets">Datasets</a></li>
        <li><a href="/metrics">Metrics</a></li>
    </ul>
</body>
</html>
`))

type statusPageData struct {
	Version string
	Now     time.Time
	Queue   map[string]int
	Jobs    []*operations.Job
}

// ServeStatusPage renders recent jobs and queue occupancy
func ServeStatusPage(jobs JobService, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		recent, err := jobs.ListJobs(operations.JobFilter{Limit: statusPageJobs})
		if err != nil {
			logger.ErrorContext(r.Context(), "status page job listing failed", slog.String("error", err.Error()))
			http.Error(w, "Error loading jobs", http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		if err := statusPage.Execute(&buf, statusPageData{
			Version: contracts.Version,
			Now:     time.Now(),
			Queue:   jobs.GetQueueStats(),
			Jobs:    recent,
		}); err != nil {
			logger.ErrorContext(r.Context(), "status page render failed", slog.String("error", err.Error()))
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = buf.WriteTo(w)
	}
}
