package http

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"sharkclean/internal/config"
	apierrors "sharkclean/internal/errors"
	"sharkclean/internal/exporter"
	"sharkclean/internal/middleware"
	"sharkclean/internal/services"
	api "sharkclean/pkg/contracts/api/v1"
	"sharkclean/pkg/contracts/domain"
)

const (
	// multipartMemory is kept in memory before parts spill to disk
	multipartMemory = 8 << 20

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"

	// HeaderCleaningReport carries a JSON summary of the cleaning run
	HeaderCleaningReport = "X-Cleaning-Report"
)

// UploadCleaner cleans an uploaded file in memory
type UploadCleaner interface {
	Clean(ctx context.Context, r io.Reader, filename string, opts services.CleanOptions) (*domain.Table, *domain.CleaningReport, error)
}

// CleanHandler cleans uploaded workbooks and streams the result back
type CleanHandler struct {
	cleaner       UploadCleaner
	validator     *middleware.Validator
	errors        *apierrors.ErrorHandler
	sheetName     string
	defaultImpute bool
	logger        *slog.Logger
}

// NewCleanHandler creates a new upload cleaning handler
func NewCleanHandler(cleaner UploadCleaner, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, sheetName string, defaultImpute bool, logger *slog.Logger) *CleanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanHandler{
		cleaner:       cleaner,
		validator:     validator,
		errors:        errorHandler,
		sheetName:     sheetName,
		defaultImpute: defaultImpute,
		logger:        logger.With(slog.String("handler", "clean")),
	}
}

// reportSummary is the header form of a CleaningReport
type reportSummary struct {
	Source      string         `json:"source"`
	RowsIn      int            `json:"rows_in"`
	RowsOut     int            `json:"rows_out"`
	TimeBuckets map[string]int `json:"time_buckets"`
	Skipped     []string       `json:"skipped,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
}

// Clean handles POST /api/v1/clean. The multipart form carries the workbook
// in "file" and optional "sheet", "format" (xlsx or csv) and "impute" fields.
func (h *CleanHandler) Clean(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if stderrors.As(err, &maxBytes) {
			h.errors.HandleError(w, r, maxBytes)
			return
		}
		h.errors.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts := api.UploadOptions{
		Sheet:  r.FormValue("sheet"),
		Format: r.FormValue("format"),
	}
	if err := h.validator.Struct(&opts); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	impute := h.defaultImpute
	if raw := r.FormValue("impute"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.errors.HandleError(w, r, apierrors.ErrValidation("impute", "impute must be true or false"))
			return
		}
		impute = v
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errors.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	cleaned, report, err := h.cleaner.Clean(ctx, file, header.Filename, services.CleanOptions{
		Sheet:  opts.Sheet,
		Impute: impute,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	var (
		body        bytes.Buffer
		contentType string
		ext         string
	)
	switch opts.Format {
	case "csv":
		err = exporter.EncodeTable(&body, cleaned)
		contentType, ext = contentTypeCSV, ".csv"
	default:
		err = exporter.NewXLSXWriter(nil, h.sheetName, h.logger).Encode(&body, cleaned)
		contentType, ext = contentTypeXLSX, ".xlsx"
	}
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	if summary, err := json.Marshal(summarize(report)); err == nil {
		w.Header().Set(HeaderCleaningReport, string(summary))
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+config.CleanedName(header.Filename, ext)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := body.WriteTo(w); err != nil {
		h.logger.WarnContext(ctx, "client went away during download", slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "upload cleaned",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.String("format", ext[1:]))
}

func summarize(report *domain.CleaningReport) reportSummary {
	s := reportSummary{
		Source:      report.Source,
		RowsIn:      report.RowsIn,
		RowsOut:     report.RowsOut,
		TimeBuckets: report.TimeBuckets,
		DurationMS:  report.Duration().Milliseconds(),
	}
	for _, step := range report.Steps {
		if step.Skipped {
			s.Skipped = append(s.Skipped, step.Step)
		}
	}
	return s
}
