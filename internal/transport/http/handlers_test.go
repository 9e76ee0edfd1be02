package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sharkclean/internal/config"
	"sharkclean/internal/dataprocessing"
	apierrors "sharkclean/internal/errors"
	"sharkclean/internal/middleware"
	"sharkclean/internal/operations"
	"sharkclean/internal/services"
	"sharkclean/internal/shared/testutil"
	api "sharkclean/pkg/contracts/api/v1"
	"sharkclean/pkg/contracts/domain"
)

const testJobID = "0f8fad5b-d9cb-469f-a165-70867728950e"

type fakeJobs struct {
	mu        sync.Mutex
	submitted []*operations.Job
	jobs      map[string]*operations.Job
	filter    operations.JobFilter
	err       error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]*operations.Job{
		testJobID: {
			ID:        testJobID,
			Source:    operations.SourceAPI,
			Input:     "GSAF5.xlsx",
			Status:    operations.JobStatusCompleted,
			Progress:  100,
			CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			Report:    &domain.CleaningReport{RowsIn: 5, RowsOut: 4},
		},
	}}
}

func (f *fakeJobs) Enqueue(_ context.Context, job *operations.Job) (*operations.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	job.ID = "11111111-2222-3333-4444-555555555555"
	job.Status = operations.JobStatusPending
	f.submitted = append(f.submitted, job)
	return job.Clone(), nil
}

func (f *fakeJobs) GetJob(id string) (*operations.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, apierrors.NewNotFoundError("job").WithContext("job_id", id)
	}
	return job.Clone(), nil
}

func (f *fakeJobs) ListJobs(filter operations.JobFilter) ([]*operations.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	out := make([]*operations.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j.Clone())
	}
	return out, nil
}

func (f *fakeJobs) CancelJob(id string) (*operations.Job, error) {
	job, err := f.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, apierrors.NewConflictError("job already finished").WithContext("job_id", id)
	}
	job.Status = operations.JobStatusCancelled
	return job, nil
}

func (f *fakeJobs) GetQueueStats() map[string]int {
	return map[string]int{"workers": 2, "queued": 0, "capacity": 8, "active_jobs": 0}
}

type fakeDatasets struct{ known map[string]bool }

func (f fakeDatasets) Exists(name string) error {
	if f.known[name] {
		return nil
	}
	return apierrors.NewAppError(apierrors.ErrTypeNotFound, "dataset not found", services.ErrDatasetNotFound)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func newJobsRouter(jobs JobService) chi.Router {
	h := NewJobsHandler(jobs, fakeDatasets{known: map[string]bool{"GSAF5.xlsx": true}},
		middleware.NewValidator(), apierrors.NewErrorHandler(nil, false), true, nil)
	r := chi.NewRouter()
	r.Mount("/api/v1/jobs", h.Routes())
	return r
}

func TestJobsHandler_Submit(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		queueErr    error
		wantStatus  int
		wantType    string
	}{
		{"accepted", `{"input":"GSAF5.xlsx","summary":true}`, "application/json", nil, http.StatusAccepted, ""},
		{"missing input", `{}`, "application/json", nil, http.StatusBadRequest, apierrors.TypeValidation},
		{"path in input", `{"input":"../GSAF5.xlsx"}`, "application/json", nil, http.StatusBadRequest, apierrors.TypeValidation},
		{"unknown dataset", `{"input":"other.xlsx"}`, "application/json", nil, http.StatusNotFound, apierrors.TypeNotFound},
		{"empty body", ``, "application/json", nil, http.StatusBadRequest, apierrors.TypeValidation},
		{"wrong content type", `input=GSAF5.xlsx`, "application/x-www-form-urlencoded", nil, http.StatusUnsupportedMediaType, ""},
		{"queue full", `{"input":"GSAF5.xlsx"}`, "application/json", operations.ErrQueueFull, http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := newFakeJobs()
			jobs.err = tt.queueErr
			req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()

			newJobsRouter(jobs).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, decodeProblem(t, rec)["type"])
			}
			if tt.wantStatus != http.StatusAccepted {
				return
			}

			var resp api.JobResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "pending", resp.Status)
			assert.Equal(t, "/api/v1/jobs/"+resp.ID, rec.Header().Get("Location"))

			require.Len(t, jobs.submitted, 1)
			opts := jobs.submitted[0].Options
			assert.True(t, opts.Impute, "configured default applies")
			assert.True(t, opts.Summary)
			assert.Equal(t, operations.SourceAPI, jobs.submitted[0].Source)
		})
	}
}

func TestJobsHandler_ImputeOverride(t *testing.T) {
	jobs := newFakeJobs()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{"input":"GSAF5.xlsx","impute":false}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newJobsRouter(jobs).ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.False(t, jobs.submitted[0].Options.Impute)
}

func TestJobsHandler_ListGetCancel(t *testing.T) {
	jobs := newFakeJobs()
	router := newJobsRouter(jobs)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs?status=completed&limit=5", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.JobListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Total)
		assert.Nil(t, resp.Jobs[0].Report, "listing omits reports")
		assert.Equal(t, 8, resp.Queue["capacity"])
		assert.Equal(t, operations.JobStatusCompleted, jobs.filter.Status)
		assert.Equal(t, 5, jobs.filter.Limit)
	})

	t.Run("list bad status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs?status=done", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list bad limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs?limit=lots", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+testJobID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.JobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Report)
		assert.Equal(t, 4, resp.Report.RowsOut)
	})

	t.Run("get unknown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/6ba7b810-9dad-11d1-80b4-00c04fd430c8", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierrors.TypeJobNotFound, decodeProblem(t, rec)["type"])
	})

	t.Run("get malformed id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cancel finished", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/jobs/"+testJobID, nil))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("cancel running", func(t *testing.T) {
		jobs.jobs[testJobID].Status = operations.JobStatusRunning
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/jobs/"+testJobID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.JobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "cancelled", resp.Status)
	})
}

func TestClassifyHandler(t *testing.T) {
	h := NewClassifyHandler(services.NewClassifyService(0, nil, nil), middleware.NewValidator(),
		apierrors.NewErrorHandler(nil, false), nil)

	t.Run("mixed values", func(t *testing.T) {
		body := `{"values":["Morning","14h00",null,"Night",2300,"??"]}`
		rec := httptest.NewRecorder()
		h.Classify(rec, httptest.NewRequest(http.MethodPost, "/api/v1/time/classify", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Categories []string       `json:"categories"`
			Counts     map[string]int `json:"counts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Categories, 6)
		assert.Equal(t, []string{"M", "T", "Unknown", "N"}, resp.Categories[:4])
		assert.Equal(t, 6, resp.Counts["M"]+resp.Counts["T"]+resp.Counts["N"]+resp.Counts["Unknown"])
	})

	t.Run("empty list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Classify(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"values":[]}`)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing values", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Classify(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("object value", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Classify(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"values":[{"a":1}]}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type fakeCleaner struct {
	filename string
	opts     services.CleanOptions
}

func (f *fakeCleaner) Clean(_ context.Context, r io.Reader, filename string, opts services.CleanOptions) (*domain.Table, *domain.CleaningReport, error) {
	f.filename, f.opts = filename, opts
	if _, err := services.ReadUpload(r, filename, dataprocessing.LoadOptions{}); err != nil {
		return nil, nil, err
	}
	t := domain.NewTable([]string{"case_number", "time"})
	t.AppendRow([]domain.Value{domain.Text("2020.01.01"), domain.Text("M")})
	report := &domain.CleaningReport{
		Source:      filename,
		RowsIn:      2,
		RowsOut:     1,
		TimeBuckets: map[string]int{"M": 1},
		Steps:       []domain.StepResult{{Step: "species", Skipped: true}},
	}
	return t, report, nil
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCleanHandler(t *testing.T) {
	cleaner := &fakeCleaner{}
	h := NewCleanHandler(cleaner, middleware.NewValidator(), apierrors.NewErrorHandler(nil, false), "cleaned", true, nil)
	csvUpload := []byte("Case Number,Time\n2020.01.01,Morning\n2020.01.01,Morning\n")

	t.Run("xlsx download", func(t *testing.T) {
		body, ct := multipartBody(t, "GSAF5.csv", csvUpload, map[string]string{"impute": "false"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clean", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		h.Clean(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="GSAF5_clean.xlsx"`)
		assert.False(t, cleaner.opts.Impute)

		var summary reportSummary
		require.NoError(t, json.Unmarshal([]byte(rec.Header().Get(HeaderCleaningReport)), &summary))
		assert.Equal(t, 1, summary.RowsOut)
		assert.Equal(t, []string{"species"}, summary.Skipped)

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("cleaned")
		require.NoError(t, err)
		assert.Equal(t, []string{"case_number", "time"}, rows[0])
	})

	t.Run("csv download", func(t *testing.T) {
		body, ct := multipartBody(t, "GSAF5.csv", csvUpload, map[string]string{"format": "csv"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clean", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		h.Clean(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "case_number,time\n2020.01.01,M\n", rec.Body.String())
		assert.True(t, cleaner.opts.Impute)
	})

	tests := []struct {
		name       string
		filename   string
		fields     map[string]string
		wantStatus int
	}{
		{"missing file", "", nil, http.StatusBadRequest},
		{"bad format", "GSAF5.csv", map[string]string{"format": "pdf"}, http.StatusBadRequest},
		{"bad impute", "GSAF5.csv", map[string]string{"impute": "maybe"}, http.StatusBadRequest},
		{"legacy xls", "GSAF5.xls", nil, http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename, csvUpload, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/clean", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()

			h.Clean(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	t.Run("too large", func(t *testing.T) {
		body, ct := multipartBody(t, "GSAF5.csv", bytes.Repeat([]byte("x"), 4096), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clean", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		middleware.MaxBody(512)(http.HandlerFunc(h.Clean)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func newPaths(t *testing.T) (*config.Config, *config.Paths) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	paths := cfg.ResolvedPaths()
	require.NoError(t, paths.EnsureDirectories())
	return cfg, paths
}

func TestDatasetHandler(t *testing.T) {
	cfg, paths := newPaths(t)
	data, err := os.ReadFile(testutil.WriteIncidentWorkbook(t))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(paths.RawDir, "GSAF5.xlsx"), data, 0644))

	h := NewDatasetHandler(services.NewDatasetService(cfg, paths, nil), middleware.NewValidator(),
		apierrors.NewErrorHandler(nil, false), nil)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.DatasetListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Datasets, 1)
		assert.Equal(t, "GSAF5.xlsx", resp.Datasets[0].Name)
		assert.Equal(t, int64(len(data)), resp.Datasets[0].Size)
	})

	t.Run("profile", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Profile(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profile?input=GSAF5.xlsx&threshold=2", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var profile domain.DatasetProfile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		assert.Equal(t, 5, profile.Rows)
		assert.Equal(t, 2, profile.SparseThreshold)
		assert.Equal(t, 2, profile.DuplicateKeys)
	})

	t.Run("profile errors", func(t *testing.T) {
		for target, want := range map[string]int{
			"/api/v1/profile":                              http.StatusBadRequest,
			"/api/v1/profile?input=GSAF5.pdf":              http.StatusBadRequest,
			"/api/v1/profile?input=missing.xlsx":           http.StatusNotFound,
			"/api/v1/profile?input=GSAF5.xlsx&threshold=x": http.StatusBadRequest,
		} {
			rec := httptest.NewRecorder()
			h.Profile(rec, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, want, rec.Code, target)
		}
	})
}

type readyQueue struct{}

func (readyQueue) GetQueueStats() map[string]int { return map[string]int{"capacity": 4} }

func TestHealthHandler(t *testing.T) {
	_, paths := newPaths(t)
	h := NewHealthHandler(services.NewHealthService(paths, nil, readyQueue{}, nil), nil)

	for _, tt := range []struct {
		path    string
		handler http.HandlerFunc
		want    string
	}{
		{"/api/health", h.HealthCheck, `"status":"ok"`},
		{"/api/health/live", h.LivenessCheck, `"status":"alive"`},
		{"/api/health/ready", h.ReadinessCheck, `"status":"ready"`},
		{"/api/version", h.Version, `"api_version":"v1"`},
		{"/api/v1/stats", h.Stats, `"raw_files":0`},
	} {
		rec := httptest.NewRecorder()
		tt.handler(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, tt.path)
		assert.Contains(t, rec.Body.String(), tt.want, tt.path)
	}

	t.Run("not ready", func(t *testing.T) {
		_, other := newPaths(t)
		require.NoError(t, os.RemoveAll(other.RawDir))
		h := NewHealthHandler(services.NewHealthService(other, nil, readyQueue{}, nil), nil)

		rec := httptest.NewRecorder()
		h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("Retry-After"))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})
}

func TestClientLogHandler(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewClientLogHandler(middleware.NewValidator(), apierrors.NewErrorHandler(nil, false), logger)

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/client-log",
		strings.NewReader(`{"level":"warn","message":"socket dropped","source":"status"}`)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, handler.ContainsMessage("socket dropped"))
	testutil.AssertLogAttr(t, handler, "client_source", "status")

	rec = httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/client-log",
		strings.NewReader(`{"level":"fatal","message":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusPage(t *testing.T) {
	rec := httptest.NewRecorder()
	ServeStatusPage(newFakeJobs(), nil)(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), testJobID)
	assert.Contains(t, rec.Body.String(), "GSAF5.xlsx")
	assert.Contains(t, rec.Body.String(), "of 8")
}
