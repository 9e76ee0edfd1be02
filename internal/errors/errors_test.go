package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := io.ErrUnexpectedEOF

	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantMsg  string
	}{
		{"parsing", NewParsingError("failed to read workbook", cause), ErrTypeParsing, "[PARSING] failed to read workbook: unexpected EOF"},
		{"storage", NewStorageError("failed to save", cause), ErrTypeStorage, "[STORAGE] failed to save: unexpected EOF"},
		{"network", NewNetworkError("download failed", cause), ErrTypeNetwork, "[NETWORK] download failed: unexpected EOF"},
		{"validation", NewAppValidationError("workers must be positive"), ErrTypeValidation, "[VALIDATION] workers must be positive"},
		{"not found", NewNotFoundError("job"), ErrTypeNotFound, "[NOT_FOUND] job not found"},
		{"conflict", NewConflictError("job already finished"), ErrTypeConflict, "[CONFLICT] job already finished"},
		{"unsupported", NewUnsupportedError("legacy xls", nil), ErrTypeUnsupported, "[UNSUPPORTED] legacy xls"},
		{"config", NewConfigError("bad config", cause), ErrTypeConfig, "[CONFIG] bad config: unexpected EOF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.Equal(t, tt.wantType, TypeOf(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestAppError_UnwrapAndContext(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := NewParsingError("bad", sentinel).WithContext("sheet", "Sheet1")

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "Sheet1", err.Context["sheet"])
	assert.Equal(t, "job", NewNotFoundError("job").Context["resource"])
	assert.Equal(t, ErrorType(""), TypeOf(sentinel))
}

func TestAPIError(t *testing.T) {
	err := ErrValidation("values", "must not be empty")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, CodeValidationFailed, err.ErrorCode)
	assert.Equal(t, []ValidationError{{Field: "values", Message: "must not be empty"}}, err.Details.(ValidationErrors).Errors)

	assert.Equal(t, "job not found", NotFoundError("job").Message)
	assert.Equal(t, "boom", InvalidRequestWithError(errors.New("boom")).Details)

	multi := NewValidationErrors([]ValidationError{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}})
	assert.Len(t, multi.Details.(ValidationErrors).Errors, 2)
}

func TestAPIError_WithDetails(t *testing.T) {
	detailed := ErrUnsupportedFormat.WithDetails("GSAF5.xls")

	assert.Nil(t, ErrUnsupportedFormat.Details, "sentinel is not mutated")
	assert.Equal(t, "GSAF5.xls", detailed.Details)
	assert.ErrorIs(t, fmt.Errorf("upload: %w", detailed), ErrUnsupportedFormat)
	assert.NotErrorIs(t, detailed, ErrJobNotFound)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeJobNotFound, "Not Found", "job not found", "/api/v1/jobs/x").
		WithExtension("trace_id", "req-1").
		WithExtension("status", 999)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeJobNotFound, got["type"])
	assert.Equal(t, "req-1", got["trace_id"])
	assert.Equal(t, float64(http.StatusNotFound), got["status"], "extensions cannot override standard members")

	empty, err := json.Marshal(&ProblemDetails{Type: TypeInternal, Title: "x", Status: 500})
	require.NoError(t, err)
	assert.NotContains(t, string(empty), "detail")
}
