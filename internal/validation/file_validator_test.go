package validation

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharkclean/internal/errors"
	"sharkclean/internal/shared/testutil"
)

func TestFileValidator_ValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0644))
		return path
	}

	tests := []struct {
		name     string
		path     string
		wantType errors.ErrorType
		wantErr  error
	}{
		{name: "workbook", path: testutil.WriteIncidentWorkbook(t)},
		{name: "csv", path: write("log.csv", []byte("Case Number,Time\n"))},
		{name: "missing", path: filepath.Join(dir, "nope.xlsx"), wantType: errors.ErrTypeNotFound},
		{name: "directory", path: dir, wantType: errors.ErrTypeValidation},
		{name: "lock file", path: write("~$GSAF5.xlsx", []byte("PK\x03\x04")), wantType: errors.ErrTypeValidation},
		{name: "renamed text", path: write("fake.xlsx", []byte("Case Number,Time\n")), wantType: errors.ErrTypeParsing, wantErr: ErrNotWorkbook},
		{name: "empty workbook", path: write("empty.xlsx", nil), wantType: errors.ErrTypeParsing, wantErr: ErrNotWorkbook},
		{name: "legacy", path: write("GSAF5.xls", []byte{0xD0, 0xCF}), wantType: errors.ErrTypeUnsupported, wantErr: ErrLegacyWorkbook},
		{name: "pdf", path: write("GSAF5.pdf", []byte("%PDF")), wantType: errors.ErrTypeUnsupported},
	}

	logger, _ := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInputFile(tt.path)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.TypeOf(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	dir := filepath.Join(t.TempDir(), "clean", "nested")
	require.NoError(t, v.ValidateOutputDirectory(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file is removed")

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	locked := t.TempDir()
	require.NoError(t, os.Chmod(locked, 0555))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	err = v.ValidateOutputDirectory(locked)
	require.Error(t, err)
	assert.Equal(t, errors.ErrTypeStorage, errors.TypeOf(err))
}
