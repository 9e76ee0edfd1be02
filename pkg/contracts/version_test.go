package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfo_String(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{
			name: "no vcs stamp",
			info: BuildInfo{Version: "1.2.0", GoVersion: "go1.24.3", Platform: "linux/amd64"},
			want: "sharkclean v1.2.0 go1.24.3 linux/amd64",
		},
		{
			name: "dirty checkout",
			info: BuildInfo{
				Version:   "1.2.0",
				Revision:  "1a2b3c4d5e6f7a8b9c0d",
				Modified:  true,
				GoVersion: "go1.24.3",
				Platform:  "darwin/arm64",
			},
			want: "sharkclean v1.2.0 (1a2b3c4d5e6f-dirty) go1.24.3 darwin/arm64",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestReadBuildInfo(t *testing.T) {
	info := ReadBuildInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, APIVersion, info.APIVersion)
	assert.Equal(t, ReportFormat, info.ReportFormat)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
