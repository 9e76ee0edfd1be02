// Package contracts holds the values shared by the sharkclean binaries and
// their HTTP and websocket clients.
package contracts

import (
	"runtime"
	"runtime/debug"
	"strings"
)

// Version of the sharkclean binaries. Release builds set it with
// -ldflags "-X sharkclean/pkg/contracts.Version=x.y.z".
var Version = "0.3.0"

const (
	// APIVersion is the version of the HTTP and websocket contracts
	APIVersion = "v1"

	// ReportFormat versions the cleaned workbook layout and the cleaning report
	ReportFormat = "v1"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	ReportFormat string `json:"report_format"`
	Revision     string `json:"revision,omitempty"`
	RevisionTime string `json:"revision_time,omitempty"`
	Modified     bool   `json:"modified,omitempty"`
	GoVersion    string `json:"go_version"`
	Platform     string `json:"platform"`
}

// ReadBuildInfo reports the version constants plus the VCS stamp the Go
// toolchain embeds in module builds, when present.
func ReadBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		ReportFormat: ReportFormat,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.time":
			info.RevisionTime = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String renders a one-line banner such as
// "sharkclean v0.3.0 (1a2b3c4d5e6f-dirty) go1.24.3 linux/amd64".
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString("sharkclean v")
	sb.WriteString(b.Version)
	if b.Revision != "" {
		rev := b.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		sb.WriteString(" (")
		sb.WriteString(rev)
		if b.Modified {
			sb.WriteString("-dirty")
		}
		sb.WriteString(")")
	}
	sb.WriteString(" ")
	sb.WriteString(b.GoVersion)
	sb.WriteString(" ")
	sb.WriteString(b.Platform)
	return sb.String()
}
