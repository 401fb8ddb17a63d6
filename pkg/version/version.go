// Package version exposes build metadata for the gettoken binary.
package version

import (
	"fmt"
	"runtime"
	"time"
)

// Set through -ldflags "-X github.com/owleyeart/bba/pkg/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// BuildInfo is what `gettoken version` reports.
type BuildInfo struct {
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string    `json:"buildDate" yaml:"buildDate"`
	GoVersion string    `json:"goVersion" yaml:"goVersion"`
	Platform  string    `json:"platform" yaml:"platform"`
	BuildTime time.Time `json:"buildTime,omitempty" yaml:"buildTime,omitempty"`
}

func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if t, err := time.Parse(time.RFC3339, BuildDate); err == nil {
		info.BuildTime = t
	}
	return info
}

// UserAgent is sent by the OIDC backend on discovery and token requests.
func UserAgent() string {
	return fmt.Sprintf("gettoken/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("gettoken %s (commit: %s, built: %s, %s, %s)", b.Version, b.GitCommit, b.BuildDate, b.GoVersion, b.Platform)
}
