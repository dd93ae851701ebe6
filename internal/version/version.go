// Package version carries the build identity stamped into release binaries.
package version

import "fmt"

// Stamped by the release build:
//
//	go build -ldflags "\
//	  -X histpull/internal/version.Version=$(git describe --tags) \
//	  -X histpull/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X histpull/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String renders the full build identity, e.g. "v0.3.0 (1a2b3c4, built 2026-08-26T10:00:00Z)".
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, Commit, BuildTime)
}
