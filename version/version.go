// Package version holds build metadata injected at link time.
//
// Release builds set these through -ldflags, for example:
//
//	go build -ldflags "-X github.com/stepmath/mathsteps/version.GitRelease=v0.3.0"
package version

import "runtime"

var (
	// GitRelease is the tagged release, or "dev" for local builds.
	GitRelease = "dev"

	// GitCommit is the short commit hash the binary was built from.
	GitCommit = "unknown"

	// GitCommitDate is the commit date in RFC 3339 form.
	GitCommitDate = "unknown"

	// GoInfo reports the Go toolchain used for the build.
	GoInfo = runtime.Version()
)
