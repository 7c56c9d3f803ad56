// Package build provides the build information injected at link time.
package build

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
