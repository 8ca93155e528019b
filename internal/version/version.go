// Package version carries the build identity stamped in with -ldflags -X.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String is the one-line form printed by "litportal version".
func String() string {
	return fmt.Sprintf("litportal %s (commit %s, built %s)", Version, Commit, Date)
}
