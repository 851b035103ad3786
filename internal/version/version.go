// Package version carries build metadata injected through -ldflags.
package version

var (
	// Version of the dashboard binary.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "unknown"
	// BuildDate is set by the release pipeline.
	BuildDate = "unknown"
)

// String renders the metadata on a single line for log fields.
func String() string {
	return Version + " (" + Commit + ", " + BuildDate + ")"
}
