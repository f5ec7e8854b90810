// Package version provides version information for cargo-sort-derives.
package version

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X sortderives/internal/version.Version=1.0.0 -X sortderives/internal/version.Commit=abc123"
var (
	// Version is the semantic version of cargo-sort-derives
	Version = "0.10.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns a formatted version string
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "cargo-sort-derives " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
