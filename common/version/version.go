// Package version holds the build metadata stamped in via -ldflags.
package version

// Set with -ldflags "-X github.com/bdobrica/nikki/common/version.Version=..."
var (
	Version   = "v0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info returns a one-line description, e.g. "nikki v0.1.0 (abc123)".
func Info() string {
	return "nikki " + Version + " (" + GitCommit + ")"
}

// UserAgent is sent to the homeserver on every request.
func UserAgent() string {
	return "nikki/" + Version
}
