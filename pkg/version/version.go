package version

// Version is the release version of esview.
const Version = "0.4.0"

// Commit is stamped at build time:
//
//	go build -ldflags "-X github.com/rubiojr/esview/pkg/version.Commit=$(git rev-parse --short HEAD)"
var Commit = ""

// BuildVersion returns the version line printed by the CLI.
func BuildVersion() string {
	if Commit == "" {
		return "esview version " + Version
	}
	return "esview version " + Version + " (" + Commit + ")"
}

// APIVersion is the version reported by the JSON API.
func APIVersion() string {
	return Version
}
