// Package version reports the build version of lol-companion. Release builds
// stamp it with ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/LoL-Companion/internal/version.Version=v0.3.0" ./cmd/lol-companion
package version

// Version is "dev" unless overridden at link time.
var Version = "dev"

// GetVersion returns the build version.
func GetVersion() string {
	return Version
}
