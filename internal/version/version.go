// Package version reports build information set via ldflags or VCS stamps.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	tag       = "dev" // set via ldflags
	commit    = "123abc"
	buildTime = "now"
)

const template = "%s (%s) built at %s\nhttps://github.com/noot-app/carcinogenscan/releases/tag/%s"

// buildInfoReader is swapped in tests
var buildInfoReader = debug.ReadBuildInfo

// Tag returns the release tag, used as the MCP server version
func Tag() string {
	return tag
}

// String returns the full version banner
func String() string {
	currentCommit := commit
	currentDate := buildTime

	// VCS stamps only fill in values ldflags left at their defaults
	if info, ok := buildInfoReader(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && commit == "123abc" {
				currentCommit = setting.Value
			}
			if setting.Key == "vcs.time" && buildTime == "now" {
				currentDate = setting.Value
			}
		}
	}

	return fmt.Sprintf(template, tag, currentCommit, currentDate, tag)
}
