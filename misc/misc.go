// Package misc keeps program identification set at link time.
package misc

import (
	"runtime/debug"
)

// set with -ldflags "-X qtsass/misc.version=... -X qtsass/misc.gitHash=..."
var (
	version = ""
	gitHash = ""
)

const appName = "qtsass"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	if len(version) > 0 {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) > 0 && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}

func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
