package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/wledflash/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/wledflash/internal/version.Commit=abc123"
//
// If not set, they are populated from the VCS stamp in the build info on
// first use, or fall back to "dev" with a timestamp.
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

var resolveOnce sync.Once

func resolve() {
	resolveOnce.Do(func() {
		if Version == "" || Commit == "" {
			if info, ok := debug.ReadBuildInfo(); ok {
				fromBuildInfo(info)
			}
		}
		if Version == "" {
			Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
		}
		if Commit == "" {
			Commit = "unknown"
		}
	})
}

// fromBuildInfo fills Version and Commit from the vcs.* build settings
func fromBuildInfo(info *debug.BuildInfo) {
	settings := make(map[string]string)
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	if rev := settings["vcs.revision"]; Commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}

	if Version == "" {
		// A tagged module install carries its version
		if v := info.Main.Version; v != "" && v != "(devel)" {
			Version = v
		} else if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
			Version = fmt.Sprintf("dev-%s", t.Format("20060102"))
		}
	}
}

// Get returns the resolved version
func Get() string {
	resolve()
	return Version
}

// Full returns the full version string including commit
func Full() string {
	resolve()
	return fmt.Sprintf("%s (commit: %s, %s, %s/%s)", Version, Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent is the HTTP User-Agent sent to devices
func UserAgent() string {
	return "wledflash/" + Get()
}
