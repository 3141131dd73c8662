// Package version reports build information set with -ldflags, falling back
// to the VCS data embedded by the Go toolchain.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags "-X github.com/nutrilens/nlens/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Short returns the version number.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// Build describes the running binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get collects the build information. Values missing from -ldflags are taken
// from the VCS stamp and end up as "unknown" when neither is available.
func Get() Build {
	commit, built := Commit, BuildTime
	if commit == "" || built == "" {
		c, t := vcsInfo()
		if commit == "" {
			commit = c
		}
		if built == "" {
			built = t
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	return Build{
		Version:   Short(),
		Commit:    commit,
		BuildTime: built,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Info returns the multi-line version report.
func Info() string {
	b := Get()
	return fmt.Sprintf("nlens %s\n  commit: %s\n  built:  %s\n  go:     %s %s",
		b.Version, b.Commit, b.BuildTime, b.GoVersion, b.Platform)
}

func vcsInfo() (revision, buildTime string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.time":
			buildTime = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if modified && revision != "" {
		revision += "-dirty"
	}
	return revision, buildTime
}
