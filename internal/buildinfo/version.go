// Package buildinfo reports the ocrbatch version from Go build metadata.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version returns the module version for tagged installs, or a
// "dev-<hash>[-dirty]" pseudo-version for local builds.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	return versionFrom(info)
}

func versionFrom(info *debug.BuildInfo) string {
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}

	version := "dev-" + revision
	if modified {
		version += "-dirty"
	}
	return version
}

// IsRelease reports whether v is a tagged release without a prerelease
// suffix. Go pseudo-versions carry a prerelease and are not releases.
func IsRelease(v string) bool {
	sv, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	return sv.Prerelease() == ""
}

// UserAgent is sent with every recognition request.
func UserAgent() string {
	return userAgentFor(Version())
}

func userAgentFor(v string) string {
	if sv, err := semver.NewVersion(v); err == nil {
		return "ocrbatch/" + sv.String()
	}
	return "ocrbatch/" + strings.TrimPrefix(v, "v")
}

// Summary is the one-line output of `ocrbatch version`.
func Summary() string {
	return summaryFor(Version())
}

func summaryFor(v string) string {
	s := fmt.Sprintf("ocrbatch %s (%s, %s/%s)", v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if !IsRelease(v) {
		s += " development build"
	}
	return s
}
