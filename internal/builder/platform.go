package builder

import (
	"runtime"
	"strings"
)

const (
	PlatformWindows = "Windows"
	PlatformLinux   = "Linux"
	PlatformDarwin  = "Darwin"
)

// platform names as reported by uname, keyed by GOOS
var platformNames = map[string]string{
	"windows":   PlatformWindows,
	"linux":     PlatformLinux,
	"android":   PlatformLinux,
	"darwin":    PlatformDarwin,
	"ios":       PlatformDarwin,
	"freebsd":   "FreeBSD",
	"openbsd":   "OpenBSD",
	"netbsd":    "NetBSD",
	"dragonfly": "DragonFly",
	"solaris":   "SunOS",
	"illumos":   "SunOS",
	"aix":       "AIX",
}

// HostPlatform returns the name of the platform this process runs on
func HostPlatform() string {
	return platformName(runtime.GOOS)
}

func platformName(goos string) string {
	if name, ok := platformNames[goos]; ok {
		return name
	}
	if goos == "" {
		return ""
	}
	return strings.ToUpper(goos[:1]) + goos[1:]
}

// IsKnownPlatform reports whether platform is one of the names HostPlatform maps GOOS to
func IsKnownPlatform(platform string) bool {
	for _, name := range platformNames {
		if name == platform {
			return true
		}
	}
	return false
}
