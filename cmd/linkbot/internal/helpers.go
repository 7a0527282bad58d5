package internal

import (
	"fmt"
	"runtime"

	"github.com/edgestream/linkbot/pkg/config"
)

const Logo = "🔗"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// ConfigFlag is bound to the root command's --config flag.
var ConfigFlag string

func GetConfigPath() string {
	return config.ResolveConfigPath(ConfigFlag)
}

// OpenStore loads the config file. A missing file is created with defaults
// and reported as config.ErrConfigCreated.
func OpenStore() (*config.Store, error) {
	return config.Open(GetConfigPath())
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}
