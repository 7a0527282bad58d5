package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvLinkbotConfig  = "LINKBOT_CONFIG"
	DefaultConfigFile = "config.json"
)

// ResolveConfigPath picks the config file location: an explicit flag value
// first, then $LINKBOT_CONFIG, then config.json in the working directory.
func ResolveConfigPath(flagValue string) string {
	if p := expandHome(strings.TrimSpace(flagValue)); p != "" {
		return p
	}
	if p := expandHome(strings.TrimSpace(os.Getenv(EnvLinkbotConfig))); p != "" {
		return p
	}
	return DefaultConfigFile
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
		return filepath.Join(home, path[2:])
	}
	return home
}
