package internal

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgestream/linkbot/pkg/config"
)

func TestFormatVersion(t *testing.T) {
	prevVersion, prevCommit := version, gitCommit
	t.Cleanup(func() { version, gitCommit = prevVersion, prevCommit })

	version, gitCommit = "1.2.3", ""
	assert.Equal(t, "1.2.3", FormatVersion())

	gitCommit = "abc123"
	assert.Equal(t, "1.2.3 (git: abc123)", FormatVersion())
}

func TestFormatBuildInfo_DefaultsGoVersion(t *testing.T) {
	prev := goVersion
	t.Cleanup(func() { goVersion = prev })

	goVersion = ""
	_, goVer := FormatBuildInfo()
	assert.Equal(t, runtime.Version(), goVer)
}

func TestGetConfigPath(t *testing.T) {
	prev := ConfigFlag
	t.Cleanup(func() { ConfigFlag = prev })
	t.Setenv(config.EnvLinkbotConfig, "")

	ConfigFlag = ""
	assert.Equal(t, config.DefaultConfigFile, GetConfigPath())

	ConfigFlag = filepath.Join("etc", "linkbot.json")
	assert.Equal(t, filepath.Join("etc", "linkbot.json"), GetConfigPath())
}
