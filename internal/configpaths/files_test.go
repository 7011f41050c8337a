package configpaths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCandidatePathsUserFirst(t *testing.T) {
	tests := []struct {
		user   string
		format string
	}{
		{user: "/tmp/flash.yaml", format: "yaml"},
		{user: "/tmp/flash.yml", format: "yaml"},
		{user: "/tmp/flash.toml", format: "toml"},
		{user: "/tmp/flash.json", format: "json"},
		{user: "/tmp/flash.conf", format: "json"},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			jsonPaths, yamlPaths, tomlPaths := ConfigCandidatePaths(tt.user)

			var first string
			switch tt.format {
			case "json":
				first = jsonPaths[0]
			case "yaml":
				first = yamlPaths[0]
			case "toml":
				first = tomlPaths[0]
			}
			assert.Equal(t, tt.user, first)
		})
	}
}

func TestConfigCandidatePathsDefaults(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG layout only")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	jsonPaths, yamlPaths, tomlPaths := ConfigCandidatePaths("")

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(wd, "fastboot-flash.json"), jsonPaths[0])
	assert.Contains(t, jsonPaths, filepath.Join(xdg, AppName, "config.json"))
	assert.Contains(t, yamlPaths, filepath.Join(xdg, AppName, "config.yml"))
	assert.Contains(t, tomlPaths, "/etc/fastboot-flash/config.toml")
}

func TestDefaultJournalPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG layout only")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	assert.Equal(t, filepath.Join(xdg, AppName, "journal.db"), DefaultJournalPath())
}
