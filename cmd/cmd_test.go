package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/marcus-crane/lure/config"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestConfigGenerate(t *testing.T) {
	stdout, _, err := execute(t, "config", "generate")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, "lastfm", cfg.Enable)
	assert.Equal(t, "🎵 Listening to %NAME% by %ARTIST%", cfg.Revolt.Status.Template)
	assert.Equal(t, 16, cfg.Services.LastFM.CheckInterval)
	assert.NotContains(t, stdout, "session_token_file")
}

func TestConfigShowHidesSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enable: listenbrainz\nrevolt:\n  session_token: hunter2\n"), 0o600))

	stdout, stderr, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)

	assert.NotContains(t, stdout, "hunter2")
	assert.Contains(t, stdout, "********")
	assert.True(t, strings.Contains(stderr, "services.listenbrainz.username is required"))
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enable: lastfm\n"), 0o600))

	_, _, err := execute(t, "start", "--config", path)
	assert.ErrorContains(t, err, "services.lastfm.username is required")
}
