package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and captures its output.
// The persistent --config flag is global state; it is cleared afterwards.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	t.Cleanup(func() { configFile = "" })
	return buf.String(), err
}

func TestCheckCommandDefaults(t *testing.T) {
	out, err := executeCommand(t, "check")
	require.NoError(t, err)

	assert.Contains(t, out, "config: ok")
	assert.Contains(t, out, "blocked addresses (10 entries):")
	assert.Contains(t, out, "8.8.8.8")
	assert.Contains(t, out, "microprogram:")
	assert.Contains(t, out, "ttl")
}

func TestCheckCommandWithConfig(t *testing.T) {
	dir := t.TempDir()

	rules := filepath.Join(dir, "rules.yml")
	require.NoError(t, os.WriteFile(rules,
		[]byte("blocked:\n  - \"1.2.3.4\"\n  - \"5.6.7.8\"\n"), 0o644))

	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte(fmt.Sprintf("gate:\n  blocklist_file: %q\n", rules)), 0o644))

	out, err := executeCommand(t, "check", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "blocked addresses (2 entries):")
	assert.Contains(t, out, "1.2.3.4")
	assert.Contains(t, out, "5.6.7.8")
}

func TestCheckCommandBadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte("pipeline:\n  source:\n    type: \"carrier-pigeon\"\n"), 0o644))

	_, err := executeCommand(t, "check", "--config", cfgPath)
	assert.Error(t, err)
}
