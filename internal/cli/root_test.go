package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaphed/internal/cli/config"
	"github.com/leapstack-labs/leaphed/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// newProject writes a leaphed.yaml into a temp dir and changes into it.
func newProject(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leaphed.yaml"), []byte(yaml), 0o600))
	t.Chdir(dir)
	return dir
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"verify", "translate", "deploy", "operators", "runs", "version", "completion"} {
		assert.Contains(t, names, want)
	}
	for _, flag := range []string{"config", "target", "library-dir", "state", "dialect", "output-dir", "log-level", "verbose", "models"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestRootCommand_Version(t *testing.T) {
	newProject(t, "dialect: ansi\n")

	stdout, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "leaphed v"+Version)
}

func TestRootCommand_VerifyAndRuns(t *testing.T) {
	dir := newProject(t, "library_dir: "+testutil.ArtifactsDir()+"\n")

	stdout, _, err := runCLI(t, "verify", testutil.ArtifactPath("diabetes.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Screening")

	_, err = os.Stat(filepath.Join(dir, ".leaphed", "state.db"))
	require.NoError(t, err, "state database is created under the project root")

	stdout, _, err = runCLI(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Screening")
	assert.Contains(t, stdout, "completed")
}

func TestRootCommand_TranslateWithFlags(t *testing.T) {
	dir := newProject(t, "dialect: ansi\noutput_dir: scripts\n")

	stdout, _, err := runCLI(t, "translate", "--dialect", "tsql", "--library-dir", testutil.ArtifactsDir(),
		testutil.ArtifactPath("diabetes.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "tsql")

	script, err := os.ReadFile(filepath.Join(dir, "scripts", "Screening.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(script), "GO")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	newProject(t, "dialect: cobol\n")

	_, _, err := runCLI(t, "operators")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid dialect")
}

func TestRootCommand_UnknownEnvironment(t *testing.T) {
	newProject(t, "dialect: ansi\n")

	_, _, err := runCLI(t, "operators", "-t", "staging")
	assert.EqualError(t, err, `unknown environment "staging"`)
}

func TestRootCommand_Verbose(t *testing.T) {
	newProject(t, "dialect: ansi\n")

	_, stderr, err := runCLI(t, "operators", "-v", "Add")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Using config file:")
	assert.True(t, strings.Contains(stderr, "leaphed.yaml"))
}

func TestCompletionCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "leaphed")
}
