package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/rombak/internal/config"
	"github.com/thoreinstein/rombak/internal/errors"
)

func TestVersionCommand(t *testing.T) {
	newCLIEnv(t)

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, stdout, "rombak version dev")
	require.Contains(t, stdout, "commit: none")
	require.Contains(t, stdout, "built:  unknown")
}

func TestRootCommand_QuietAndVerbose(t *testing.T) {
	newCLIEnv(t)

	_, _, err := execute(t, "-q", "-v", "list")
	require.Error(t, err)

	var exitErr *errors.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, errors.ExitUser, exitErr.Code)
}

func TestRootCommand_InvalidLogFormat(t *testing.T) {
	newCLIEnv(t)

	_, _, err := execute(t, "--log-format", "xml", "list")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid log format")
}

func TestRootCommand_JSONLogs(t *testing.T) {
	e := newCLIEnv(t)
	installROM(t, e)

	_, stderr, err := execute(t, "--log-format", "json", "backup", "-r", testROM, "-t", "boot", "-n", "j")
	require.NoError(t, err)
	require.Contains(t, stderr, `"msg":"backing up ROM"`)
}

func TestRootCommand_LogFile(t *testing.T) {
	e := newCLIEnv(t)
	installROM(t, e)
	logPath := filepath.Join(t.TempDir(), "rombak.log")

	_, _, err := execute(t, "-q", "--log-file", logPath, "backup", "-r", testROM, "-t", "boot", "-n", "logged")
	require.NoError(t, err)

	info, err := os.Stat(logPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRootCommand_VerboseLogsDebug(t *testing.T) {
	e := newCLIEnv(t)
	installROM(t, e)

	_, stderr, err := execute(t, "-v", "backup", "-r", testROM, "-t", "system", "-n", "dbg")
	require.NoError(t, err)
	require.Contains(t, stderr, "DEBUG")
}

func TestRootCommand_ConfigError(t *testing.T) {
	newCLIEnv(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte("compression: brotli\n"), 0o644))

	_, _, err := execute(t, "list")
	require.Error(t, err)
	require.ErrorIs(t, err, config.ErrInvalidCompression)

	var exitErr *errors.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Contains(t, exitErr.Suggestion, "config.yaml")

	// version still works with a broken config
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, stdout, "rombak version")
}

func TestRootCommand_ExplicitConfigMissing(t *testing.T) {
	newCLIEnv(t)

	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "list")
	require.Error(t, err)
	require.Contains(t, err.Error(), "absent.yaml")
}
