package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDemoCmd(t *testing.T) {
	out, err := execute(t, "demo", "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "== A ascending 1..7: [1B 2B 3B 4R 5R 6B 7R]")
	require.Contains(t, out, "== A level order 1..7: [1R 2B 3R 4B 5R 6B 7R]")
	require.Contains(t, out, "== B erase 1: [2B 3R 4B 5R 6B 7R]")
	require.Contains(t, out, "== C 10 20 30: [10R 20B 30R]")
	require.Contains(t, out, "== D empty: []")
	require.Contains(t, out, "== E erase the only root: []")
	// root of C is printed without indentation
	require.Contains(t, out, "\n20(B)\n")
}

func TestVerifyCmd(t *testing.T) {
	out, err := execute(t, "verify", "--log-level", "error",
		"--workers", "2", "--trees", "4", "--ops", "500", "--key-space", "64", "--check-every", "50",
		"--allocator", "arena",
	)
	require.NoError(t, err)
	require.Contains(t, out, "trees=4 ops=2000 checks=44 failed=0")
}

func TestVerifyCmd_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verify.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trees: 2\nops: 100\ncheckEvery: 0\nallocator: pool\n"), 0o600))
	out, err := execute(t, "verify", "--log-level", "error", "--config", path, "--trees", "3")
	require.NoError(t, err)
	require.Contains(t, out, "trees=3 ops=300 checks=3 failed=0")
}

func TestVerifyCmd_ConsoleMetrics(t *testing.T) {
	out, err := execute(t, "verify", "--log-level", "error", "--log-encoder", "json",
		"--trees", "1", "--ops", "100", "--stats", "--metrics", "console",
	)
	require.NoError(t, err)
	require.Contains(t, out, "trees=1 ops=100")
}

func TestVerifyCmd_Invalid(t *testing.T) {
	_, err := execute(t, "verify", "--log-level", "error", "--allocator", "slab")
	require.Error(t, err)
	_, err = execute(t, "verify", "--log-level", "loud")
	require.Error(t, err)
	_, err = execute(t, "demo", "--log-encoder", "xml")
	require.Error(t, err)
	_, err = execute(t, "verify", "--log-level", "error", "--trees", "1", "--ops", "1", "--metrics", "otlp")
	require.Error(t, err)
}
