package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigCommands(t *testing.T) {
	root := t.TempDir()

	out, err := run(t, "--workspace", root, "config", "get", "naming.getter_prefix")
	require.NoError(t, err)
	assert.Equal(t, "get\n", out)

	_, err = run(t, "--workspace", root, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, ".cppsynth", "config.yaml"))
	_, err = run(t, "--workspace", root, "config", "init")
	require.Error(t, err)

	_, err = run(t, "--workspace", root, "config", "set", "format.brace_style", "same-line")
	require.NoError(t, err)
	out, err = run(t, "--workspace", root, "config", "get", "format.brace_style")
	require.NoError(t, err)
	assert.Equal(t, "same-line\n", out)

	_, err = run(t, "--workspace", root, "config", "set", "format.brace_style", "sideways")
	require.Error(t, err)
	_, err = run(t, "--workspace", root, "config", "set", "format.nope", "1")
	require.ErrorContains(t, err, "unknown key")
}

func TestMaskCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.h")
	require.NoError(t, os.WriteFile(path, []byte("int x; // note\n"), 0o644))

	out, err := run(t, "mask", path)
	require.NoError(t, err)
	assert.Equal(t, "int x;        \n", out)

	out, err = run(t, "mask", "--filler", "#", path)
	require.NoError(t, err)
	assert.Equal(t, "int x; #######\n", out)
}

func TestGetterCommandWrites(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "point.h")
	require.NoError(t, os.WriteFile(path, []byte("struct Point {\n    int m_x;\n};\n"), 0o644))

	out, err := run(t, "--workspace", root, "--analyzer", "treesitter", "getter", "--write", path, "2:9")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "get_x"), out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "struct Point {\n    int m_x;\n    int get_x() const { return m_x; }\n};\n", string(data))
}
