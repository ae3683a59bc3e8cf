package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbadapter/extension"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{extension.EnvNamespace, extension.EnvPath, extension.EnvPackages, extension.EnvSelf, extension.EnvDebug} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	clearEnv(t)
	out, err := run(t, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "db2 "))
	assert.True(t, strings.HasPrefix(lines[9], "sqlite "))
	assert.Contains(t, out, "returning")
}

func TestResolve(t *testing.T) {
	clearEnv(t)

	out, err := run(t, "resolve", "pgx")
	require.NoError(t, err)
	assert.Contains(t, out, "pgx: postgres")
	assert.Contains(t, out, "placeholder:   $1")
	assert.Contains(t, out, `quote:         "t"`)

	out, err = run(t, "resolve", "db2", "--set", "url=jdbc:derby:net://h:1527/db")
	require.NoError(t, err)
	assert.Contains(t, out, "no dialect matched, using generic")

	_, err = run(t, "resolve", "db2", "--set", "novalue")
	assert.Error(t, err)

	_, err = run(t, "resolve")
	assert.Error(t, err)
}

func TestDiscover_SearchPathFromConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	extDir := filepath.Join(dir, "ext", extension.DefaultNamespace)
	require.NoError(t, os.MkdirAll(extDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(extDir, extension.DiscoverFile), []byte(`
dialects:
  - name: tidb
    match: "(?i)tidb"
    extends: mysql
`), 0o644))

	cfgFile := filepath.Join(dir, "loader.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("search_paths:\n  - "+filepath.Join(dir, "ext")+"\n"), 0o644))

	out, err := run(t, "--config", cfgFile, "--debug", "discover")
	require.NoError(t, err)
	assert.Contains(t, out, "source catalog")
	assert.Contains(t, out, "loading dialect extension "+extension.DefaultNamespace+"/discover")
	assert.Contains(t, out, "loaded "+extension.DefaultNamespace+"/discover")
	assert.Contains(t, out, extension.DiscoverFile)
	assert.Contains(t, out, "10 dialects registered")

	out, err = run(t, "--config", cfgFile, "resolve", "TiDB")
	require.NoError(t, err)
	assert.Contains(t, out, "TiDB: tidb")
	assert.Contains(t, out, "delete limit:  true")
}

func TestDiscover_MissingConfig(t *testing.T) {
	clearEnv(t)
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "discover")
	assert.Error(t, err)
}

func TestParseSets(t *testing.T) {
	cfg, err := parseSets([]string{"url=jdbc:db2://h/db", " legacy =true", "empty="})
	require.NoError(t, err)
	assert.Equal(t, "jdbc:db2://h/db", cfg.String("url"))
	assert.True(t, cfg.Bool("legacy"))
	assert.True(t, cfg.Has("empty"))

	_, err = parseSets([]string{"=x"})
	assert.Error(t, err)
}
