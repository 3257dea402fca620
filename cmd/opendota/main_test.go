package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/opendota-datasource/internal/pipeline"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	"github.com/ajitpratap0/opendota-datasource/pkg/json"
	"github.com/ajitpratap0/opendota-datasource/pkg/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(testutil.TestContext(t), &out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "opendota-datasource v"+version)
	assert.Contains(t, out, "OS/Arch:")
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "  - opendota")
	assert.Contains(t, out, "  - json")
	assert.Contains(t, out, "  - csv")
}

func TestOptionsCommand(t *testing.T) {
	out, err := execute(t, "options")
	require.NoError(t, err)

	var schema core.OptionsSchema
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	require.Contains(t, schema, "SomeOption")
	assert.Equal(t, "Some Option", schema["SomeOption"].Title)
}

func TestDatasetsCommand(t *testing.T) {
	out, err := execute(t, "datasets")
	require.NoError(t, err)
	assert.Contains(t, out, `"playerData"`)
	assert.Contains(t, out, `"pro_matches"`)
}

func TestTestConnectionCommand(t *testing.T) {
	srv := testutil.NewOpenDotaServer(t)

	out, err := execute(t, "test-connection", "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "connection ok: true\n", out)

	srv.Fail(testutil.RouteHeroes, http.StatusServiceUnavailable)
	_, err = execute(t, "test-connection", "--base-url", srv.URL)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection) || errors.IsType(err, errors.ErrorTypeNetwork), err.Error())
}

func TestProcessCommandWritesFiles(t *testing.T) {
	srv := testutil.NewOpenDotaServer(t)
	dir := t.TempDir()

	out, err := execute(t, "process", "--base-url", srv.URL, "--out", dir, "--concurrency", "2")
	require.NoError(t, err)

	var report pipeline.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 4, report.Succeeded)
	assert.Zero(t, report.Failed)

	for _, name := range []string{"playerData", "heroStats", "heroes", "pro_matches"} {
		assert.FileExists(t, filepath.Join(dir, name+".json"))
		assert.FileExists(t, filepath.Join(dir, name+".schema.json"))
	}
	assert.NoFileExists(t, filepath.Join(dir, "matches.json"))
}

func TestProcessCommandCSVGzip(t *testing.T) {
	srv := testutil.NewOpenDotaServer(t)
	dir := t.TempDir()

	_, err := execute(t, "process",
		"--base-url", srv.URL, "--out", dir,
		"--datasets", "heroes", "--format", "csv", "--compression", "gzip")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "heroes.csv.gz"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestProcessCommandFailFast(t *testing.T) {
	srv := testutil.NewOpenDotaServer(t)
	srv.Fail(testutil.RoutePlayers, http.StatusBadGateway)
	dir := t.TempDir()

	out, err := execute(t, "process", "--base-url", srv.URL, "--out", dir, "--fail-fast")
	require.Error(t, err)

	var report pipeline.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Datasets, 1)
	assert.Equal(t, "playerData", report.Datasets[0].Name)
	assert.Equal(t, 0, srv.Hits(testutil.RouteHeroes))
}

func TestProcessCommandRequiresOut(t *testing.T) {
	_, err := execute(t, "process")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out")
}

func TestDescribeCommand(t *testing.T) {
	srv := testutil.NewOpenDotaServer(t)

	out, err := execute(t, "describe", "heroes", "--base-url", srv.URL)
	require.NoError(t, err)

	var cols []struct {
		Column   string            `json:"column"`
		Declared core.EvidenceType `json:"declared"`
		Inferred struct {
			EvidenceType core.EvidenceType `json:"evidenceType"`
		} `json:"inferred"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cols))
	require.NotEmpty(t, cols)
	assert.Equal(t, "id", cols[0].Column)
	assert.Equal(t, core.EvidenceTypeNumber, cols[0].Declared)

	_, err = execute(t, "describe", "nope", "--base-url", srv.URL)
	require.Error(t, err)
}

func TestQueryCommandNotImplemented(t *testing.T) {
	_, err := execute(t, "query", "select 1")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotImplemented), err.Error())
}

func TestEnvironmentOverridesFlagsDefaults(t *testing.T) {
	srv := testutil.NewOpenDotaServer(t)
	t.Setenv("OPENDOTA_BASE_URL", srv.URL)

	out, err := execute(t, "test-connection")
	require.NoError(t, err)
	assert.Equal(t, "connection ok: true\n", out)
	assert.Equal(t, 1, srv.Hits(testutil.RouteHeroes))
}

func TestDirFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "connection.yaml", []byte("name: dota"))
	testutil.WriteFile(t, filepath.Join(dir, "queries"), "heroes.sql", []byte("select 1"))

	files := dirFiles(dir)
	names, err := files.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"connection.yaml", "queries/heroes.sql"}, names)

	data, err := files.Read(context.Background(), "queries/heroes.sql")
	require.NoError(t, err)
	assert.Equal(t, "select 1", string(data))

	_, err = files.Read(context.Background(), "missing.sql")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}
