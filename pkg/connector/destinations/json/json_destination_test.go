package json

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/opendota-datasource/pkg/compression"
	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	jsonpool "github.com/ajitpratap0/opendota-datasource/pkg/json"
)

func destConfig(dir string, creds map[string]string) *config.BaseConfig {
	cfg := config.NewBaseConfig("json", "json")
	cfg.Security.Credentials = map[string]string{config.KeyPath: dir}
	for k, v := range creds {
		cfg.Security.Credentials[k] = v
	}
	return cfg
}

func heroes() *core.DatasetSpec {
	return &core.DatasetSpec{
		Name:    "heroes",
		Content: "heroes",
		Rows: []core.Record{
			{"id": core.IntValue(1), "localized_name": core.StringValue("Anti-Mage"), "roles": core.JSONValue([]byte(`["Carry"]`))},
			{"id": core.IntValue(2), "localized_name": core.StringValue("Axe"), "roles": core.Null()},
		},
		ColumnTypes: []core.ColumnType{
			core.Precise("id", core.EvidenceTypeNumber),
			core.Precise("localized_name", core.EvidenceTypeString),
			core.Precise("roles", core.EvidenceTypeString),
		},
	}
}

func TestWriteArray(t *testing.T) {
	dir := t.TempDir()
	dest, err := NewJSONDestination(destConfig(dir, nil))
	require.NoError(t, err)
	require.NoError(t, dest.Write(context.Background(), heroes()))
	require.NoError(t, dest.Close(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "heroes.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":1,"localized_name":"Anti-Mage","roles":["Carry"]},
		{"id":2,"localized_name":"Axe","roles":null}
	]`, string(data))

	_, err = os.Stat(filepath.Join(dir, "heroes.schema.json"))
	assert.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "heroes.json"),
		filepath.Join(dir, "heroes.schema.json"),
	}, dest.(*JSONDestination).Files())
}

func TestWriteLinesPretty(t *testing.T) {
	dir := t.TempDir()
	dest, err := NewJSONDestination(destConfig(dir, map[string]string{
		config.KeyFormat: "lines",
	}))
	require.NoError(t, err)
	require.NoError(t, dest.Write(context.Background(), heroes()))

	f, err := os.Open(filepath.Join(dir, "heroes.json"))
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 2)
	assert.Equal(t, `{"id":1,"localized_name":"Anti-Mage","roles":["Carry"]}`, lines[0])

	pretty, err := NewJSONDestination(destConfig(t.TempDir(), map[string]string{config.KeyPretty: "true"}))
	require.NoError(t, err)
	require.NoError(t, pretty.Write(context.Background(), heroes()))
	data, err := os.ReadFile(filepath.Join(pretty.(*JSONDestination).cfg.Directory, "heroes.json"))
	require.NoError(t, err)
	assert.True(t, jsonpool.Valid(data))
	assert.Contains(t, string(data), "\n  ")
}

func TestWriteCompressed(t *testing.T) {
	dir := t.TempDir()
	cfg := destConfig(dir, nil)
	cfg.Advanced.EnableCompression = true
	cfg.Advanced.CompressionAlgorithm = "gzip"

	dest, err := NewJSONDestination(cfg)
	require.NoError(t, err)
	require.NoError(t, dest.Write(context.Background(), heroes()))

	raw, err := os.ReadFile(filepath.Join(dir, "heroes.json.gz"))
	require.NoError(t, err)
	plain, err := compression.Decompress(raw, compression.Gzip)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(plain), "["))

	m := dest.(*JSONDestination).Metrics()
	assert.Equal(t, int64(1), m["datasets_written"])
	assert.Equal(t, int64(2), m["records_written"])
}

func TestWriteEmptyDataset(t *testing.T) {
	dir := t.TempDir()
	dest, err := NewJSONDestination(destConfig(dir, nil))
	require.NoError(t, err)
	require.NoError(t, dest.Write(context.Background(), &core.DatasetSpec{Name: "heroes"}))

	data, err := os.ReadFile(filepath.Join(dir, "heroes.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestConfigErrors(t *testing.T) {
	_, err := NewJSONDestination(destConfig("", nil))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = NewJSONDestination(destConfig(t.TempDir(), map[string]string{config.KeyFormat: "xml"}))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestWriteAfterClose(t *testing.T) {
	dest, err := NewJSONDestination(destConfig(t.TempDir(), nil))
	require.NoError(t, err)
	require.NoError(t, dest.Close(context.Background()))

	err = dest.Write(context.Background(), heroes())
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
}
