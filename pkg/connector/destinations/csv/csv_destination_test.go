package csv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/opendota-datasource/pkg/compression"
	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

func destConfig(dir string) *config.BaseConfig {
	cfg := config.NewBaseConfig("csv", "csv")
	cfg.Security.Credentials = map[string]string{config.KeyPath: dir}
	return cfg
}

func proMatches() *core.DatasetSpec {
	start := time.Date(2024, 8, 30, 6, 40, 0, 0, time.UTC)
	return &core.DatasetSpec{
		Name:    "pro_matches",
		Content: "proMatches",
		Rows: []core.Record{
			{
				"match_id":     core.IntValue(7890123456),
				"start_time":   core.DateValue(start),
				"radiant_name": core.StringValue("Team, Liquid"),
				"radiant_win":  core.BoolValue(true),
				"extra":        core.StringValue("not declared"),
			},
			{
				"match_id":    core.IntValue(7890123457),
				"radiant_win": core.BoolValue(false),
				"picks":       core.JSONValue([]byte(`[1,2]`)),
			},
		},
		ColumnTypes: []core.ColumnType{
			core.Precise("match_id", core.EvidenceTypeNumber),
			core.Inferred("start_time", core.EvidenceTypeDate),
			core.Precise("radiant_name", core.EvidenceTypeString),
			core.Precise("radiant_win", core.EvidenceTypeBoolean),
			core.Precise("picks", core.EvidenceTypeString),
		},
	}
}

func TestWriteDeclaredColumns(t *testing.T) {
	dir := t.TempDir()
	dest, err := NewCSVDestination(destConfig(dir))
	require.NoError(t, err)
	require.NoError(t, dest.Write(context.Background(), proMatches()))
	require.NoError(t, dest.Close(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "pro_matches.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"match_id,start_time,radiant_name,radiant_win,picks\n"+
			"7890123456,2024-08-30T06:40:00Z,\"Team, Liquid\",true,\n"+
			"7890123457,,,false,\"[1,2]\"\n",
		string(data))

	_, err = os.Stat(filepath.Join(dir, "pro_matches.schema.json"))
	assert.NoError(t, err)
}

func TestWriteDelimiterAndCompression(t *testing.T) {
	dir := t.TempDir()
	cfg := destConfig(dir)
	cfg.Security.Credentials[KeyDelimiter] = ";"
	cfg.Advanced.EnableCompression = true
	cfg.Advanced.CompressionAlgorithm = "zstd"

	dest, err := NewCSVDestination(cfg)
	require.NoError(t, err)
	require.NoError(t, dest.Write(context.Background(), proMatches()))

	raw, err := os.ReadFile(filepath.Join(dir, "pro_matches.csv.zst"))
	require.NoError(t, err)
	plain, err := compression.Decompress(raw, compression.Zstd)
	require.NoError(t, err)
	assert.Contains(t, string(plain), "match_id;start_time;radiant_name;radiant_win;picks\n")
	assert.Contains(t, string(plain), "7890123456;2024-08-30T06:40:00Z;Team, Liquid;true;\n")

	assert.Equal(t, int64(2), dest.(*CSVDestination).Metrics()["records_written"])
}

func TestInvalidDelimiter(t *testing.T) {
	cfg := destConfig(t.TempDir())
	cfg.Security.Credentials[KeyDelimiter] = "||"
	_, err := NewCSVDestination(cfg)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestWriteCanceled(t *testing.T) {
	dir := t.TempDir()
	dest, err := NewCSVDestination(destConfig(dir))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = dest.Write(ctx, proMatches())
	assert.True(t, errors.IsType(err, errors.ErrorTypeCanceled))
	_, err = os.Stat(filepath.Join(dir, "pro_matches.csv"))
	assert.True(t, os.IsNotExist(err))
}
