// Package opendota provides an OpenDota API data source for Evidence.
//
// The source fetches a fixed catalog of OpenDota endpoints and emits each one
// as a typed dataset: rows of JSON values plus a declared Evidence type for
// every column. Datasets are delivered in catalog order on a stream, so a
// host can consume them as they finish.
//
// # Architecture
//
//   - pkg/connector/sources/opendota: the data source (options schema,
//     connection test, runner and the dataset stream)
//   - pkg/connector/core: the host-facing interfaces and the dataset types
//   - pkg/connector/destinations: JSON and CSV file writers with optional
//     compression
//   - internal/pipeline: drains a stream into a destination and reports
//     the outcome of every dataset
//   - cmd/opendota: the command line
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/ajitpratap0/opendota-datasource/pkg/config"
//	    "github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
//	    "github.com/ajitpratap0/opendota-datasource/pkg/connector/registry"
//	    _ "github.com/ajitpratap0/opendota-datasource/pkg/connector/sources/opendota"
//	)
//
//	cfg := config.NewBaseConfig("opendota", "opendota")
//	src, err := registry.CreateSource("opendota", cfg)
//	if err != nil {
//	    return err
//	}
//	defer src.Close(ctx)
//
//	stream, err := src.ProcessSource(ctx, core.Options{"player_id": "95365420"}, nil, nil)
//	if err != nil {
//	    return err
//	}
//	for e := range stream.Emissions {
//	    if e.Failed() {
//	        log.Printf("%s: %v", e.Name, e.Err)
//	        continue
//	    }
//	    log.Printf("%s: %d rows", e.Name, e.Dataset.RowCount())
//	}
//
// # Command Line
//
//	opendota test-connection
//	opendota process --out ./sources/dota --format csv --compression gzip
//	opendota describe heroes
package opendota
