// Package connector holds the data source and the destinations that move
// OpenDota datasets from the API to files.
//
// # Architecture Overview
//
//   - core: the Datasource and Destination interfaces, the dataset types
//     (DatasetSpec, ColumnType, Record, Value) and the emission stream.
//
//   - base: BaseConnector, embedded by every connector. It carries the
//     circuit breaker, the rate limiter, health tracking, progress reporting
//     and the per-connector metrics collector.
//
//   - sources/opendota: the OpenDota data source.
//
//   - destinations: json and csv file writers. Both write a schema file next
//     to each dataset and can compress their output.
//
//   - registry: name-based factories. Connectors register themselves from
//     init, so importing a package is enough to make it available.
//
// # Emission Order
//
// A source run emits one event per selected dataset, in catalog order, even
// when datasets are fetched concurrently. A failed dataset yields an emission
// carrying the error. In the default resilient mode the run continues with
// the next dataset; with fail_fast the failing emission is the last one.
//
// # Example Usage
//
//	cfg := config.NewBaseConfig("opendota", "opendota")
//	cfg.Performance.MaxConcurrency = 3
//
//	src, err := registry.CreateSource("opendota", cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer src.Close(ctx)
//
//	stream, err := src.ProcessSource(ctx, core.Options{"datasets": "heroes"}, nil, nil)
//
// Writing the stream to files:
//
//	destCfg := config.NewBaseConfig("json", "json")
//	destCfg.Security.Credentials["path"] = "./out"
//	dest, err := registry.CreateDestination("json", destCfg)
//	report, err := pipeline.Run(ctx, stream, dest, logger)
package connector
