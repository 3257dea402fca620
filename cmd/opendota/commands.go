package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/internal/pipeline"
	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/registry"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/sources/opendota"
	"github.com/ajitpratap0/opendota-datasource/pkg/json"
	"github.com/ajitpratap0/opendota-datasource/pkg/metrics"
	"github.com/ajitpratap0/opendota-datasource/pkg/schema"
)

func (c *cli) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

// newSource creates the registered OpenDota source from the resolved config
func (c *cli) newSource() (core.Datasource, error) {
	cfg, err := c.sourceConfig()
	if err != nil {
		return nil, err
	}
	return registry.CreateSource(opendota.ConnectorName, cfg)
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(c.out, "opendota-datasource v%s\n", version)
			fmt.Fprintf(c.out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(c.out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available connectors",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(c.out, "Available Source Connectors:")
			for _, name := range registry.ListSources() {
				fmt.Fprintf(c.out, "  - %s\n", name)
			}
			fmt.Fprintln(c.out, "\nAvailable Destination Connectors:")
			for _, name := range registry.ListDestinations() {
				fmt.Fprintf(c.out, "  - %s\n", name)
			}
			fmt.Fprintln(c.out)
			for _, info := range registry.ListConnectorInfo() {
				fmt.Fprintf(c.out, "%s (%s %s): %s\n", info.Name, info.Type, info.Version, info.Description)
			}
		},
	}
}

func (c *cli) optionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the connection options schema as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := c.newSource()
			if err != nil {
				return err
			}
			defer src.Close(c.ctx)
			return c.printJSON(src.Options())
		},
	}
}

func (c *cli) datasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "Print the dataset catalog with column types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.printJSON(opendota.Catalog())
		},
	}
}

func (c *cli) testConnectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Probe the OpenDota API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := c.newSource()
			if err != nil {
				return err
			}
			defer src.Close(c.ctx)

			ok, err := src.TestConnection(c.ctx, c.options(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "connection ok: %t\n", ok)
			return nil
		},
	}
}

func (c *cli) processCmd() *cobra.Command {
	var (
		outDir, format, algorithm, level, sourceDir string
		pretty, failFast, skipCheck                 bool
		concurrency                                 int
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Fetch every dataset and write it to files",
		Long: `Fetch the selected datasets in catalog order and write each one to
<out>/<dataset>.<format>, with a <dataset>.schema.json next to it.

Example:
  opendota process --out ./sources/dota --format csv --compression gzip`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.sourceConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fail-fast") {
				cfg.Reliability.FailFast = failFast
			}
			if cmd.Flags().Changed("skip-schema-check") {
				cfg.Reliability.SkipSchemaCheck = skipCheck
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Performance.MaxConcurrency = concurrency
			}

			src, err := registry.CreateSource(opendota.ConnectorName, cfg)
			if err != nil {
				return err
			}
			defer src.Close(c.ctx)

			destCfg := config.NewBaseConfig(format, format)
			destCfg.Security.Credentials = map[string]string{
				config.KeyPath:   outDir,
				config.KeyPretty: fmt.Sprint(pretty),
			}
			if algorithm != "" && !strings.EqualFold(algorithm, "none") {
				destCfg.Advanced.EnableCompression = true
				destCfg.Advanced.CompressionAlgorithm = algorithm
			}
			destCfg.Advanced.CompressionLevel = level

			dest, err := registry.CreateDestination(format, destCfg)
			if err != nil {
				return err
			}
			defer dest.Close(c.ctx)

			var files core.SourceFiles
			if sourceDir != "" {
				files = dirFiles(sourceDir)
			}

			stream, err := src.ProcessSource(c.ctx, c.options(cmd), files, nil)
			if err != nil {
				return err
			}
			report, runErr := pipeline.Run(c.ctx, stream, dest, c.log)
			if report != nil {
				if err := c.printJSON(report); err != nil {
					return err
				}
			}

			if path := cfg.Observability.MetricsFile; path != "" && cfg.Observability.EnableMetrics {
				if err := metrics.WriteTextfile(path); err != nil {
					c.log.Warn("failed to write metrics file", zap.String("path", path), zap.Error(err))
				}
			}
			return runErr
		},
	}

	f := cmd.Flags()
	f.StringVarP(&outDir, "out", "o", "", "Output directory (required)")
	f.StringVarP(&format, "format", "f", "json", "Output format (json, csv)")
	f.StringVar(&algorithm, "compression", "none", "Output compression (none, gzip, zstd, lz4, snappy, s2, deflate)")
	f.StringVar(&level, "compression-level", "default", "Compression level (fastest, default, better, best)")
	f.StringVar(&sourceDir, "source-dir", "", "Evidence source directory handed to the source")
	f.BoolVar(&pretty, "pretty", false, "Indent JSON output")
	f.BoolVar(&failFast, "fail-fast", false, "Stop after the first failed dataset")
	f.BoolVar(&skipCheck, "skip-schema-check", false, "Emit rows without checking them against the declared columns")
	f.IntVar(&concurrency, "concurrency", 1, "Datasets fetched at once")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// columnDescription pairs a declared column with the type inferred from rows
type columnDescription struct {
	Column       string               `json:"column"`
	Declared     core.EvidenceType    `json:"declared"`
	TypeFidelity core.TypeFidelity    `json:"typeFidelity"`
	Inferred     *schema.InferredType `json:"inferred"`
}

func (c *cli) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe DATASET",
		Short: "Fetch one dataset and compare declared and inferred column types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, ok := opendota.Lookup(name); !ok {
				return fmt.Errorf("unknown dataset %q", name)
			}
			src, err := c.newSource()
			if err != nil {
				return err
			}
			defer src.Close(c.ctx)

			opts := core.Options{}
			for k, v := range c.options(cmd) {
				opts[k] = v
			}
			opts[config.KeyDatasets] = name

			stream, err := src.ProcessSource(c.ctx, opts, nil, nil)
			if err != nil {
				return err
			}
			emissions, err := stream.Collect(c.ctx)
			if err != nil {
				return err
			}
			if len(emissions) == 0 {
				return fmt.Errorf("dataset %q was not emitted", name)
			}
			e := emissions[0]
			if e.Failed() {
				return e.Err
			}

			out := make([]columnDescription, 0, len(e.Dataset.ColumnTypes))
			for _, col := range e.Dataset.ColumnTypes {
				out = append(out, columnDescription{
					Column:       col.Name,
					Declared:     col.EvidenceType,
					TypeFidelity: col.TypeFidelity,
					Inferred:     schema.Infer(e.Dataset.Rows, col.Name),
				})
			}
			return c.printJSON(out)
		},
	}
}

func (c *cli) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query QUERY [PATH]",
		Short: "Run a query through the simple runner",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := c.newSource()
			if err != nil {
				return err
			}
			defer src.Close(c.ctx)

			runner, err := src.GetRunner(c.ctx, c.options(cmd))
			if err != nil {
				return err
			}
			path := ""
			if len(args) > 1 {
				path = args[1]
			}
			result, err := runner.Run(c.ctx, args[0], path)
			if err != nil {
				return err
			}
			return c.printJSON(result)
		},
	}
}
