package opendota

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/base"
	"github.com/ajitpratap0/opendota-datasource/pkg/connector/core"
	"github.com/ajitpratap0/opendota-datasource/pkg/logger"
)

// ProcessSource starts an advanced run and returns its stream. Datasets are
// emitted in catalog order; the stream closes after the last emission, after
// a failure in fail-fast mode, or when ctx ends.
func (s *OpenDotaSource) ProcessSource(ctx context.Context, opts core.Options, files core.SourceFiles, _ core.UtilFuncs) (*core.DatasetStream, error) {
	cfg, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx, s.GetLogger())
	log.Debug("process source", zap.String(config.KeySomeOption, cfg.SomeOption))

	if files != nil {
		names, err := files.List(ctx)
		if err != nil {
			log.Warn("failed to list source files", zap.Error(err))
		} else {
			log.Debug("source files", zap.Int("count", len(names)))
		}
	}

	datasets, err := selectDatasets(cfg)
	if err != nil {
		return nil, err
	}

	bufferSize := cfg.Performance.BufferSize
	if bufferSize < 0 {
		bufferSize = 0
	}
	out := make(chan core.Emission, bufferSize)

	r := &run{
		source:   s,
		cfg:      cfg,
		datasets: datasets,
		out:      out,
		log:      log,
		progress: s.GetProgressReporter(),
	}
	go r.produce(ctx)

	return &core.DatasetStream{Emissions: out}, nil
}

// run is the state of one ProcessSource call
type run struct {
	source   *OpenDotaSource
	cfg      *config.OpenDotaSourceConfig
	datasets []Dataset
	out      chan<- core.Emission
	log      *zap.Logger
	progress *base.ProgressReporter
}

// outcome is the result of fetching one dataset
type outcome struct {
	dataset *core.DatasetSpec
	err     error
}

func (r *run) produce(ctx context.Context) {
	defer close(r.out)

	ctx, span := r.source.tracer.StartSpan(ctx, "process_source")
	defer span.End()
	span.SetAttribute("datasets", len(r.datasets))
	span.SetAttribute("fail_fast", r.cfg.Reliability.FailFast)

	r.progress.Start(len(r.datasets))

	var emitted int
	if r.cfg.Performance.MaxConcurrency <= 1 {
		emitted = r.sequential(ctx)
	} else {
		emitted = r.concurrent(ctx)
	}

	for _, d := range r.datasets[emitted:] {
		r.progress.DatasetSkipped(d.Name)
	}
	if emitted < len(r.datasets) {
		span.SetAttribute("skipped", len(r.datasets)-emitted)
	}
	span.RecordResult(ctx.Err())
	r.progress.Finish()
}

// sequential fetches one dataset at a time. It returns how many datasets
// were emitted.
func (r *run) sequential(ctx context.Context) int {
	for i, d := range r.datasets {
		if ctx.Err() != nil {
			return i
		}
		ds, err := r.source.fetchDataset(ctx, r.cfg, d)
		if !r.emit(ctx, i, d, outcome{dataset: ds, err: err}) {
			return i
		}
		if err != nil && r.cfg.Reliability.FailFast {
			return i + 1
		}
	}
	return len(r.datasets)
}

// concurrent fetches up to max_concurrency datasets at once and releases
// the results in catalog order. It returns how many datasets were emitted.
func (r *run) concurrent(ctx context.Context) int {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]chan outcome, len(r.datasets))
	for i := range results {
		results[i] = make(chan outcome, 1)
	}

	g, gctx := errgroup.WithContext(fetchCtx)
	g.SetLimit(r.cfg.Performance.MaxConcurrency)

	// g.Go blocks at the limit, so launching runs apart from the release loop
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, d := range r.datasets {
			if gctx.Err() != nil {
				return
			}
			i, d := i, d
			g.Go(func() error {
				ds, err := r.source.fetchDataset(gctx, r.cfg, d)
				results[i] <- outcome{dataset: ds, err: err}
				return nil
			})
		}
	}()

	emitted := len(r.datasets)
	for i, d := range r.datasets {
		res, ok := r.await(ctx, results[i])
		if !ok || !r.emit(ctx, i, d, res) {
			emitted = i
			break
		}
		if res.err != nil && r.cfg.Reliability.FailFast {
			emitted = i + 1
			break
		}
	}

	cancel()
	<-launched
	_ = g.Wait()
	return emitted
}

func (r *run) await(ctx context.Context, result <-chan outcome) (outcome, bool) {
	select {
	case res := <-result:
		return res, true
	case <-ctx.Done():
		return outcome{}, false
	}
}

// emit delivers one emission. It returns false when ctx ended first.
func (r *run) emit(ctx context.Context, index int, d Dataset, res outcome) bool {
	if ctx.Err() != nil {
		return false
	}
	e := core.Emission{Index: index, Name: d.Name, Dataset: res.dataset, Err: res.err}
	select {
	case r.out <- e:
	case <-ctx.Done():
		return false
	}

	rows := 0
	if res.dataset != nil {
		rows = res.dataset.RowCount()
	}
	r.progress.DatasetDone(d.Name, rows, res.err)
	if res.err != nil {
		r.log.Warn("dataset failed",
			zap.String("dataset", d.Name),
			zap.Bool("fail_fast", r.cfg.Reliability.FailFast),
			zap.Error(res.err))
	}
	return true
}
