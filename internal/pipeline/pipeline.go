// Package pipeline runs the bankcap ETL job: extract the bank table,
// convert market caps, persist the result and report on it. Each stage
// boundary is recorded as a progress checkpoint.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/seenimoa/bankcap/internal/config"
	"github.com/seenimoa/bankcap/internal/convert"
	"github.com/seenimoa/bankcap/internal/datasource"
	"github.com/seenimoa/bankcap/internal/persist"
	"github.com/seenimoa/bankcap/internal/progress"
	"github.com/seenimoa/bankcap/internal/report"
	"github.com/seenimoa/bankcap/internal/store"
	"github.com/seenimoa/bankcap/pkg/models"
)

// Checkpointer records a progress message.
type Checkpointer interface {
	Log(message string) error
}

// RateLoader returns the exchange-rate table for a run.
type RateLoader func(ctx context.Context) (models.ExchangeRateTable, error)

// StoreOpener opens the relational store for a run.
type StoreOpener func(ctx context.Context) (*store.Store, error)

// Result is what a successful run produced.
type Result struct {
	Rows    []models.AugmentedRow
	Summary *convert.Summary
	Reports []*models.ResultSet
}

// Pipeline wires the four stages together. Build one with New.
type Pipeline struct {
	cfg       *config.Config
	source    datasource.DocumentSource
	rates     RateLoader
	openStore StoreOpener
	progress  Checkpointer
	out       io.Writer
	log       *slog.Logger
}

// Option overrides a pipeline dependency.
type Option func(*Pipeline)

// WithSource sets where the bank listing document comes from.
func WithSource(src datasource.DocumentSource) Option {
	return func(p *Pipeline) { p.source = src }
}

// WithRates sets the exchange-rate loader.
func WithRates(rl RateLoader) Option {
	return func(p *Pipeline) { p.rates = rl }
}

// WithRateTable uses a fixed, already-loaded rate table.
func WithRateTable(t models.ExchangeRateTable) Option {
	return WithRates(func(context.Context) (models.ExchangeRateTable, error) { return t, nil })
}

// WithStoreOpener sets how the relational store is opened.
func WithStoreOpener(open StoreOpener) Option {
	return func(p *Pipeline) { p.openStore = open }
}

// WithProgress sets the checkpoint recorder.
func WithProgress(c Checkpointer) Option {
	return func(p *Pipeline) { p.progress = c }
}

// WithOutput sets where report results are written.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New builds a pipeline from cfg. Dependencies not supplied through opts are
// derived from cfg: the source URL, rate location and store DSN. The
// progress recorder must be supplied with WithProgress.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := datasource.NewHTTPClient(cfg.Source.Timeout())
	p := &Pipeline{
		cfg:    cfg,
		source: datasource.URLSource{URL: cfg.Source.URL, Client: client},
		rates: func(ctx context.Context) (models.ExchangeRateTable, error) {
			return datasource.LoadRates(ctx, client, cfg.Rates.Location)
		},
		openStore: func(ctx context.Context) (*store.Store, error) {
			return store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		},
		out: os.Stdout,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.progress == nil {
		return nil, errors.New("pipeline: progress recorder is required")
	}
	return p, nil
}

// checkpoint records msg. A failed write is logged and never aborts the run.
func (p *Pipeline) checkpoint(msg string) {
	p.log.Info(msg)
	if err := p.progress.Log(msg); err != nil {
		p.log.Warn("progress checkpoint not recorded", "checkpoint", msg, "error", err)
	}
}

// queries returns the configured report statements or the defaults.
func (p *Pipeline) queries() []string {
	if len(p.cfg.Report.Queries) > 0 {
		return p.cfg.Report.Queries
	}
	return report.DefaultQueries(p.cfg.Store.Table)
}

// Run executes extract, transform, load and report in order. It stops at
// the first error. The store is closed on every path once opened.
func (p *Pipeline) Run(ctx context.Context) (res *Result, err error) {
	format, err := report.ParseFormat(p.cfg.Report.Format)
	if err != nil {
		return nil, err
	}
	p.checkpoint(progress.MsgPreliminaries)

	// Extract
	rows, err := datasource.NewExtractor(p.source).Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	p.log.Debug("extracted banks", "count", len(rows))
	p.checkpoint(progress.MsgExtracted)

	// Transform
	rates, err := p.rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load exchange rates: %w", err)
	}
	p.log.Debug("loaded exchange rates", "currencies", rates.Codes())
	augmented, err := convert.Convert(rows, rates)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	res = &Result{Rows: augmented}
	if sum, err := convert.Summarize(augmented); err == nil {
		res.Summary = &sum
		p.log.Info("market cap summary",
			"banks", sum.Count, "total_usd_bn", sum.Total, "mean_usd_bn", sum.Mean,
			"median_usd_bn", sum.Median, "largest", sum.Top)
	}
	p.checkpoint(progress.MsgTransformed)

	// Load
	persister := &persist.Persister{
		CSVPath:  p.cfg.Output.CSVPath,
		XLSXPath: p.cfg.Output.XLSXPath,
		Sheet:    p.cfg.Output.XLSXSheet,
		Table:    p.cfg.Store.Table,
	}
	if err := persister.SaveFiles(augmented); err != nil {
		return res, err
	}
	p.checkpoint(progress.MsgCSVSaved)

	st, err := p.openStore(ctx)
	if err != nil {
		return res, &persist.PersistError{Destination: persist.DestTable, Target: p.cfg.Store.DSN, Err: err}
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			p.log.Warn("close store", "error", cerr)
			if err == nil {
				err = fmt.Errorf("close store: %w", cerr)
			}
			return
		}
		p.checkpoint(progress.MsgClosed)
	}()
	p.checkpoint(progress.MsgConnected)

	if err := persister.Load(ctx, st, augmented); err != nil {
		return res, err
	}
	if err := p.verifyLoad(ctx, st, len(augmented)); err != nil {
		return res, err
	}
	p.checkpoint(progress.MsgLoaded)

	// Report
	reporter := &report.Reporter{Store: st, Out: p.out, Format: format}
	res.Reports, err = reporter.Run(ctx, p.queries(), func(q string) {
		p.checkpoint(progress.QueryMessage(q))
	})
	if err != nil {
		return res, fmt.Errorf("report: %w", err)
	}
	p.checkpoint(progress.MsgComplete)

	return res, nil
}

// verifyLoad reads the table back and checks it holds every converted row.
func (p *Pipeline) verifyLoad(ctx context.Context, st *store.Store, want int) error {
	loaded, err := st.LoadTable(ctx, p.cfg.Store.Table)
	if err != nil {
		return &persist.PersistError{Destination: persist.DestTable, Target: p.cfg.Store.Table, Err: err}
	}
	if len(loaded) != want {
		return &persist.PersistError{
			Destination: persist.DestTable,
			Target:      p.cfg.Store.Table,
			Err:         fmt.Errorf("table holds %d rows after load, want %d", len(loaded), want),
		}
	}
	p.log.Debug("verified table", "table", p.cfg.Store.Table, "rows", len(loaded))
	return nil
}

// Query runs statements against an existing store without extracting or
// loading. It is the read-only half of Run.
func Query(ctx context.Context, cfg *config.Config, out io.Writer, queries []string) ([]*models.ResultSet, error) {
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		queries = cfg.Report.Queries
	}
	if len(queries) == 0 {
		queries = report.DefaultQueries(cfg.Store.Table)
	}

	st, err := store.OpenExisting(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	r := &report.Reporter{Store: st, Out: out, Format: format}
	return r.Run(ctx, queries, nil)
}
