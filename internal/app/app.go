// Package app assembles a runnable Supervisor from a loaded Config: one
// resource.Resource plus collector.Collector per configured
// ResourceConfig, sharing one batch.Counter and fetcher.Fetcher; each
// collector gets its own pipeline.Pipeline built from the top-level
// PipelineConfig. Adapted from
// the teacher's internal/engine package, which played the same
// wire-everything-together role for a link-graph crawl engine; here it
// wires the scheduled data-collection components of SPEC_FULL.md §4
// instead of a Collector/Parser/Storage crawl loop.
package app

import (
	"fmt"
	"log/slog"

	"github.com/DanchukIvan/byteflow/internal/batch"
	"github.com/DanchukIvan/byteflow/internal/buffer"
	"github.com/DanchukIvan/byteflow/internal/collector"
	"github.com/DanchukIvan/byteflow/internal/config"
	"github.com/DanchukIvan/byteflow/internal/eor"
	"github.com/DanchukIvan/byteflow/internal/fetcher"
	"github.com/DanchukIvan/byteflow/internal/pipeline"
	"github.com/DanchukIvan/byteflow/internal/resource"
	"github.com/DanchukIvan/byteflow/internal/schedule"
	"github.com/DanchukIvan/byteflow/internal/storage"
	"github.com/DanchukIvan/byteflow/internal/supervisor"
	"github.com/DanchukIvan/byteflow/internal/types"
)

// Build wires a Supervisor and every component its registered collectors
// depend on, from cfg. The returned closeFn releases the fetcher and every
// resource's storage engine; callers should defer it.
func Build(cfg *config.Config, logger *slog.Logger) (sup *supervisor.Supervisor, closeFn func(), err error) {
	f, err := buildFetcher(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build fetcher: %w", err)
	}

	defaultEngine, err := buildStorageEngine(cfg.Storage)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("build default storage engine: %w", err)
	}

	counter := batch.NewCounter(cfg.Batch.MaxBatch)
	sup = supervisor.New(cfg.Scheduling.LookupInterval, logger)

	engines := []storage.Engine{defaultEngine}
	registerClose := func(e storage.Engine) { engines = append(engines, e) }

	for _, rc := range cfg.Resources {
		c, err := buildCollector(rc, cfg, counter, f, defaultEngine, registerClose, logger)
		if err != nil {
			f.Close()
			for _, e := range engines {
				e.Close()
			}
			return nil, nil, fmt.Errorf("build collector %q: %w", rc.Name, err)
		}
		sup.Register(rc.Name, c)
	}

	closeFn = func() {
		f.Close()
		for _, e := range engines {
			e.Close()
		}
	}
	return sup, closeFn, nil
}

func buildFetcher(cfg *config.Config, logger *slog.Logger) (fetcher.Fetcher, error) {
	switch cfg.Fetcher.Type {
	case "", "http":
		return fetcher.NewHTTPFetcher(cfg, logger)
	case "browser":
		return fetcher.NewBrowserFetcher(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown fetcher.type %q", cfg.Fetcher.Type)
	}
}

func buildStorageEngine(sc config.StorageConfig) (storage.Engine, error) {
	switch sc.Proto {
	case "mongo":
		return storage.BuildEngine("mongo", map[string]any{
			"uri":        sc.MongoURI,
			"database":   sc.MongoDatabase,
			"collection": sc.MongoCollection,
		})
	default:
		return storage.BuildEngine("file", map[string]any{"root": sc.Root})
	}
}

func buildCollector(
	rc config.ResourceConfig,
	cfg *config.Config,
	counter *batch.Counter,
	f fetcher.Fetcher,
	defaultEngine storage.Engine,
	registerClose func(storage.Engine),
	logger *slog.Logger,
) (*collector.Collector[*types.Item], error) {
	res := resource.NewResource(rc.Name, rc.BaseURL, rc.MaxPages)
	for _, reqCfg := range rc.Requests {
		q := resource.NewCollectQuery(reqCfg.Name)
		for k, v := range reqCfg.PersistFields {
			q.SetPersistField(k, v)
		}
		for k, v := range reqCfg.MutableFields {
			q.SetMutableField(k, v)
		}
		res.AddQuery(q)
	}

	resolver := buildResolver(rc.EOR)

	condition, err := buildCondition(rc.Schedule)
	if err != nil {
		return nil, err
	}

	engine := defaultEngine
	if rc.Storage.Proto != "" {
		engine, err = buildStorageEngine(rc.Storage)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		registerClose(engine)
	}

	store := buffer.NewBufferableStorage[*types.Item](
		engine,
		func(item *types.Item) ([]byte, error) { return item.ToJSON() },
		&buffer.CountLimit{Capacity: cfg.Batch.MaxBatch},
	)

	pipe, err := buildPipeline(cfg.Pipeline, logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	return collector.New(collector.Config[*types.Item]{
		Name:       rc.Name,
		Resource:   res,
		Condition:  condition,
		Counter:    counter,
		Resolver:   resolver,
		Pipeline:   pipe,
		Store:      store,
		Fetcher:    f,
		Decode:     collector.JSONItemDecoder(),
		MaxRetries: cfg.Batch.MaxRetries,
		Logger:     logger,
	}), nil
}

func buildResolver(ec config.EORConfig) *eor.Resolver {
	var triggers []eor.Trigger
	if len(ec.StopCodes) > 0 {
		triggers = append(triggers, eor.NewStatus(ec.StopCodes...))
	}
	if ec.MinContentLength > 0 {
		triggers = append(triggers, &eor.ContentLength{MinBytes: ec.MinContentLength})
	}
	if ec.MaxRounds > 0 {
		triggers = append(triggers, &eor.SimpleCounted{MaxRounds: ec.MaxRounds})
	}
	return eor.NewResolver(triggers)
}

func buildCondition(sc config.ScheduleConfig) (schedule.ActionCondition, error) {
	switch sc.Type {
	case "", "always":
		return schedule.AlwaysRun{}, nil

	case "daily":
		start := schedule.ClockTime{Hour: sc.LaunchHour, Minute: sc.LaunchMinute}
		end := schedule.ClockTime{Hour: 23, Minute: 59}
		interval := schedule.NewDailyInterval(sc.IntervalDays, start, end, zeroTime(), nowForSchedule())
		return schedule.NewTimeCondition(interval, sc.FrequencyHours, nil), nil

	case "weekday":
		weekdays, err := parseWeekdays(sc.Weekdays)
		if err != nil {
			return nil, err
		}
		if len(weekdays) == 0 {
			return nil, fmt.Errorf("schedule.type %q requires at least one weekday", sc.Type)
		}
		start := schedule.ClockTime{Hour: sc.LaunchHour, Minute: sc.LaunchMinute}
		end := schedule.ClockTime{Hour: 23, Minute: 59}
		interval := schedule.NewWeekdayInterval(weekdays, start, end, zeroTime(), nowForSchedule())
		return schedule.NewTimeCondition(interval, sc.FrequencyHours, nil), nil

	default:
		return nil, fmt.Errorf("unknown schedule.type %q", sc.Type)
	}
}

func buildPipeline(pc config.PipelineConfig, logger *slog.Logger) (*pipeline.Pipeline[*types.Item], error) {
	p := pipeline.New[*types.Item](logger, pc.Concurrency)
	if pc.Timeout > 0 {
		p.Timeout(pc.Timeout)
	}
	for _, mw := range pc.Middlewares {
		step, err := pipeline.Build(mw.Name, mw.Options, logger)
		if err != nil {
			return nil, err
		}
		p.Use(mw.Name, step)
	}
	return p, nil
}
