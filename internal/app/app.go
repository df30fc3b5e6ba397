package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ziptext/internal/cache"
	"github.com/hyperifyio/ziptext/internal/extract"
	"github.com/hyperifyio/ziptext/internal/output"
	"github.com/hyperifyio/ziptext/internal/pipeline"
)

type App struct {
	cfg        Config
	dispatcher *pipeline.Dispatcher
	cache      *cache.ExtractCache
	open       func(path string) (archive, error)
}

// archive is the part of *pipeline.Archive a run depends on.
type archive interface {
	Path() string
	Entries() []pipeline.Entry
	Close() error
}

func openZip(path string) (archive, error) {
	arc, err := pipeline.OpenArchive(path)
	if err != nil {
		return nil, err
	}
	return arc, nil
}

// ErrEntriesFailed is returned by Run when FailOnError is set and at least one
// entry could not be extracted or written.
var ErrEntriesFailed = errors.New("one or more entries failed")

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = outputDirDefault
	}
	registry, err := extract.NewRegistry(extract.Options{Encoding: cfg.Encoding})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	a := &App{cfg: cfg, open: openZip}
	if cfg.CacheDir != "" {
		// Invalidation failures are logged; a stale cache never blocks a run.
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged expired cache entries")
			}
		}
		a.cache = &cache.ExtractCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	d, err := pipeline.New(pipeline.Options{
		Registry: registry,
		Writer:   output.Writer{Dir: cfg.OutputDir, NoOverwrite: cfg.NoOverwrite},
		Cache:    a.cache,
	})
	if err != nil {
		return nil, err
	}
	a.dispatcher = d
	return a, nil
}

func (a *App) Close() {
	// nothing yet
}

// Run extracts every entry of the configured archive. Only an archive that
// cannot be opened stops the run; per-entry failures are reported in the
// summary and, with FailOnError, as ErrEntriesFailed.
func (a *App) Run(ctx context.Context) (pipeline.Summary, error) {
	started := time.Now()
	runID := uuid.NewString()
	log.Info().Str("run", runID).Str("archive", a.cfg.ArchivePath).Str("out", a.cfg.OutputDir).Msg("starting extraction")

	summary, err := a.extract(ctx)
	if err != nil {
		return summary, err
	}

	if err := a.writeArtifacts(runID, summary, started, time.Now()); err != nil {
		return summary, err
	}

	if a.cfg.FailOnError && summary.Count(pipeline.StateFailed) > 0 {
		return summary, fmt.Errorf("%w: %w", ErrEntriesFailed, summary.Err())
	}
	return summary, nil
}

// extract dispatches every entry; the archive is released on every path,
// including a panic escaping a caller-registered strategy.
func (a *App) extract(ctx context.Context) (pipeline.Summary, error) {
	arc, err := a.open(a.cfg.ArchivePath)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer func() {
		if cerr := arc.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("archive", arc.Path()).Msg("archive close failed")
		} else {
			log.Debug().Str("archive", arc.Path()).Msg("archive closed")
		}
	}()
	return a.dispatcher.Run(ctx, arc.Entries()), nil
}

func (a *App) writeArtifacts(runID string, s pipeline.Summary, started, finished time.Time) error {
	if a.cfg.ManifestPath == "" && a.cfg.SummaryPDFPath == "" {
		return nil
	}
	meta := buildManifestMeta(a.cfg, runID, s, started, finished)
	entries := buildManifestEntries(s)
	if a.cfg.ManifestPath != "" {
		if err := writeManifest(a.cfg.ManifestPath, meta, entries); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		log.Info().Str("path", a.cfg.ManifestPath).Msg("wrote manifest")
	}
	if a.cfg.SummaryPDFPath != "" {
		if err := writeSummaryPDF(renderSummaryText(meta, entries), a.cfg.SummaryPDFPath); err != nil {
			return fmt.Errorf("summary pdf: %w", err)
		}
		log.Info().Str("path", a.cfg.SummaryPDFPath).Msg("wrote summary pdf")
	}
	return nil
}
