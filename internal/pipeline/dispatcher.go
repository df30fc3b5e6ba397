// Package pipeline classifies archive entries, routes each to an extraction
// strategy and persists the text, isolating failures per entry.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ziptext/internal/cache"
	"github.com/hyperifyio/ziptext/internal/extract"
	"github.com/hyperifyio/ziptext/internal/output"
	"github.com/hyperifyio/ziptext/internal/sniff"
)

// OutputWriter persists one output file.
type OutputWriter interface {
	Write(name, content string) (output.Record, error)
}

// Options configures a Dispatcher. Zero values select defaults.
type Options struct {
	Routes   []Route
	Registry *extract.Registry
	Writer   OutputWriter
	// Cache, when set, serves repeated content without parsing it again.
	Cache  *cache.ExtractCache
	Logger *zerolog.Logger
}

// Dispatcher processes entries sequentially in iteration order.
type Dispatcher struct {
	routes   []Route
	registry *extract.Registry
	writer   OutputWriter
	cache    *cache.ExtractCache
	log      zerolog.Logger
}

// New builds a Dispatcher from opts.
func New(opts Options) (*Dispatcher, error) {
	d := &Dispatcher{
		routes:   opts.Routes,
		registry: opts.Registry,
		writer:   opts.Writer,
		cache:    opts.Cache,
		log:      log.Logger,
	}
	if opts.Logger != nil {
		d.log = *opts.Logger
	}
	if len(d.routes) == 0 {
		d.routes = DefaultRoutes()
	}
	if d.registry == nil {
		r, err := extract.NewRegistry(extract.Options{})
		if err != nil {
			return nil, err
		}
		d.registry = r
	}
	if d.writer == nil {
		d.writer = output.Writer{}
	}
	return d, nil
}

// Run processes every entry and never stops early: each outcome, success or
// failure, is recorded in the returned Summary.
func (d *Dispatcher) Run(ctx context.Context, entries []Entry) Summary {
	var s Summary
	written := map[string]string{}
	for _, e := range entries {
		res := d.Process(ctx, e)
		if res.State == StateWritten {
			if prev, ok := written[res.Output]; ok {
				res.Collision = true
				d.log.Warn().Str("entry", res.Name).Str("previous", prev).Str("out", res.Output).Msg("output name collision; earlier output overwritten")
			}
			written[res.Output] = res.Name
		}
		s.Results = append(s.Results, res)
	}
	d.log.Info().
		Int("entries", len(s.Results)).
		Int("written", s.Count(StateWritten)).
		Int("skipped", s.Count(StateSkipped)).
		Int("failed", s.Count(StateFailed)).
		Msg("archive processed")
	return s
}

// Process handles a single entry. Failures are converted into a failed
// result; nothing escapes.
func (d *Dispatcher) Process(ctx context.Context, e Entry) EntryResult {
	res := EntryResult{Name: e.Name(), State: StateReceived}
	d.log.Info().Str("entry", res.Name).Msg("entry")

	if e.IsDir() {
		res.State = StateSkipped
		d.log.Info().Str("entry", res.Name).Msg("directory skipped")
		return res
	}

	route, ok := matchRoute(d.routes, res.Name)
	if !ok {
		return d.fail(res, &ExtractionError{Entry: res.Name, Err: errors.New("no route matches entry")})
	}
	res.Family = route.Family

	content, err := readEntry(e)
	if err != nil {
		return d.fail(res, &EntryReadError{Entry: res.Name, Err: err})
	}

	format, err := route.Resolve(bytes.NewReader(content))
	if err != nil {
		d.log.Info().Str("entry", res.Name).Str("family", route.Family).Str("category", format.String()).Msg("category")
		return d.fail(res, &ExtractionError{Entry: res.Name, Format: format.String(), Err: err})
	}
	res.Format = format
	res.State = StateClassified
	d.log.Info().Str("entry", res.Name).Str("family", route.Family).Str("category", format.String()).Msg("category")

	res.State = StateExtracting
	text, cached, err := d.extract(ctx, res.Name, format, content)
	if err != nil {
		return d.fail(res, &ExtractionError{Entry: res.Name, Format: format.String(), Err: err})
	}
	res.Cached = cached

	name := output.FileName(res.Name)
	rec, err := d.writer.Write(name, text)
	if err != nil {
		return d.fail(res, &WriteError{Entry: res.Name, Output: name, Err: err})
	}
	res.State = StateWritten
	res.Output = name
	res.Bytes = rec.Bytes
	res.SHA256 = rec.SHA256
	d.log.Info().Str("entry", res.Name).Str("out", rec.Path).Int("bytes", rec.Bytes).Bool("cached", cached).Msg("wrote output")
	return res
}

func (d *Dispatcher) extract(ctx context.Context, entry string, format sniff.Format, content []byte) (string, bool, error) {
	var key string
	if d.cache != nil {
		key = cache.Key(d.registry.StrategyID(format), content)
		text, ok, err := d.cache.Get(ctx, key)
		if err != nil {
			d.log.Debug().Err(err).Str("entry", entry).Msg("cache lookup failed")
		} else if ok {
			return text, true, nil
		}
	}
	strategy, ok := d.registry.Lookup(format)
	if !ok {
		return "", false, fmt.Errorf("no strategy for %s", format)
	}
	text, err := strategy.Extract(content)
	if err != nil {
		return "", false, err
	}
	if d.cache != nil {
		if err := d.cache.Save(ctx, key, format.String(), entry, text); err != nil {
			d.log.Debug().Err(err).Str("entry", entry).Msg("cache save failed")
		}
	}
	return text, false, nil
}

func (d *Dispatcher) fail(res EntryResult, err error) EntryResult {
	res.State = StateFailed
	res.Err = err
	d.log.Warn().Err(err).Str("entry", res.Name).Msg("entry failed")
	return res
}

// readEntry reads the whole entry and closes its stream on every path.
func readEntry(e Entry) (b []byte, err error) {
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return io.ReadAll(rc)
}
