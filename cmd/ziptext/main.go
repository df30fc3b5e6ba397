package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ziptext/internal/app"
	"github.com/hyperifyio/ziptext/internal/extract"
	"github.com/hyperifyio/ziptext/internal/pipeline"
)

const (
	exitOK          = 0
	exitEntryFailed = 1
	exitHalted      = 2
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, showVersion, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		log.Error().Err(err).Msg("invalid arguments")
		os.Exit(exitHalted)
	}
	if showVersion {
		fmt.Println(app.VersionString())
		return
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// parseArgs resolves configuration with precedence flags > env > config file
// > defaults. The archive may be given with -archive or as the first
// positional argument.
func parseArgs(args []string, stderr io.Writer) (app.Config, bool, error) {
	fs := flag.NewFlagSet("ziptext", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		flagCfg     app.Config
		configPath  string
		envFiles    string
		showVersion bool
	)
	fs.StringVar(&flagCfg.ArchivePath, "archive", "", "Path to the zip archive to extract")
	fs.StringVar(&flagCfg.OutputDir, "out", ".", "Directory receiving output_<entry>.txt files")
	fs.StringVar(&flagCfg.Encoding, "encoding", extract.DefaultEncoding, "Text encoding of plain entries, e.g. utf-8, windows-1252, gbk")
	fs.BoolVar(&flagCfg.NoOverwrite, "no-overwrite", false, "Fail an entry instead of replacing an existing output file")
	fs.StringVar(&configPath, "config", os.Getenv("ZIPTEXT_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load before reading the environment")
	fs.StringVar(&flagCfg.CacheDir, "cache.dir", "", "Extraction cache directory; empty disables caching")
	fs.DurationVar(&flagCfg.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	fs.BoolVar(&flagCfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&flagCfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.StringVar(&flagCfg.ManifestPath, "manifest", "", "Write a JSON run manifest to this path")
	fs.StringVar(&flagCfg.SummaryPDFPath, "summary.pdf", "", "Write a PDF run summary to this path")
	fs.BoolVar(&flagCfg.FailOnError, "fail-on-error", false, "Exit with status 1 when any entry fails")
	fs.BoolVar(&flagCfg.Verbose, "v", false, "Verbose logging")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return app.Config{}, false, err
	}
	if showVersion {
		return app.Config{}, true, nil
	}

	var files []string
	for _, p := range strings.Split(envFiles, ",") {
		if s := strings.TrimSpace(p); s != "" {
			files = append(files, s)
		}
	}
	if err := app.LoadEnvFiles(files...); err != nil {
		return app.Config{}, false, fmt.Errorf("load env: %w", err)
	}

	var cfg app.Config
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return app.Config{}, false, fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["archive"] && fs.NArg() > 0 {
		flagCfg.ArchivePath = fs.Arg(0)
		set["archive"] = true
	}
	overlayFlags(&cfg, flagCfg, set)
	if cfg.ArchivePath == "" {
		cfg.ArchivePath = flagCfg.ArchivePath
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = flagCfg.OutputDir
	}
	if cfg.Encoding == "" {
		cfg.Encoding = flagCfg.Encoding
	}
	return cfg, false, nil
}

// overlayFlags copies every explicitly set flag from src into dst.
func overlayFlags(dst *app.Config, src app.Config, set map[string]bool) {
	if set["archive"] {
		dst.ArchivePath = src.ArchivePath
	}
	if set["out"] {
		dst.OutputDir = src.OutputDir
	}
	if set["encoding"] {
		dst.Encoding = src.Encoding
	}
	if set["no-overwrite"] {
		dst.NoOverwrite = src.NoOverwrite
	}
	if set["cache.dir"] {
		dst.CacheDir = src.CacheDir
	}
	if set["cache.maxAge"] {
		dst.CacheMaxAge = src.CacheMaxAge
	}
	if set["cache.clear"] {
		dst.CacheClear = src.CacheClear
	}
	if set["cache.strictPerms"] {
		dst.CacheStrictPerms = src.CacheStrictPerms
	}
	if set["manifest"] {
		dst.ManifestPath = src.ManifestPath
	}
	if set["summary.pdf"] {
		dst.SummaryPDFPath = src.SummaryPDFPath
	}
	if set["fail-on-error"] {
		dst.FailOnError = src.FailOnError
	}
	if set["v"] {
		dst.Verbose = src.Verbose
	}
}

// exitCode maps run errors onto the process exit status. Per-entry failures
// only change the status when -fail-on-error asked for it.
func exitCode(err error) int {
	var openErr *pipeline.ArchiveOpenError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &openErr), errors.Is(err, app.ErrInvalidConfig):
		return exitHalted
	case errors.Is(err, app.ErrEntriesFailed):
		return exitEntryFailed
	}
	return exitHalted
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	_, err = a.Run(ctx)
	return err
}
