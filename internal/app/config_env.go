package app

import (
	"os"
	"strings"
	"time"
)

// Environment variables recognized by ApplyEnvOverrides.
const (
	envArchive     = "ZIPTEXT_ARCHIVE"
	envOutputDir   = "ZIPTEXT_OUTPUT_DIR"
	envEncoding    = "ZIPTEXT_ENCODING"
	envNoOverwrite = "ZIPTEXT_NO_OVERWRITE"
	envCacheDir    = "ZIPTEXT_CACHE_DIR"
	envCacheMaxAge = "ZIPTEXT_CACHE_MAX_AGE"
	envCacheClear  = "ZIPTEXT_CACHE_CLEAR"
	envCacheStrict = "ZIPTEXT_CACHE_STRICT_PERMS"
	envManifest    = "ZIPTEXT_MANIFEST"
	envSummaryPDF  = "ZIPTEXT_SUMMARY_PDF"
	envFailOnError = "ZIPTEXT_FAIL_ON_ERROR"
	envVerbose     = "VERBOSE"
)

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	override := func(dst *string, envKey string) {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			*dst = v
		}
	}
	override(&cfg.ArchivePath, envArchive)
	override(&cfg.OutputDir, envOutputDir)
	override(&cfg.Encoding, envEncoding)
	override(&cfg.CacheDir, envCacheDir)
	override(&cfg.ManifestPath, envManifest)
	override(&cfg.SummaryPDFPath, envSummaryPDF)

	if s := os.Getenv(envCacheMaxAge); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.CacheMaxAge = d
		}
	}

	setBool := func(dst *bool, envKey string) {
		if v, ok := parseBoolEnv(envKey); ok {
			*dst = v
		}
	}
	setBool(&cfg.NoOverwrite, envNoOverwrite)
	setBool(&cfg.CacheClear, envCacheClear)
	setBool(&cfg.CacheStrictPerms, envCacheStrict)
	setBool(&cfg.FailOnError, envFailOnError)
	setBool(&cfg.Verbose, envVerbose)
}

// parseBoolEnv reports the truthiness of envKey and whether it was set to a
// recognized value.
func parseBoolEnv(envKey string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
