package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// ArchivePath is the zip archive to extract. Required.
	ArchivePath string
	// OutputDir receives one output_<entry>.txt per file entry.
	OutputDir string
	// Encoding is the label used to decode plain-text entries.
	Encoding string
	// NoOverwrite fails an entry instead of replacing an existing output.
	NoOverwrite bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Run artifacts
	ManifestPath   string
	SummaryPDFPath string

	// Behavior
	FailOnError bool
	Verbose     bool
}
