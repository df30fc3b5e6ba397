package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/ziptext/internal/extract"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Archive     string `yaml:"archive" json:"archive"`
	Output      string `yaml:"output" json:"output"`
	Encoding    string `yaml:"encoding" json:"encoding"`
	NoOverwrite bool   `yaml:"noOverwrite" json:"noOverwrite"`
	FailOnError bool   `yaml:"failOnError" json:"failOnError"`
	Verbose     bool   `yaml:"verbose" json:"verbose"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Artifacts struct {
		Manifest   string `yaml:"manifest" json:"manifest"`
		SummaryPDF string `yaml:"summaryPDF" json:"summaryPDF"`
	} `yaml:"artifacts" json:"artifacts"`
}

// Duration accepts Go duration strings such as "36h" in YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Defaults applied by flag parsing; file config only replaces a field that
// still holds its default.
const (
	outputDirDefault = "."
	encodingDefault  = extract.DefaultEncoding
)

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset or at their flag default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.ArchivePath == "" && fc.Archive != "" {
		cfg.ArchivePath = fc.Archive
	}
	if (cfg.OutputDir == "" || cfg.OutputDir == outputDirDefault) && fc.Output != "" {
		cfg.OutputDir = fc.Output
	}
	if (cfg.Encoding == "" || cfg.Encoding == encodingDefault) && fc.Encoding != "" {
		cfg.Encoding = fc.Encoding
	}
	if !cfg.NoOverwrite && fc.NoOverwrite {
		cfg.NoOverwrite = true
	}
	if !cfg.FailOnError && fc.FailOnError {
		cfg.FailOnError = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge)
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if cfg.ManifestPath == "" && fc.Artifacts.Manifest != "" {
		cfg.ManifestPath = fc.Artifacts.Manifest
	}
	if cfg.SummaryPDFPath == "" && fc.Artifacts.SummaryPDF != "" {
		cfg.SummaryPDFPath = fc.Artifacts.SummaryPDF
	}
}

// ErrInvalidConfig wraps every ValidateConfig failure.
var ErrInvalidConfig = errors.New("invalid config")

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.ArchivePath) == "" {
		return fmt.Errorf("%w: archive path is required", ErrInvalidConfig)
	}
	if _, _, err := extract.LookupEncoding(cfg.Encoding); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.CacheMaxAge < 0 {
		return fmt.Errorf("%w: negative cache max age is not allowed", ErrInvalidConfig)
	}
	if cfg.CacheClear && strings.TrimSpace(cfg.CacheDir) == "" {
		return fmt.Errorf("%w: cache.clear requires cache.dir", ErrInvalidConfig)
	}
	return nil
}
