// Package config loads landmarked's YAML configuration, mirroring the
// teacher's configs.LoadConfig but covering every key spec.md §6 lists.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/landmarked/landmarked/internal/landmarkerr"
)

// Database holds connection options passed through to whichever store
// backend database_type selects.
type Database struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// Fingerprint holds the DSP/hashing overrides spec.md §6 names.
type Fingerprint struct {
	SampleRate           int     `yaml:"DEFAULT_FS"`
	WindowSize           int     `yaml:"DEFAULT_WINDOW_SIZE"`
	OverlapRatio         float64 `yaml:"DEFAULT_OVERLAP_RATIO"`
	FanValue             int     `yaml:"DEFAULT_FAN_VALUE"`
	AmpMin               float64 `yaml:"DEFAULT_AMP_MIN"`
	PeakNeighborhood     int     `yaml:"PEAK_NEIGHBORHOOD_SIZE"`
	MinHashTimeDelta     int     `yaml:"MIN_HASH_TIME_DELTA"`
	MaxHashTimeDelta     int     `yaml:"MAX_HASH_TIME_DELTA"`
	PeakSort             bool    `yaml:"PEAK_SORT"`
	FingerprintReduction int     `yaml:"FINGERPRINT_REDUCTION"`
	ConnectivityMask     int     `yaml:"CONNECTIVITY_MASK"`
	TopN                 int     `yaml:"TOPN"`
}

// Config is the top-level landmarked configuration document.
type Config struct {
	DatabaseType     string      `yaml:"database_type"`
	Database         Database    `yaml:"database"`
	FingerprintLimit *float64    `yaml:"fingerprint_limit"`
	MinConfidence    float64     `yaml:"min_confidence"`
	Fingerprint      Fingerprint `yaml:"fingerprint"`
	NumWorkers       int         `yaml:"num_workers"`
	BatchSize        int         `yaml:"batch_size"`
}

// Default returns the baseline configuration with every spec.md default
// filled in; Load starts here and overlays whatever the YAML file
// sets.
func Default() Config {
	return Config{
		DatabaseType: "mysql",
		Database:     Database{Type: "mysql", Host: "127.0.0.1", Port: 3306},
		NumWorkers:   0, // 0 means runtime.NumCPU() at ingest time
		BatchSize:    1000,
		Fingerprint: Fingerprint{
			SampleRate:           44100,
			WindowSize:           4096,
			OverlapRatio:         0.5,
			FanValue:             15,
			AmpMin:               10,
			PeakNeighborhood:     10,
			MinHashTimeDelta:     0,
			MaxHashTimeDelta:     200,
			PeakSort:             true,
			FingerprintReduction: 20,
			ConnectivityMask:     2,
			TopN:                 2,
		},
	}
}

// Load reads and parses a YAML config file at path, overlaying it onto
// Default(). A missing or unparseable file is a ConfigError: per
// spec.md §7, this aborts before any work begins.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, landmarkerr.NewConfigError(path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, landmarkerr.NewConfigError(path, err)
	}
	if cfg.DatabaseType != "" {
		cfg.Database.Type = cfg.DatabaseType
	} else {
		cfg.DatabaseType = cfg.Database.Type
	}
	return &cfg, nil
}

// FingerprintSeconds reports the number of seconds of input to
// fingerprint, or false if the whole track should be used (a null or
// -1 fingerprint_limit per spec.md §6).
func (c Config) FingerprintSeconds() (seconds float64, limited bool) {
	if c.FingerprintLimit == nil {
		return 0, false
	}
	v := *c.FingerprintLimit
	if v < 0 {
		return 0, false
	}
	return v, true
}
