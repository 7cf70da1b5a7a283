package flowgate

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the yaml form of the analyzer options that are not code.
//
//	parallel: 4
//	log_level: debug
//	statistics: [FSC-A, Comp-FL1-H]
type Config struct {
	// Parallel is the number of gates evaluated at the same time.
	Parallel int `yaml:"parallel"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Statistics lists parameters summarized for every subpopulation.
	Statistics []string `yaml:"statistics"`
}

// LoadConfig decodes a yaml Config. Unknown fields are an error.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if c.Parallel < 0 {
		return Config{}, fmt.Errorf("parallel must not be negative, got %d", c.Parallel)
	}
	return c, nil
}

// Options converts the configuration to analyzer options. The logger is
// built from LogLevel unless one is passed.
func (c Config) Options(logger *zap.Logger) ([]AnalyzerOption, error) {
	if logger == nil && c.LogLevel != "" {
		var err error
		logger, err = NewLogger(c.LogLevel)
		if err != nil {
			return nil, err
		}
	}

	var opts []AnalyzerOption
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	if c.Parallel > 0 {
		opts = append(opts, WithParallel(c.Parallel))
	}
	if len(c.Statistics) > 0 {
		opts = append(opts, WithStatistics(Refs(c.Statistics...)...))
	}
	return opts, nil
}

// NewLogger builds a production zap logger at the level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
