package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/yaml.v3"

	"github.com/thisisjab/clefzilla/engine"
	"github.com/thisisjab/clefzilla/parser"
	"github.com/thisisjab/clefzilla/source"
	"github.com/thisisjab/clefzilla/storage"
)

type Config struct {
	Logger               LoggerConfig   `yaml:"logger"`
	Storage              StorageConfig  `yaml:"storage"`
	Parser               parser.Config  `yaml:"parser"`
	Sources              []SourceConfig `yaml:"sources"`
	RawLinesBufferSize   uint           `yaml:"raw_lines_buffer_size"`
	StorageFlushInterval time.Duration  `yaml:"storage_flush_interval"`
	EventsBufferSize     uint           `yaml:"events_buffer_size"`
	ParserWorkersCount   uint           `yaml:"parser_workers_count"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Type  string `yaml:"type"`
}

type StorageConfig struct {
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type SourceConfig struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

func (cfg Config) Parse() (*engine.Config, *slog.Logger, error) {
	logger, err := parseLoggerConfig(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create logger: %w", err)
	}

	st, err := parseStorageConfig(cfg.Storage)
	if err != nil {
		return nil, logger, fmt.Errorf("cannot create storage: %w", err)
	}

	sources := make(map[string]engine.LineProvider, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		s, err := parseSourceConfig(logger, sc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create source `%s`: %w", sc.Name, err)
		}
		sources[sc.Name] = s
	}

	return &engine.Config{
		Sources:              sources,
		Parser:               parser.New(cfg.Parser),
		Storage:              st,
		StorageFlushInterval: cfg.StorageFlushInterval,
		RawLinesBufferSize:   cfg.RawLinesBufferSize,
		EventsBufferSize:     cfg.EventsBufferSize,
		ParserWorkersCount:   cfg.ParserWorkersCount,
	}, logger, nil
}

func parseLoggerConfig(cfg LoggerConfig) (*slog.Logger, error) {
	var handler slog.Handler

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	w := os.Stdout
	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level, AddSource: true})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	return slog.New(handler), nil
}

func parseStorageConfig(cfg StorageConfig) (engine.Storage, error) {
	switch cfg.Type {
	case "clickhouse":
		var clickHouseConfig storage.ClickHouseStorageConfig

		if err := remarshal(cfg.Config, &clickHouseConfig); err != nil {
			return nil, fmt.Errorf("cannot parse clickhouse storage config: %w", err)
		}

		s, err := storage.NewClickHouseStorage(clickHouseConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create clickhouse storage: %w", err)
		}

		return s, nil

	default:
		return nil, fmt.Errorf("invalid storage type: %s", cfg.Type)
	}
}

func parseSourceConfig(logger *slog.Logger, cfg SourceConfig) (engine.LineProvider, error) {
	switch cfg.Type {
	case "follow":
		var followConfig source.FollowConfig
		if err := remarshal(cfg.Config, &followConfig); err != nil {
			return nil, fmt.Errorf("cannot create follow source: %w", err)
		}

		followConfig.Name = cfg.Name

		s, err := source.NewFollow(logger, followConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create follow source: %w", err)
		}

		return s, nil
	default:
		return nil, fmt.Errorf("invalid source type: %s", cfg.Type)
	}
}

// remarshal takes an input value, marshals it to YAML, and then unmarshals
// it into a new value of the given type. This converts the generic
// map[string]any sub-configs into concrete structs.
func remarshal(input any, output any) error {
	yamlBytes, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	if err := yaml.Unmarshal(yamlBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	return nil
}
