package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"

	"github.com/thisisjab/clefzilla/entity"
)

type ClickHouseStorageConfig struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// ClickHouseStorage bulk-loads parsed CLEF events into a single MergeTree
// table. Events are inserted as rows, never re-serialized to CLEF.
type ClickHouseStorage struct {
	conn clickhouse.Conn
	cfg  ClickHouseStorageConfig
}

func NewClickHouseStorage(cfg ClickHouseStorageConfig) (*ClickHouseStorage, error) {
	return &ClickHouseStorage{cfg: cfg}, nil
}

func setupClickHouseTables(ctx context.Context, conn driver.Conn) error {
	// Unset reified attributes become empty strings; user fields keep their
	// JSON shape. Exception/event id/renderings hold the canonical string
	// form since the wire format allows structured payloads there.
	return conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS clef_events (
			id UUID,
			source String,
			line UInt64,
			timestamp DateTime64(3),
			level LowCardinality(String),
			message String,
			message_template String,
			exception String,
			event_id String,
			renderings String,
			user_fields JSON
		)
		ENGINE = MergeTree
		ORDER BY (source, timestamp, id)
		PARTITION BY toYYYYMM(timestamp)
	`)
}

func (s *ClickHouseStorage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: s.cfg.Addr,
		Auth: clickhouse.Auth{
			Database: s.cfg.Database,
			Username: s.cfg.Username,
			Password: s.cfg.Password,
		},
		Settings: clickhouse.Settings{
			"allow_experimental_json_type": 1, // This is for supporting JSON columns
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %v", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.conn = conn

	// A single table; go-migrate would be overkill.
	if err := setupClickHouseTables(ctx, conn); err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	return nil
}

func (s *ClickHouseStorage) Close(ctx context.Context) error {
	return s.conn.Close()
}

func (s *ClickHouseStorage) StoreEvents(ctx context.Context, events ...entity.SourcedEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO clef_events (id, source, line, timestamp, level, message, message_template, exception, event_id, renderings, user_fields)")
	if err != nil {
		return fmt.Errorf("couldn't prepare batch: %w", err)
	}

	for _, se := range events {
		e := se.Event

		fields, err := json.Marshal(e.UserFields)
		if err != nil {
			return fmt.Errorf("couldn't encode user fields: %w", err)
		}

		err = batch.Append(
			uuid.New(),
			se.Source,
			uint64(e.LineNumber),
			e.Timestamp,
			e.Level,
			e.Message,
			e.MessageTemplate,
			valueColumn(e.Exception),
			valueColumn(e.EventID),
			valueColumn(e.Renderings),
			string(fields),
		)
		if err != nil {
			return fmt.Errorf("couldn't append event to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("couldn't send batch: %w", err)
	}

	return nil
}

func valueColumn(v entity.Value) string {
	if v.IsZero() {
		return ""
	}
	return v.String()
}
