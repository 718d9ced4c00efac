package config

import (
	"testing"

	"github.com/thisisjab/clefzilla/engine"
)

func TestClickHouseStorageExposesConnection(t *testing.T) {
	st, err := parseStorageConfig(StorageConfig{
		Type: "clickhouse",
		Config: map[string]any{
			"addr":     []string{"localhost:9000"},
			"database": "default",
		},
	})
	if err != nil {
		t.Fatalf("parseStorageConfig: %v", err)
	}

	// The engine command connects and closes the storage around Run; the
	// configured storage must expose that lifecycle.
	if _, ok := st.(engine.ConnectedStorage); !ok {
		t.Fatal("clickhouse storage must implement engine.ConnectedStorage")
	}
}

func TestParseStorageConfigUnknownType(t *testing.T) {
	if _, err := parseStorageConfig(StorageConfig{Type: "postgres"}); err == nil {
		t.Fatal("expected an error for an unknown storage type")
	}
}
