package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"smartsplit/internal/adapters"
	"smartsplit/internal/config"
	"smartsplit/internal/core"
	"smartsplit/internal/sheets/memory"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Error("sheets should not be a valid backend")
	}
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "memory" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown type", Config{Type: "redis"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) should fail")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:     "postgres",
		DatabaseURL:     "postgres://localhost/smartsplit",
		GoogleSheetName: "Allocations",
		DataDirectory:   "seed",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.DatabaseURL != "postgres://localhost/smartsplit" || cfg.DataDirectory != "seed" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "bogus"}); err == nil {
		t.Error("FromAppConfig should reject unknown backends")
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("Rent\nFood\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if _, ok := res.Backend.(*memory.Store); !ok {
		t.Errorf("Backend = %T, want *memory.Store", res.Backend)
	}
	if _, ok := res.Exporter.(*memory.Store); !ok {
		t.Errorf("Exporter = %T, want *memory.Store", res.Exporter)
	}
	if res.Publisher() != nil {
		t.Error("Publisher() should be nil without AMQP")
	}
	if err := res.Ready(context.Background()); err != nil {
		t.Errorf("Ready() error = %v", err)
	}

	cats, err := res.Backend.ListCategories(context.Background())
	if err != nil || len(cats) != 2 || cats[0].Name != "Food" {
		t.Errorf("ListCategories() = %+v, %v", cats, err)
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db", "smartsplit.db")

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if _, ok := res.Exporter.(*adapters.LogExporter); !ok {
		t.Errorf("Exporter = %T, want *adapters.LogExporter", res.Exporter)
	}
	if err := res.Ready(context.Background()); err != nil {
		t.Errorf("Ready() error = %v", err)
	}

	ref, err := res.Backend.SaveBudget(context.Background(), core.Budget{UserID: "u1"})
	if err != nil || ref != "1" {
		t.Errorf("SaveBudget() = %q, %v, want 1", ref, err)
	}
}

func TestCreateBackend_Invalid(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "nope"}); err == nil {
		t.Error("CreateBackend should reject invalid config")
	}
}
