package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Addr != "127.0.0.1:3512" || cfg.RoomName != "game-room" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.EmitRate() != 100*time.Millisecond || cfg.Step != 2 {
		t.Fatalf("unexpected timing defaults %+v", cfg)
	}
	if cfg.SpawnX != 200 || cfg.SpawnY != 150 {
		t.Fatalf("unexpected spawn (%v, %v)", cfg.SpawnX, cfg.SpawnY)
	}
	if cfg.MaxMessageBytes != 0 {
		t.Fatalf("expected unlimited message size by default, got %d", cfg.MaxMessageBytes)
	}
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"addr":":9000","emitRateMs":50,"log":{"level":"info"},"redis":{"addr":"localhost:6379"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.EmitRateMs != 50 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Step != 2 || cfg.RoomName != "game-room" {
		t.Fatalf("defaults lost for unset fields: %+v", cfg)
	}
	if cfg.Log.Level != "info" || cfg.Log.File != "app.log" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.Channel != "game-room:events" {
		t.Fatalf("unexpected redis config %+v", cfg.Redis)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"step":3}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Step != 3 {
		t.Fatalf("expected step 3 from CONFIG_PATH, got %v", cfg.Step)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"emitRateMs":0,"step":-1}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error")
	}

	neg := DefaultConfig()
	neg.MaxMessageBytes = -1
	if err := neg.Validate(); err == nil {
		t.Fatalf("expected error for negative maxMessageBytes")
	}

	cfg, err := LoadConfig("")
	if err != nil || cfg.Addr != DefaultConfig().Addr {
		t.Fatalf("expected defaults without a path, got %+v (%v)", cfg, err)
	}
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	if err := InitLogger(LogConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if err := InitLogger(LogConfig{File: filepath.Join(t.TempDir(), "app.log"), Level: "warn"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	Log.Warnw("logger test", "ok", true)
	SyncLogger()
}
