package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesCLIDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, 2048, cfg.DataEntryCount)
	require.Equal(t, 0, cfg.CodePageByteCount)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultDataEntryCount, cfg.DataEntryCount)
}

func TestLoadOverridesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asp.yaml")
	content := "data_entry_count: 4096\ncode_page_byte_count: 256\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataEntryCount != 4096 {
		t.Fatalf("expected overridden data entry count 4096, got %d", cfg.DataEntryCount)
	}
	if cfg.CodePageByteCount != 256 {
		t.Fatalf("expected overridden page size 256, got %d", cfg.CodePageByteCount)
	}
	if cfg.CycleDetectionLimit != DefaultCycleDetectionLimit {
		t.Fatalf("expected default cycle limit to survive partial override, got %d", cfg.CycleDetectionLimit)
	}
}

func TestApplyDefaultsLeavesExplicitValues(t *testing.T) {
	cfg := EngineConfig{DataEntryCount: 10}
	cfg.ApplyDefaults()
	if cfg.DataEntryCount != 10 {
		t.Fatalf("expected explicit value to survive, got %d", cfg.DataEntryCount)
	}
	if cfg.CycleDetectionLimit != DefaultCycleDetectionLimit {
		t.Fatalf("expected cycle limit defaulted, got %d", cfg.CycleDetectionLimit)
	}
}
