// Package config holds the engine-wide tunables a host chooses at
// startup: data heap capacity, code buffer/page sizing, the
// cycle-detection limit, and string-fragment capacity (spec.md's
// Design Note: "string fragment size... should become a capacity
// parameter, not a hard-coded value"). The standalone CLI's flags and
// a host's programmatic engine.Config construction both start from
// EngineConfig's defaults.
//
// Grounded on the teacher's internal/config (a small package of named
// constants consumed by cmd/funxy and internal/vm), generalized here
// from compile-time constants to a struct with an optional YAML
// override file, the way the teacher's internal/ext/config.go loads
// funxy.yaml via gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultDataEntryCount matches spec.md §6's CLI default ("data entry
// count (-d n, default 2048)").
const DefaultDataEntryCount = 2048

// DefaultCycleDetectionLimit matches internal/heap.DefaultConfig.
const DefaultCycleDetectionLimit = 10000

// DefaultFragmentCap matches internal/object.DefaultFragmentCap.
const DefaultFragmentCap = 32

// EngineConfig bundles every tunable a host or the CLI needs before
// building an engine.Config. Zero values on an unmarshalled
// EngineConfig mean "use the documented default", applied by
// ApplyDefaults.
type EngineConfig struct {
	// DataEntryCount is the number of fixed-size entries in the data
	// heap. 0 means DefaultDataEntryCount.
	DataEntryCount int `yaml:"data_entry_count,omitempty"`

	// CodeByteCount is the size of the code buffer in non-paged modes.
	// 0 means auto-size from the loaded file (spec.md §6: "-c n, 0 =
	// auto-size from file").
	CodeByteCount int `yaml:"code_byte_count,omitempty"`

	// CodePageByteCount, when non-zero, switches code loading to paged
	// mode with this page size (spec.md §6: "-p n, 0 = no paging").
	CodePageByteCount int `yaml:"code_page_byte_count,omitempty"`

	// CycleDetectionLimit bounds recursive free/repr/compare traversal.
	// 0 means DefaultCycleDetectionLimit.
	CycleDetectionLimit int `yaml:"cycle_detection_limit,omitempty"`

	// StringFragmentCap bounds how many bytes a single string fragment
	// entry holds before a new fragment is linked on. 0 means
	// DefaultFragmentCap.
	StringFragmentCap int `yaml:"string_fragment_cap,omitempty"`

	// StackLimit and CallLimit bound the engine's working stack and
	// call-frame stack depth. 0 means the engine.DefaultConfig value.
	StackLimit int `yaml:"stack_limit,omitempty"`
	CallLimit  int `yaml:"call_limit,omitempty"`

	// TraceDatabasePath names an internal/tracestore database for trace
	// and postmortem dump output. cmd/asp does not read this field: its
	// -t/-u options take the database path directly.
	TraceDatabasePath string `yaml:"trace_database_path,omitempty"`
}

// Default returns an EngineConfig with every field at its documented
// default.
func Default() EngineConfig {
	return EngineConfig{
		DataEntryCount:      DefaultDataEntryCount,
		CycleDetectionLimit: DefaultCycleDetectionLimit,
		StringFragmentCap:   DefaultFragmentCap,
	}
}

// ApplyDefaults fills every zero-valued field of cfg with its
// documented default, leaving explicit overrides (including an
// explicit YAML `0`) untouched elsewhere.
func (cfg *EngineConfig) ApplyDefaults() {
	if cfg.DataEntryCount == 0 {
		cfg.DataEntryCount = DefaultDataEntryCount
	}
	if cfg.CycleDetectionLimit == 0 {
		cfg.CycleDetectionLimit = DefaultCycleDetectionLimit
	}
	if cfg.StringFragmentCap == 0 {
		cfg.StringFragmentCap = DefaultFragmentCap
	}
}

// Load reads an optional YAML defaults file. A missing file is not an
// error: the CLI treats config as opt-in, falling back silently to
// Default().
func Load(path string) (EngineConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
