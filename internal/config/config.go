// Package config loads runtime tuning from a stride.toml manifest.
// Every knob is optional: sections or keys absent from the file keep
// their built-in defaults, so a manifest only states what it changes.
package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"fortio.org/safecast"

	"stride/internal/vm"
)

// Config mirrors the stride.toml layout.
type Config struct {
	Heap HeapConfig `toml:"heap"`
	GC   GCConfig   `toml:"gc"`
	Coro CoroConfig `toml:"coro"`
}

// HeapConfig is the [heap] section.
type HeapConfig struct {
	Capacity int64 `toml:"capacity"`
}

// GCConfig is the [gc] section.
type GCConfig struct {
	CycleInterval  int64 `toml:"cycle_interval"`
	DirtyLowWater  int64 `toml:"dirty_low_water"`
	DirtyHighWater int64 `toml:"dirty_high_water"`
	FrameBudgetUs  int64 `toml:"frame_budget_us"`
}

// CoroConfig is the [coro] section.
type CoroConfig struct {
	Capacity  int64 `toml:"capacity"`
	Registers int64 `toml:"registers"`
}

var (
	// ErrWatermarkOrder indicates dirty_low_water >= dirty_high_water.
	ErrWatermarkOrder = errors.New("[gc].dirty_low_water must be below [gc].dirty_high_water")
)

// Default returns the configuration every unset knob falls back to.
// The numbers match the runtime's own Options defaults.
func Default() Config {
	return Config{
		Heap: HeapConfig{Capacity: 4096},
		GC: GCConfig{
			CycleInterval:  1000,
			DirtyLowWater:  64,
			DirtyHighWater: 512,
			FrameBudgetUs:  0,
		},
		Coro: CoroConfig{Capacity: 256, Registers: 256},
	}
}

// Load parses a stride.toml. Keys the file does not define keep their
// defaults; defined keys are validated.
func Load(path string) (Config, error) {
	cfg := Default()
	var file Config
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	if meta.IsDefined("heap", "capacity") {
		cfg.Heap.Capacity = file.Heap.Capacity
	}
	if meta.IsDefined("gc", "cycle_interval") {
		cfg.GC.CycleInterval = file.GC.CycleInterval
	}
	if meta.IsDefined("gc", "dirty_low_water") {
		cfg.GC.DirtyLowWater = file.GC.DirtyLowWater
	}
	if meta.IsDefined("gc", "dirty_high_water") {
		cfg.GC.DirtyHighWater = file.GC.DirtyHighWater
	}
	if meta.IsDefined("gc", "frame_budget_us") {
		cfg.GC.FrameBudgetUs = file.GC.FrameBudgetUs
	}
	if meta.IsDefined("coro", "capacity") {
		cfg.Coro.Capacity = file.Coro.Capacity
	}
	if meta.IsDefined("coro", "registers") {
		cfg.Coro.Registers = file.Coro.Registers
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the runtime cannot honor.
func (c Config) Validate() error {
	if c.Heap.Capacity <= 0 {
		return fmt.Errorf("[heap].capacity must be positive, got %d", c.Heap.Capacity)
	}
	if c.GC.CycleInterval <= 0 {
		return fmt.Errorf("[gc].cycle_interval must be positive, got %d", c.GC.CycleInterval)
	}
	if c.GC.DirtyLowWater <= 0 || c.GC.DirtyHighWater <= 0 {
		return fmt.Errorf("[gc] watermarks must be positive, got low=%d high=%d",
			c.GC.DirtyLowWater, c.GC.DirtyHighWater)
	}
	if c.GC.DirtyLowWater >= c.GC.DirtyHighWater {
		return ErrWatermarkOrder
	}
	if c.GC.FrameBudgetUs < 0 {
		return fmt.Errorf("[gc].frame_budget_us must not be negative, got %d", c.GC.FrameBudgetUs)
	}
	if c.Coro.Capacity <= 0 {
		return fmt.Errorf("[coro].capacity must be positive, got %d", c.Coro.Capacity)
	}
	if c.Coro.Registers <= 0 {
		return fmt.Errorf("[coro].registers must be positive, got %d", c.Coro.Registers)
	}
	return nil
}

// Options converts the configuration into runtime context options.
func (c Config) Options() (vm.Options, error) {
	heapCap, err := safecast.Conv[int](c.Heap.Capacity)
	if err != nil {
		return vm.Options{}, fmt.Errorf("[heap].capacity overflow: %w", err)
	}
	coroCap, err := safecast.Conv[int](c.Coro.Capacity)
	if err != nil {
		return vm.Options{}, fmt.Errorf("[coro].capacity overflow: %w", err)
	}
	coroRegs, err := safecast.Conv[int](c.Coro.Registers)
	if err != nil {
		return vm.Options{}, fmt.Errorf("[coro].registers overflow: %w", err)
	}
	lowWater, err := safecast.Conv[int](c.GC.DirtyLowWater)
	if err != nil {
		return vm.Options{}, fmt.Errorf("[gc].dirty_low_water overflow: %w", err)
	}
	highWater, err := safecast.Conv[int](c.GC.DirtyHighWater)
	if err != nil {
		return vm.Options{}, fmt.Errorf("[gc].dirty_high_water overflow: %w", err)
	}
	return vm.Options{
		HeapCapacity:    heapCap,
		CoroCapacity:    coroCap,
		CoroRegisters:   coroRegs,
		GCCycleInterval: c.GC.CycleInterval,
		DirtyLowWater:   lowWater,
		DirtyHighWater:  highWater,
	}, nil
}
