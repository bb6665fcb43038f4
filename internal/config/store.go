package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	rerrors "github.com/ducminhle1904/position-risk-engine/internal/errors"
	"github.com/ducminhle1904/position-risk-engine/internal/logger"
)

// DefaultConfigPath is used when no path is given
const DefaultConfigPath = "risk_config.json"

// Store owns the process-wide RiskConfiguration. Readers get immutable
// snapshots; every mutation replaces the whole struct and re-persists it.
type Store struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[RiskConfiguration]
	path    string
	log     *logger.Logger
}

// Load reads the configuration at path. When the file is absent, unreadable
// or fails validation, defaults are used and written back to the same path.
func Load(path string, log *logger.Logger) (*Store, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	s := &Store{path: path, log: logger.OrNop(log).With("component", "config")}

	cfg, err := readFile(path)
	if err == nil {
		s.current.Store(cfg)
		return s, nil
	}

	if os.IsNotExist(err) {
		s.log.Warning("risk config %s not found, writing defaults", path)
	} else {
		s.log.Warning("risk config %s unusable (%v), falling back to defaults", path, err)
		s.backupCorrupt()
	}

	def := Default()
	if err := persist(path, def); err != nil {
		return nil, rerrors.NewStorageError("config", "persist defaults", err)
	}
	s.current.Store(def)
	return s, nil
}

// NewMemoryStore returns a store that is never persisted. Used by tests and
// one-shot CLI invocations.
func NewMemoryStore(cfg *RiskConfiguration) *Store {
	if cfg == nil {
		cfg = Default()
	}
	s := &Store{log: logger.NewNop()}
	s.current.Store(cfg.Clone())
	return s
}

// Path returns the backing file, empty for memory stores
func (s *Store) Path() string {
	return s.path
}

// Get returns a deep copy of the current configuration
func (s *Store) Get() *RiskConfiguration {
	return s.current.Load().Clone()
}

// Update applies fn to a copy of the current configuration, validates the
// result, persists it and only then publishes it. On any failure the stored
// configuration is left untouched.
func (s *Store) Update(fn func(cfg *RiskConfiguration)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().Clone()
	fn(next)

	if err := next.Validate(); err != nil {
		return err
	}
	if s.path != "" {
		if err := persist(s.path, next); err != nil {
			return rerrors.NewStorageError("config", "persist", err)
		}
	}
	s.current.Store(next)
	return nil
}

// SetBaseRisk replaces base, min and max risk percentages together
func (s *Store) SetBaseRisk(base, min, max float64) error {
	return s.Update(func(cfg *RiskConfiguration) {
		cfg.BaseRiskPercentage = base
		cfg.MinRiskPercentage = min
		cfg.MaxRiskPercentage = max
	})
}

func (s *Store) SetVolatilityAdjustment(v VolatilityAdjustmentConfig) error {
	return s.Update(func(cfg *RiskConfiguration) {
		cfg.VolatilityAdjustment = v
	})
}

// SetDrawdownProtection replaces levels and reductions in one step so
// readers never observe a mismatched pair.
func (s *Store) SetDrawdownProtection(enabled bool, levels, reductions []float64) error {
	return s.Update(func(cfg *RiskConfiguration) {
		cfg.DrawdownProtection = DrawdownProtectionConfig{
			Enabled:               enabled,
			DrawdownLevels:        append([]float64(nil), levels...),
			RiskReductionPercents: append([]float64(nil), reductions...),
		}
	})
}

func (s *Store) SetPositionLimits(p PositionLimitsConfig) error {
	return s.Update(func(cfg *RiskConfiguration) {
		cfg.PositionLimits = p
	})
}

func (s *Store) SetAllocationMethod(m AllocationMethod) error {
	return s.Update(func(cfg *RiskConfiguration) {
		cfg.CapitalAllocation.Method = m
	})
}

func (s *Store) SetLiquidityRequirements(l LiquidityRequirementsConfig) error {
	return s.Update(func(cfg *RiskConfiguration) {
		cfg.LiquidityRequirements = l
	})
}

// SetSmallAccountSettings replaces the small-account block; nil removes it
func (s *Store) SetSmallAccountSettings(sa *SmallAccountSettings) error {
	return s.Update(func(cfg *RiskConfiguration) {
		if sa == nil {
			cfg.SmallAccountSettings = nil
			return
		}
		tmp := &RiskConfiguration{SmallAccountSettings: sa}
		cfg.SmallAccountSettings = tmp.Clone().SmallAccountSettings
	})
}

func (s *Store) backupCorrupt() {
	if _, err := os.Stat(s.path); err != nil {
		return
	}
	backup := fmt.Sprintf("%s.corrupt_%s", s.path, time.Now().Format("20060102_150405"))
	if err := os.Rename(s.path, backup); err != nil {
		s.log.Warning("could not back up corrupt config: %v", err)
		return
	}
	s.log.Info("corrupt risk config moved to %s", backup)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// readFile decodes path on top of the defaults so absent keys keep their
// default values, then validates the result.
func readFile(path string) (*RiskConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not parse risk config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// persist writes the whole document to a temporary file and renames it over
// path so a crash never leaves a half-written configuration behind.
func persist(path string, cfg *RiskConfiguration) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal risk config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".risk-config-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary config file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temporary config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to commit config file: %w", err)
	}
	return nil
}

// Source is the read side of the configuration, satisfied by *Store
type Source interface {
	Get() *RiskConfiguration
}

// Static adapts a fixed configuration to Source
type Static struct {
	Config *RiskConfiguration
}

func (s Static) Get() *RiskConfiguration {
	if s.Config == nil {
		return Default()
	}
	return s.Config.Clone()
}
