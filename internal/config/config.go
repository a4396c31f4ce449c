package config

// #region imports
import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #endregion

// #region config

// Config enumerates every file location and learning parameter the engine
// needs. It is passed explicitly into constructors; there are no globals and
// no ad hoc paths.
type Config struct {
	// DBPath is the SQLite database holding the model snapshot and the
	// interaction/feedback logs.
	DBPath string `yaml:"db_path"`
	// PolicyPath is where ExportPolicy writes the read-only JSON projection.
	PolicyPath string `yaml:"policy_path"`

	LearningRate float64 `yaml:"learning_rate"` // alpha, must be in (0, 1]
	Epsilon      float64 `yaml:"epsilon"`       // initial exploration rate
	EpsilonDecay float64 `yaml:"epsilon_decay"` // multiplier per DecayExploration call
	MinEpsilon   float64 `yaml:"min_epsilon"`   // exploration floor

	// LedgerCapacity bounds the in-memory recency ring of interactions
	// awaiting feedback.
	LedgerCapacity int `yaml:"ledger_capacity"`

	// SaveIntervalSeconds drives the periodic snapshot ticker in cmd/engine.
	// 0 disables periodic saves; the shutdown save always runs.
	SaveIntervalSeconds int `yaml:"save_interval_seconds"`
}

// #endregion

// #region defaults

// Default returns the standard configuration.
func Default() Config {
	return Config{
		DBPath:              "task_policy.db",
		PolicyPath:          "task_policies.json",
		LearningRate:        0.1,
		Epsilon:             0.1,
		EpsilonDecay:        0.995,
		MinEpsilon:          0.01,
		LedgerCapacity:      1000,
		SaveIntervalSeconds: 300,
	}
}

// #endregion

// #region load

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// #endregion

// #region validate

// Validate rejects out-of-range parameters before any component is
// constructed with them.
func (c Config) Validate() error {
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning rate %g outside (0, 1]", c.LearningRate)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("epsilon %g outside [0, 1]", c.Epsilon)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("epsilon decay %g outside (0, 1]", c.EpsilonDecay)
	}
	if c.MinEpsilon < 0 || c.MinEpsilon > c.Epsilon {
		return fmt.Errorf("min epsilon %g outside [0, epsilon]", c.MinEpsilon)
	}
	if c.LedgerCapacity < 1 {
		return fmt.Errorf("ledger capacity %d below 1", c.LedgerCapacity)
	}
	if c.SaveIntervalSeconds < 0 {
		return fmt.Errorf("save interval %d below 0", c.SaveIntervalSeconds)
	}
	return nil
}

// #endregion
