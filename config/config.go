// Package config loads and validates run configuration from YAML or JSON
// files. A Config holds everything one simulation or optimization needs
// beyond the bar data itself.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quantforge/backtest/risk"
	"github.com/quantforge/backtest/sim"
)

type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Costs     CostsConfig     `json:"costs" yaml:"costs"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Strategy  StrategyConfig  `json:"strategy" yaml:"strategy"`
	Optimizer OptimizerConfig `json:"optimizer" yaml:"optimizer"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
}

type AccountConfig struct {
	InitialEquity float64 `json:"initial_equity" yaml:"initial_equity"`
	RiskFreeRate  float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

type CostsConfig struct {
	SlippageModel   string  `json:"slippage_model" yaml:"slippage_model"`     // "bps" or "fixed"
	SlippageValue   float64 `json:"slippage_value" yaml:"slippage_value"`
	CommissionModel string  `json:"commission_model" yaml:"commission_model"` // "fixed" or "percent"
	CommissionValue float64 `json:"commission_value" yaml:"commission_value"`
}

type RiskConfig struct {
	RiskPerTrade     float64 `json:"risk_per_trade" yaml:"risk_per_trade"`
	DynamicSizing    bool    `json:"dynamic_sizing" yaml:"dynamic_sizing"`
	StopPolicy       string  `json:"stop_policy" yaml:"stop_policy"` // "fixed" or "atr"
	StopDistance     float64 `json:"stop_distance" yaml:"stop_distance"`
	TargetDistance   float64 `json:"target_distance" yaml:"target_distance"`
	ATRMultiple      float64 `json:"atr_multiple" yaml:"atr_multiple"`
	TargetMultiple   float64 `json:"target_multiple" yaml:"target_multiple"`
	TrailingEnabled  bool    `json:"trailing_enabled" yaml:"trailing_enabled"`
	TrailingMultiple float64 `json:"trailing_multiple" yaml:"trailing_multiple"`
	MaxPositionSize  float64 `json:"max_position_size" yaml:"max_position_size"`
}

type StrategyConfig struct {
	Name   string             `json:"name" yaml:"name"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// AxisConfig is one optimizer grid axis. Axes are a list, not a map, so the
// enumeration order is fixed by the file.
type AxisConfig struct {
	Name   string    `json:"name" yaml:"name"`
	Values []float64 `json:"values" yaml:"values"`
}

type OptimizerConfig struct {
	Workers        int          `json:"workers" yaml:"workers"`
	TargetMetric   string       `json:"target_metric" yaml:"target_metric"`
	TieBreakMetric string       `json:"tie_break_metric,omitempty" yaml:"tie_break_metric,omitempty"`
	Axes           []AxisConfig `json:"axes,omitempty" yaml:"axes,omitempty"`
}

type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv", "sqlite" or "postgres"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DSN        string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// LoadFromFile loads a configuration file, trying YAML first and falling
// back to JSON, then validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, YAML for .yaml/.yml and JSON
// otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Account.InitialEquity <= 0 {
		return fmt.Errorf("account.initial_equity must be positive")
	}
	switch c.Costs.SlippageModel {
	case "", string(sim.SlippageBps), string(sim.SlippageFixed):
	default:
		return fmt.Errorf("costs.slippage_model must be 'bps' or 'fixed'")
	}
	switch c.Costs.CommissionModel {
	case "", string(sim.CommissionFixed), string(sim.CommissionPercent):
	default:
		return fmt.Errorf("costs.commission_model must be 'fixed' or 'percent'")
	}
	if c.Costs.SlippageValue < 0 || c.Costs.CommissionValue < 0 {
		return fmt.Errorf("costs values must not be negative")
	}
	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade > 1 {
		return fmt.Errorf("risk.risk_per_trade must be between 0 and 1")
	}
	switch c.Risk.StopPolicy {
	case string(risk.StopFixed):
		if c.Risk.StopDistance <= 0 {
			return fmt.Errorf("risk.stop_distance must be positive for fixed stops")
		}
	case string(risk.StopATR):
		if c.Risk.ATRMultiple <= 0 {
			return fmt.Errorf("risk.atr_multiple must be positive for atr stops")
		}
	default:
		return fmt.Errorf("risk.stop_policy must be 'fixed' or 'atr'")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite type")
		}
	case "postgres":
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal dsn required for postgres type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv', 'sqlite' or 'postgres'")
	}
	for _, ax := range c.Optimizer.Axes {
		if ax.Name == "" || len(ax.Values) == 0 {
			return fmt.Errorf("optimizer axes need a name and at least one value")
		}
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialEquity: 10000,
		},
		Costs: CostsConfig{
			SlippageModel:   string(sim.SlippageBps),
			SlippageValue:   0,
			CommissionModel: string(sim.CommissionPercent),
			CommissionValue: 0,
		},
		Risk: RiskConfig{
			RiskPerTrade:     0.01,
			StopPolicy:       string(risk.StopATR),
			ATRMultiple:      2.0,
			TargetMultiple:   4.0,
			TrailingMultiple: 1.5,
		},
		Strategy: StrategyConfig{
			Name: "ema-cross",
		},
		Optimizer: OptimizerConfig{
			TargetMetric:   "total_return",
			TieBreakMetric: "max_drawdown",
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}

// SimConfig translates the account/cost sections into the engine's config.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		InitialEquity:   c.Account.InitialEquity,
		SlippageModel:   sim.SlippageModel(c.Costs.SlippageModel),
		SlippageValue:   c.Costs.SlippageValue,
		CommissionModel: sim.CommissionModel(c.Costs.CommissionModel),
		CommissionValue: c.Costs.CommissionValue,
	}
}

// RiskConfig translates the risk section into the risk manager's config.
func (c *Config) RiskConfig() risk.Config {
	return risk.Config{
		RiskPerTrade:     c.Risk.RiskPerTrade,
		DynamicSizing:    c.Risk.DynamicSizing,
		StopPolicy:       risk.StopPolicy(c.Risk.StopPolicy),
		StopDistance:     c.Risk.StopDistance,
		TargetDistance:   c.Risk.TargetDistance,
		ATRMultiple:      c.Risk.ATRMultiple,
		TargetMultiple:   c.Risk.TargetMultiple,
		TrailingEnabled:  c.Risk.TrailingEnabled,
		TrailingMultiple: c.Risk.TrailingMultiple,
		MaxPositionSize:  c.Risk.MaxPositionSize,
	}
}
