package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedSnapshot optionally pre-populates the market snapshot store for a pair,
// so paper runs produce ticks without a live feed attached.
type SeedSnapshot struct {
	Price        float64   `yaml:"price"`
	OpenInterest float64   `yaml:"open_interest"`
	Features     []float64 `yaml:"features"`
	FeatureNames []string  `yaml:"feature_names"`
}

// PairConfig binds one (account, instrument) tick sequence to a decision
// worker endpoint.
type PairConfig struct {
	AccountID  string        `yaml:"account_id"`
	Instrument string        `yaml:"instrument"`
	ModelID    string        `yaml:"model_id"`
	Endpoint   string        `yaml:"endpoint"`
	Seed       *SeedSnapshot `yaml:"seed,omitempty"`
}

// Config is the trader-side configuration surface, loaded once at startup.
type Config struct {
	TickSeconds            int     `yaml:"tick_seconds"`
	DecisionTimeoutSeconds int     `yaml:"decision_timeout_seconds"`
	MinOrderDelta          float64 `yaml:"min_order_delta"`
	MetricsAddr            string  `yaml:"metrics_addr"`
	AuditPath              string  `yaml:"audit_path"`
	Paper                  struct {
		Equity      float64 `yaml:"equity"`
		MinNotional float64 `yaml:"min_notional"`
	} `yaml:"paper"`
	Pairs []PairConfig `yaml:"pairs"`
}

func (c *Config) Validate() error {
	if len(c.Pairs) == 0 {
		return errors.New("pairs cannot be empty")
	}
	seen := map[string]bool{}
	for i, p := range c.Pairs {
		if p.AccountID == "" || p.Instrument == "" {
			return fmt.Errorf("pairs[%d]: account_id and instrument are required", i)
		}
		if p.ModelID == "" {
			return fmt.Errorf("pairs[%d]: model_id is required", i)
		}
		if p.Endpoint == "" {
			return fmt.Errorf("pairs[%d]: endpoint is required", i)
		}
		key := p.AccountID + "/" + p.Instrument
		if seen[key] {
			return fmt.Errorf("duplicate pair %s: each (account_id, instrument) runs one tick sequence", key)
		}
		seen[key] = true
	}
	if c.DecisionTimeoutSeconds <= 0 {
		return fmt.Errorf("decision_timeout_seconds must be positive, got %d", c.DecisionTimeoutSeconds)
	}
	if c.TickSeconds < c.DecisionTimeoutSeconds {
		return fmt.Errorf("tick_seconds (%d) must be >= decision_timeout_seconds (%d)", c.TickSeconds, c.DecisionTimeoutSeconds)
	}
	if c.MinOrderDelta < 0 || c.MinOrderDelta > 1 {
		return fmt.Errorf("min_order_delta must be within [0,1], got %v", c.MinOrderDelta)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// Zero is a valid min_order_delta (rebalance on any delta), so absence is
	// detected separately from the value.
	var probe struct {
		MinOrderDelta *float64 `yaml:"min_order_delta"`
	}
	if err := yaml.Unmarshal(b, &probe); err != nil {
		return nil, err
	}

	if c.TickSeconds == 0 {
		c.TickSeconds = 60
	}
	if c.DecisionTimeoutSeconds == 0 {
		c.DecisionTimeoutSeconds = 30
	}
	if probe.MinOrderDelta == nil {
		c.MinOrderDelta = 0.01
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
	if c.AuditPath == "" {
		c.AuditPath = "decisions.db"
	}
	if c.Paper.Equity == 0 {
		c.Paper.Equity = 10000
	}
	if c.Paper.MinNotional == 0 {
		c.Paper.MinNotional = 6
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
