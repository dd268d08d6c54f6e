package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// AgingBucket labels a half-open range of invoice ages for report grouping.
type AgingBucket struct {
	Label   string `mapstructure:"label"`
	MinDays int    `mapstructure:"minDays"`
	MaxDays *int   `mapstructure:"maxDays"`
}

// ReceivablesConfig is org-level policy that may change without redeploy.
// Risk thresholds are deliberately not here: they are a fixed compatibility
// contract with downstream consumers and live as constants in internal/risk.
type ReceivablesConfig struct {
	AgingBuckets []AgingBucket `mapstructure:"agingBuckets"`

	// OpeningBalance is the cash position runway projections start from.
	OpeningBalance string `mapstructure:"openingBalance"`

	CollectionsTopDefault  int     `mapstructure:"collectionsTopDefault"`
	CollectionsReliability float64 `mapstructure:"collectionsReliability"`
}

func DefaultReceivablesConfig() ReceivablesConfig {
	return ReceivablesConfig{
		AgingBuckets: []AgingBucket{
			{Label: "0-30", MinDays: 0, MaxDays: intPtr(30)},
			{Label: "31-60", MinDays: 31, MaxDays: intPtr(60)},
			{Label: "60+", MinDays: 61, MaxDays: nil},
		},
		OpeningBalance:         "0",
		CollectionsTopDefault:  10,
		CollectionsReliability: 0.3,
	}
}

func intPtr(v int) *int { return &v }

func (c ReceivablesConfig) OpeningBalanceAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(c.OpeningBalance))
	if err != nil {
		return decimal.Zero
	}
	return amount
}

type ReceivablesConfigHolder struct {
	current atomic.Value // holds ReceivablesConfig
}

func NewReceivablesConfigHolder() (*ReceivablesConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("receivables")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/receivables/config") // Volume-mounted config
	v.AddConfigPath("/etc/receivables")            // System config
	v.AddConfigPath(".")                           // Current directory (dev mode)

	v.SetEnvPrefix("RECEIVABLES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultReceivablesConfig()
		v.SetDefault("receivables.agingBuckets", defaults.AgingBuckets)
		v.SetDefault("receivables.openingBalance", defaults.OpeningBalance)
		v.SetDefault("receivables.collectionsTopDefault", defaults.CollectionsTopDefault)
		v.SetDefault("receivables.collectionsReliability", defaults.CollectionsReliability)
	}

	var cfg ReceivablesConfig
	if err := v.UnmarshalKey("receivables", &cfg); err != nil {
		return nil, err
	}
	if err := validateReceivablesConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ReceivablesConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ReceivablesConfig
		if err := v.UnmarshalKey("receivables", &updated); err != nil {
			log.Printf("[receivables-config] reload failed: %v", err)
			return
		}
		if err := validateReceivablesConfig(updated); err != nil {
			log.Printf("[receivables-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[receivables-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// StaticReceivablesConfig pins a holder to a fixed policy, bypassing the
// file watcher. Used by tests and one-shot tooling.
func StaticReceivablesConfig(cfg ReceivablesConfig) *ReceivablesConfigHolder {
	holder := &ReceivablesConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *ReceivablesConfigHolder) Get() ReceivablesConfig {
	return h.current.Load().(ReceivablesConfig)
}

func validateReceivablesConfig(cfg ReceivablesConfig) error {
	if len(cfg.AgingBuckets) == 0 {
		return errors.New("receivables.agingBuckets cannot be empty")
	}
	if cfg.CollectionsTopDefault <= 0 {
		return errors.New("receivables.collectionsTopDefault must be positive")
	}
	if cfg.CollectionsReliability < 0 || cfg.CollectionsReliability > 1 {
		return errors.New("receivables.collectionsReliability must be within [0,1]")
	}
	if _, err := decimal.NewFromString(strings.TrimSpace(cfg.OpeningBalance)); err != nil {
		return errors.New("receivables.openingBalance must be a decimal string")
	}
	return nil
}
