package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReceivablesConfigIsValid(t *testing.T) {
	cfg := DefaultReceivablesConfig()

	require.NoError(t, validateReceivablesConfig(cfg))
	assert.Len(t, cfg.AgingBuckets, 3)
	assert.Equal(t, 10, cfg.CollectionsTopDefault)
	assert.InDelta(t, 0.3, cfg.CollectionsReliability, 1e-9)
	assert.True(t, cfg.OpeningBalanceAmount().IsZero())
}

func TestOpeningBalanceAmount(t *testing.T) {
	cfg := DefaultReceivablesConfig()

	cfg.OpeningBalance = " 1250.75 "
	assert.Equal(t, "1250.75", cfg.OpeningBalanceAmount().StringFixed(2))

	// Unparseable balances fall back to zero rather than poisoning
	// every runway projection.
	cfg.OpeningBalance = "not-a-number"
	assert.True(t, cfg.OpeningBalanceAmount().IsZero())
}

func TestStaticReceivablesConfig(t *testing.T) {
	cfg := DefaultReceivablesConfig()
	cfg.CollectionsTopDefault = 3

	holder := StaticReceivablesConfig(cfg)
	require.NotNil(t, holder)
	assert.Equal(t, 3, holder.Get().CollectionsTopDefault)
}

func TestValidateReceivablesConfigRejectsBadPolicy(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ReceivablesConfig)
	}{
		{"empty buckets", func(c *ReceivablesConfig) { c.AgingBuckets = nil }},
		{"zero top default", func(c *ReceivablesConfig) { c.CollectionsTopDefault = 0 }},
		{"reliability above one", func(c *ReceivablesConfig) { c.CollectionsReliability = 1.5 }},
		{"reliability below zero", func(c *ReceivablesConfig) { c.CollectionsReliability = -0.1 }},
		{"garbage opening balance", func(c *ReceivablesConfig) { c.OpeningBalance = "abc" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultReceivablesConfig()
			tc.mutate(&cfg)
			assert.Error(t, validateReceivablesConfig(cfg))
		})
	}
}
