package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.QuoteMedia.BaseURL != "https://app.quotemedia.com" {
		t.Fatalf("unexpected base url %q", c.QuoteMedia.BaseURL)
	}
	if c.Analysis.MinPercent != 80 || c.Analysis.MaxPercent != 200 {
		t.Fatalf("unexpected percent defaults %v/%v", c.Analysis.MinPercent, c.Analysis.MaxPercent)
	}
	if c.Analysis.MinBrokerPercent != 10.0 {
		t.Fatalf("unexpected broker percent default %v", c.Analysis.MinBrokerPercent)
	}
	if c.QuoteMedia.SessionTTL.Minutes() != 25 {
		t.Fatalf("unexpected session ttl %v", c.QuoteMedia.SessionTTL)
	}
}

func TestValidateRejectsInvertedPercentBand(t *testing.T) {
	path := writeConfig(t, "environment: test\nanalysis:\n  min_percent: 300\n  max_percent: 200\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidateKafkaRequiresBrokers(t *testing.T) {
	path := writeConfig(t, "environment: test\nkafka:\n  enabled: true\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("QM_WM_ID", "12345")
	t.Setenv("EXCHANGE_CODE", "TSX")
	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.QuoteMedia.WmID != "12345" || c.QuoteMedia.ExchangeCode != "TSX" {
		t.Fatalf("env overrides not applied: %+v", c.QuoteMedia)
	}
}
