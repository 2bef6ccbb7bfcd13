package config

import "testing"

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Resources = []ResourceConfig{
		{Name: "widgets", BaseURL: "https://api.example.com/widgets"},
	}
	return cfg
}

func TestValidateAcceptsDefaultConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestValidateRejectsZeroMaxBatch(t *testing.T) {
	cfg := validConfig()
	cfg.Batch.MaxBatch = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for max_batch = 0")
	}
}

func TestValidateRejectsUnknownFetcherType(t *testing.T) {
	cfg := validConfig()
	cfg.Fetcher.Type = "carrier-pigeon"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown fetcher type")
	}
}

func TestValidateRejectsResourceMissingBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Resources[0].BaseURL = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for resource missing base_url")
	}
}

func TestValidateRejectsWeekdayScheduleWithoutWeekdays(t *testing.T) {
	cfg := validConfig()
	cfg.Resources[0].Schedule.Type = "weekday"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for weekday schedule with no weekdays configured")
	}
}

func TestValidateRejectsMongoStorageMissingFields(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Proto = "mongo"
	cfg.Storage.Root = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for mongo storage missing URI/database/collection")
	}
}

func TestValidateRejectsInvalidMetricsPort(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid metrics port")
	}
}
