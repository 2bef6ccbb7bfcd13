package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Scheduling.LookupInterval <= 0 {
		return fmt.Errorf("scheduling.lookup_interval must be > 0")
	}

	if cfg.Batch.MaxBatch < 1 {
		return fmt.Errorf("batch.max_batch must be >= 1, got %d", cfg.Batch.MaxBatch)
	}
	if cfg.Batch.MaxRetries < 0 {
		return fmt.Errorf("batch.max_retries must be >= 0, got %d", cfg.Batch.MaxRetries)
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if cfg.Pipeline.Concurrency < 0 {
		return fmt.Errorf("pipeline.concurrency must be >= 0 (0 means unbounded)")
	}

	if err := validateStorage("storage", cfg.Storage); err != nil {
		return err
	}

	for i, res := range cfg.Resources {
		if res.Name == "" {
			return fmt.Errorf("resources[%d].name must be set", i)
		}
		if res.BaseURL == "" {
			return fmt.Errorf("resources[%d].base_url must be set", i)
		}
		if _, err := url.Parse(res.BaseURL); err != nil {
			return fmt.Errorf("resources[%d].base_url is invalid: %w", i, err)
		}
		switch res.Schedule.Type {
		case "", "always":
		case "daily":
			if res.Schedule.IntervalDays < 1 {
				return fmt.Errorf("resources[%d].schedule.interval_days must be >= 1 for type 'daily'", i)
			}
		case "weekday":
			if len(res.Schedule.Weekdays) == 0 {
				return fmt.Errorf("resources[%d].schedule.weekdays must be non-empty for type 'weekday'", i)
			}
		default:
			return fmt.Errorf("resources[%d].schedule.type must be 'always', 'daily', or 'weekday', got %q", i, res.Schedule.Type)
		}
		if res.Storage.Proto != "" {
			if err := validateStorage(fmt.Sprintf("resources[%d].storage", i), res.Storage); err != nil {
				return err
			}
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

func validateStorage(field string, s StorageConfig) error {
	switch s.Proto {
	case "file":
		if s.Root == "" {
			return fmt.Errorf("%s.root must be set for proto 'file'", field)
		}
	case "mongo":
		if s.MongoURI == "" || s.MongoDatabase == "" || s.MongoCollection == "" {
			return fmt.Errorf("%s.mongo_uri, mongo_database, and mongo_collection must all be set for proto 'mongo'", field)
		}
	default:
		return fmt.Errorf("%s.proto must be 'file' or 'mongo', got %q", field, s.Proto)
	}
	return nil
}

// ValidateURL checks if a URL string is valid for crawling.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
