package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEndpoint(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateEndpoint() error {
	base := strings.TrimSpace(c.Endpoint.BaseURL)
	if base == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/fieldsync/config.toml"
		}
		return fmt.Errorf("endpoint.base_url is required. Edit %s (create with 'fieldsync config init')", defaultPath)
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("endpoint.base_url %q is not a valid URL", base)
	}
	if c.Endpoint.RequestTimeout <= 0 {
		return errors.New("endpoint.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateSync() error {
	for name, value := range map[string]int{
		"sync.interval":       c.Sync.Interval,
		"sync.probe_interval": c.Sync.ProbeInterval,
		"sync.probe_timeout":  c.Sync.ProbeTimeout,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Sync.ProbeTimeout > c.Sync.ProbeInterval {
		return errors.New("sync.probe_timeout must not exceed sync.probe_interval")
	}
	return nil
}
