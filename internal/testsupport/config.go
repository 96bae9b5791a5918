package testsupport

import (
	"path/filepath"
	"testing"

	"fieldsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Endpoint.BaseURL = "http://127.0.0.1:0"
	cfg.Sync.NetlinkEvents = false

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithEndpoint points the test config at the given base URL, usually an
// httptest server.
func WithEndpoint(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Endpoint.BaseURL = baseURL
	}
}
