// Package testutil provides testing utilities shared by the connector,
// pipeline and CLI tests
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout that is
// cancelled when the test completes
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// SourceConfig returns a source config pointed at baseURL with short
// timeouts and the breaker disabled, so one failing fixture does not
// affect the next test
func SourceConfig(baseURL string) *config.BaseConfig {
	cfg := config.NewBaseConfig("opendota", "opendota")
	cfg.Timeouts.Request = 5 * time.Second
	cfg.Timeouts.Connection = 2 * time.Second
	cfg.Reliability.CircuitBreaker = false
	cfg.Observability.EnableTracing = false
	cfg.Security.Credentials = map[string]string{config.KeyBaseURL: baseURL}
	return cfg
}

// WriteFile writes content under dir and returns the path
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}
