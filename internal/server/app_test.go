package server

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = repomanager.MemoryDSN
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.MetricsAddr = "127.0.0.1:0"
	return c
}

func runWithTimeout(t *testing.T, ctx context.Context, app *App) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestNewApp_GeneratesSecret(t *testing.T) {
	var logs bytes.Buffer
	c := testConfig()

	app, err := NewApp(context.Background(), c, WithLogOutput(&logs))
	require.NoError(t, err)
	defer app.store.Close()

	assert.Len(t, c.SecretKey, 64)
	assert.Contains(t, logs.String(), "No secret key configured")
}

func TestNewApp_KeepsConfiguredSecret(t *testing.T) {
	var logs bytes.Buffer
	c := testConfig()
	c.SecretKey = "configured"

	app, err := NewApp(context.Background(), c, WithLogOutput(&logs))
	require.NoError(t, err)
	defer app.store.Close()

	assert.Equal(t, "configured", c.SecretKey)
	assert.NotContains(t, logs.String(), "No secret key configured")
}

func TestNewApp_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }, "logger init error"},
		{"bad instance", func(c *config.Config) { c.InstanceID = 4096 }, "id generator init error"},
		{"empty dsn", func(c *config.Config) { c.DatabaseDSN = "" }, "db init error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig()
			tt.mutate(c)
			_, err := NewApp(context.Background(), c, WithLogOutput(io.Discard))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	var logs bytes.Buffer
	app, err := NewApp(context.Background(), testConfig(), WithLogOutput(&logs))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	runWithTimeout(t, ctx, app)
	assert.Contains(t, logs.String(), "App stopped")
}

func TestApp_RunStopsWhenServerFails(t *testing.T) {
	var logs bytes.Buffer
	c := testConfig()
	c.EndpointAddrGRPC = "256.0.0.1:bad"
	c.MetricsAddr = ""

	app, err := NewApp(context.Background(), c, WithLogOutput(&logs))
	require.NoError(t, err)

	runWithTimeout(t, context.Background(), app)
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
}
