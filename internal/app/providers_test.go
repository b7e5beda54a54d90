package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"reel-digest/internal/app/repository/memory"
	"reel-digest/internal/config"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	base := map[string]string{
		"OPENAI_API_KEY": "sk-1234567890abcdef1234567890abcdef",
		"NOTIFIER":       "log",
		"STORE_DRIVER":   "memory",
	}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.FromEnv(func(key string) string { return base[key] })
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestInitializeApp(t *testing.T) {
	cfg := testConfig(t, nil)

	app, cleanup, err := InitializeApp(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &memory.Store{}, app.Store)
	require.NotNil(t, app.Orchestrator)
	require.NotNil(t, app.Runner)
	require.NotNil(t, app.Server)

	w := httptest.NewRecorder()
	app.Server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	store, err := OpenStore(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "nested", "records.db")})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenStore(ctx, config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)

	_, err = OpenStore(ctx, config.StoreConfig{Driver: "cassandra"})
	assert.Error(t, err)
}

func TestOptionalProviders(t *testing.T) {
	cfg := testConfig(t, nil)

	archiver, err := provideArchiver(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, archiver)

	cfg.LLM.OpenAIKey = ""
	transcriber, err := provideTranscriber(cfg)
	require.NoError(t, err)
	assert.Nil(t, transcriber)
}

func TestProvideNotifier(t *testing.T) {
	cfg := testConfig(t, nil)
	logger := zap.NewNop()

	n, cleanup, err := provideNotifier(cfg, logger)
	require.NoError(t, err)
	cleanup()
	assert.NotNil(t, n)

	cfg.Notifier = "telegram"
	cfg.Telegram.Token = "123:abc"
	n, cleanup, err = provideNotifier(cfg, logger)
	require.NoError(t, err)
	cleanup()
	assert.NotNil(t, n)

	cfg.Notifier = "pigeon"
	_, _, err = provideNotifier(cfg, logger)
	assert.Error(t, err)
}

func TestProvideCompleter(t *testing.T) {
	cfg := testConfig(t, nil)
	c, err := provideCompleter(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, c)

	cfg.LLM.Provider = "llama"
	_, err = provideCompleter(context.Background(), cfg)
	assert.Error(t, err)
}
