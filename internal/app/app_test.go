package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/azyu/ploomer/internal/commit"
	"github.com/azyu/ploomer/internal/generation"
	"github.com/azyu/ploomer/internal/llm"
	"github.com/azyu/ploomer/internal/storage"
	"github.com/azyu/ploomer/internal/token"
	"github.com/azyu/ploomer/pkg/types"
)

type stubProvider struct {
	reply  string
	closed bool
}

func (p *stubProvider) Chat(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Message: llm.NewAssistantMessage(p.reply)}, nil
}
func (p *stubProvider) Capabilities() llm.Capabilities { return llm.Capabilities{} }
func (p *stubProvider) Close() error {
	p.closed = true
	return nil
}

func writeConfig(t *testing.T, body string) *ConfigManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if body != "" {
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	return NewConfigManagerAt(path)
}

func TestConfigManager_Defaults(t *testing.T) {
	cm := writeConfig(t, "")

	cfg, err := cm.LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "toolkit", cfg.Defaults.Provider)
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	assert.False(t, strings.HasPrefix(cfg.DataDir, "~"), "home is expanded")
}

func TestConfigManager_Load(t *testing.T) {
	t.Setenv("PLOOMER_TEST_KEY", "sk-secret")
	cm := writeConfig(t, `
providers:
  openai:
    api_key: ${PLOOMER_TEST_KEY}
    default_model: gpt-4o
defaults:
  provider: openai
storage:
  backend: file
generation:
  request_timeout: 5s
`)

	cfg, err := cm.LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Defaults.Provider)
	assert.Equal(t, storage.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, 5*time.Second, cfg.Generation.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Generation.AutoGenerateDelay, "unset keys keep defaults")

	p, err := cm.GetProviderConfig("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", p.APIKey)

	_, err = cm.GetProviderConfig("gemini")
	assert.ErrorIs(t, err, ErrProviderMissing)
}

func TestConfigManager_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed yaml":  "storage: [",
		"unknown backend": "storage:\n  backend: postgres\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := writeConfig(t, body).LoadGlobalConfig()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfigManager_SaveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cm := NewConfigManagerAt(path)

	cfg := types.DefaultGlobalConfig()
	cfg.Defaults.Provider = "gemini"
	cfg.Providers["gemini"] = &types.ProviderConfig{APIKey: "k", DefaultModel: "gemini-2.5-flash"}
	require.NoError(t, cm.SaveGlobalConfig(cfg))

	loaded, err := NewConfigManagerAt(path).LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "gemini", loaded.Defaults.Provider)
	assert.Equal(t, "gemini-2.5-flash", loaded.Providers["gemini"].DefaultModel)
}

func TestNewLogger(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ploomer.log")
	logger, err := NewLogger(types.LoggingConfig{Level: "info", Encoding: "json", Output: out})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("visible", zap.String("k", "v"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"visible"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
	assert.NotContains(t, string(data), "hidden")

	_, err = NewLogger(types.LoggingConfig{Level: "loud", Output: out})
	assert.NoError(t, err, "unknown level falls back")
}

func newTestApp(t *testing.T, p llm.Provider) *App {
	t.Helper()
	a, err := New(context.Background(),
		WithConfigManager(writeConfig(t, "")),
		WithBackend(storage.BackendMemory),
		WithLogger(zap.NewNop()),
		WithProvider(p),
		WithTokenCounter(token.Estimator{}),
	)
	require.NoError(t, err)
	return a
}

func TestApp_CreateAndCommit(t *testing.T) {
	p := &stubProvider{reply: "A short summary."}
	a := newTestApp(t, p)
	ctx := context.Background()

	seeded := len(a.Library.Stories())
	require.NotZero(t, seeded)

	params := types.CreationParameters{
		HeroType:   types.HeroGirl,
		HeroName:   "Luna",
		StoryTitle: "Sea",
		Mode:       types.ModeCustomization,
		TemplateID: "ocean-rescue",
	}
	session, err := a.NewSession(ctx, params)
	require.NoError(t, err)
	defer session.Close()

	res := session.Generate(ctx)
	require.Equal(t, generation.StatusOK, res.Status)

	out, err := a.Resolver().Commit(ctx, params, res)
	require.NoError(t, err)
	assert.Equal(t, commit.RouteReader, out.Destination.Route)
	assert.Len(t, a.Library.Stories(), seeded+1)
	assert.Equal(t, "1", out.Story.UserID)

	require.NoError(t, a.Close())
	assert.True(t, p.closed)
}

func TestAuth(t *testing.T) {
	ctx := context.Background()
	auth := NewAuth(storage.NewMemoryKV(), "1")

	_, err := auth.Current(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = auth.Login(ctx, "", " ")
	assert.Error(t, err)

	user, err := auth.Login(ctx, "", "luna@example.com")
	require.NoError(t, err)
	assert.Equal(t, "luna", user.Name)

	got, err := auth.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	require.NoError(t, auth.Logout(ctx))
	_, err = auth.Current(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
