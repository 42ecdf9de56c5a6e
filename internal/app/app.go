package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/azyu/ploomer/internal/commit"
	"github.com/azyu/ploomer/internal/generation"
	"github.com/azyu/ploomer/internal/library"
	"github.com/azyu/ploomer/internal/llm"
	"github.com/azyu/ploomer/internal/llm/adapters"
	"github.com/azyu/ploomer/internal/storage"
	"github.com/azyu/ploomer/internal/token"
	"github.com/azyu/ploomer/pkg/types"
)

// App represents the main application instance.
type App struct {
	Config  *ConfigManager
	Global  *types.GlobalConfig
	Logger  *zap.Logger
	KV      storage.KV
	Library *library.Store
	Auth    *Auth

	provider     llm.Provider
	providerName string
	counter      token.MessageCounter
}

type options struct {
	config   *ConfigManager
	backend  string
	logger   *zap.Logger
	provider llm.Provider
	counter  token.MessageCounter
}

// Option configures New.
type Option func(*options)

// WithConfigManager replaces the XDG config location.
func WithConfigManager(cm *ConfigManager) Option {
	return func(o *options) { o.config = cm }
}

// WithBackend overrides the configured storage backend.
func WithBackend(backend string) Option {
	return func(o *options) { o.backend = backend }
}

// WithLogger replaces the logger built from the config.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithProvider replaces the configured completion service.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithTokenCounter replaces the tokenizer used for the history budget.
func WithTokenCounter(c token.MessageCounter) Option {
	return func(o *options) { o.counter = c }
}

// New loads the configuration, opens storage and loads the story library.
func New(ctx context.Context, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.config == nil {
		cm, err := NewConfigManager()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize config manager: %w", err)
		}
		o.config = cm
	}

	global, err := o.config.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}

	logger := o.logger
	if logger == nil {
		if logger, err = NewLogger(global.Logging); err != nil {
			return nil, err
		}
	}

	backend := global.Storage.Backend
	if o.backend != "" {
		backend = o.backend
	}
	if backend != storage.BackendMemory {
		if err := os.MkdirAll(global.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	kv, err := storage.Open(backend, global.DataDir, storage.WithLogger(logger.Named("storage")))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	policy := library.DefaultPolicy()
	policy.UserID = global.Generation.UserID
	store := library.NewStore(kv, library.WithLogger(logger.Named("library")), library.WithPolicy(policy))

	source, err := store.Load(ctx)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to load stories: %w", err)
	}
	logger.Debug("library loaded", zap.Stringer("source", source), zap.String("backend", backend))

	return &App{
		Config:       o.config,
		Global:       global,
		Logger:       logger,
		KV:           kv,
		Library:      store,
		Auth:         NewAuth(kv, global.Generation.UserID),
		provider:     o.provider,
		providerName: global.Defaults.Provider,
		counter:      o.counter,
	}, nil
}

// UseProvider selects a provider by name for subsequent sessions.
func (a *App) UseProvider(name string) {
	if name == "" || name == a.providerName {
		return
	}
	if a.provider != nil {
		a.provider.Close()
		a.provider = nil
	}
	a.providerName = name
}

// Provider returns the completion service, building it on first use.
func (a *App) Provider(ctx context.Context) (llm.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}

	cfg, err := a.Config.GetProviderConfig(a.providerName)
	if err != nil && !(errors.Is(err, ErrProviderMissing) && a.providerName == adapters.ProviderToolkit) {
		return nil, err
	}
	p, err := adapters.New(ctx, a.providerName, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", a.providerName, err)
	}
	a.provider = p
	return p, nil
}

// NewSession starts a generation session for params using the configured
// provider, timeouts and history budget.
func (a *App) NewSession(ctx context.Context, params types.CreationParameters) (*generation.Session, error) {
	p, err := a.Provider(ctx)
	if err != nil {
		return nil, err
	}

	gen := a.Global.Generation
	return generation.NewSession(ctx, p, params,
		generation.WithLogger(a.Logger.Named("generation")),
		generation.WithRequestTimeout(gen.RequestTimeout),
		generation.WithHistoryBudget(a.counterFor(p), gen.HistoryTokenBudget),
	)
}

// counterFor picks the tokenizer closest to the provider's model. tiktoken
// fetches its vocabulary on first use, so offline runs fall back to the
// estimator.
func (a *App) counterFor(p llm.Provider) token.MessageCounter {
	if a.counter != nil {
		return a.counter
	}
	counter, err := token.NewCounter(p.Capabilities().TokenizerType)
	if err != nil {
		a.Logger.Debug("tokenizer unavailable, estimating tokens", zap.Error(err))
		return token.Estimator{}
	}
	a.counter = counter
	return counter
}

// Resolver commits drafts into the library.
func (a *App) Resolver() *commit.Resolver {
	return commit.NewResolver(a.Library, commit.WithLogger(a.Logger.Named("commit")))
}

// Close releases the provider and storage.
func (a *App) Close() error {
	var errs []error
	if a.provider != nil {
		errs = append(errs, a.provider.Close())
	}
	errs = append(errs, a.KV.Close())
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
