package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-course/internal/ai"
	"github.com/p-n-ai/pai-course/internal/api"
	"github.com/p-n-ai/pai-course/internal/auth"
	"github.com/p-n-ai/pai-course/internal/comprehension"
	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/events"
	"github.com/p-n-ai/pai-course/internal/platform/cache"
	"github.com/p-n-ai/pai-course/internal/platform/config"
	"github.com/p-n-ai/pai-course/internal/platform/database"
	"github.com/p-n-ai/pai-course/internal/progress"
	"github.com/p-n-ai/pai-course/internal/quiz"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := build(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: a.handler,
		// Course generation runs several completions in one request.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// app is the wired HTTP handler and the connections it holds.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build connects storage, the AI gateway and the services behind the router.
// Without a database URL everything lives in memory.
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	checks := map[string]api.Check{}

	var (
		stores storeSet
		budget ai.BudgetChecker = ai.NewInMemoryBudget(cfg.Budget.DailyTokens)
	)

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		checks["database"] = db.HealthCheck

		if cfg.Database.Migrate {
			if err := db.Migrate(ctx); err != nil {
				a.close()
				return nil, err
			}
		}
		if stores, err = postgresStores(db); err != nil {
			a.close()
			return nil, err
		}
		slog.Info("using postgres storage")
	} else {
		stores = memoryStores()
		slog.Warn("LEARN_DATABASE_URL not set, using in-memory storage")
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		checks["cache"] = c.HealthCheck
		budget = ai.NewRedisBudget(c, cfg.Budget.DailyTokens)
	}

	router := newAIRouter(cfg.AI)
	if !router.HasProvider() {
		a.close()
		return nil, ai.ErrNoProvider
	}
	completer := ai.NewMetered(router, budget)

	profiles, err := course.LoadProfiles(cfg.Generation.ProfilesPath)
	if err != nil {
		a.close()
		return nil, err
	}

	gen := course.NewGenerator(completer, profiles, course.GeneratorConfig{
		OutlineContextChars: cfg.Generation.OutlineContextChars,
		ChapterContextChars: cfg.Generation.ChapterContextChars,
		OutlineMaxTokens:    cfg.Generation.OutlineMaxTokens,
		Model:               cfg.AI.Model,
	})
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration())

	srv := api.New(api.Deps{
		Auth:      auth.NewService(stores.users, tokens, stores.events),
		Tokens:    tokens,
		Courses:   stores.courses,
		Assembler: course.NewAssembler(gen, stores.courses, stores.events, cfg.Generation.ChapterConcurrency),
		Quizzes:   quiz.NewGenerator(completer, cfg.AI.Model),
		Progress:  progress.NewService(stores.courses, stores.progress, stores.events),
		Comprehension: comprehension.NewService(completer, nil, comprehension.Config{
			MaxContextChars: cfg.Comprehension.MaxContextChars,
			AnswerMaxTokens: cfg.Comprehension.AnswerMaxTokens,
			Model:           cfg.AI.Model,
		}),
		Checks:         checks,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	a.handler = srv.Handler()
	return a, nil
}

// storeSet groups the persistence backends.
type storeSet struct {
	users    auth.UserStore
	courses  course.Store
	progress progress.Store
	events   events.Logger
}

func memoryStores() storeSet {
	return storeSet{
		users:    auth.NewMemoryStore(),
		courses:  course.NewMemoryStore(),
		progress: progress.NewMemoryStore(),
		events:   events.NewMemory(),
	}
}

func postgresStores(db *database.DB) (storeSet, error) {
	users, err := auth.NewPostgresStore(db.Pool)
	if err != nil {
		return storeSet{}, err
	}
	courses, err := course.NewPostgresStore(db.Pool)
	if err != nil {
		return storeSet{}, err
	}
	records, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		return storeSet{}, err
	}
	return storeSet{
		users:    users,
		courses:  courses,
		progress: records,
		events:   events.NewPostgres(db.Pool),
	}, nil
}

// newAIRouter registers every configured provider. Groq goes first; the rest
// are fallbacks in registration order.
func newAIRouter(cfg config.AIConfig) *ai.Router {
	router := ai.NewRouter()

	if cfg.Groq.APIKey != "" {
		router.Register("groq", ai.NewGroqProvider(cfg.Groq.APIKey))
		slog.Info("AI provider registered", "provider", "groq")
	}
	if cfg.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey))
		slog.Info("AI provider registered", "provider", "openai")
	}
	if cfg.Anthropic.APIKey != "" {
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey)
		if err != nil {
			slog.Warn("skipping anthropic provider", "error", err)
		} else {
			router.Register("anthropic", p)
			slog.Info("AI provider registered", "provider", "anthropic")
		}
	}
	if cfg.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.DeepSeek.APIKey))
		slog.Info("AI provider registered", "provider", "deepseek")
	}
	if cfg.Google.APIKey != "" {
		router.Register("google", ai.NewGoogleProvider(cfg.Google.APIKey))
		slog.Info("AI provider registered", "provider", "google")
	}
	if cfg.OpenRouter.APIKey != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey))
		slog.Info("AI provider registered", "provider", "openrouter")
	}
	if cfg.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL))
		slog.Info("AI provider registered", "provider", "ollama")
	}
	return router
}
