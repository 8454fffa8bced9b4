package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wayfare/learnctl/internal/agent"
	"github.com/wayfare/learnctl/internal/ctxbuild"
	"github.com/wayfare/learnctl/internal/events"
	"github.com/wayfare/learnctl/internal/links"
	"github.com/wayfare/learnctl/internal/llm"
	"github.com/wayfare/learnctl/internal/mcphost"
	"github.com/wayfare/learnctl/internal/orchestrator"
	"github.com/wayfare/learnctl/internal/sessionstore"
	"github.com/wayfare/learnctl/internal/toolloop"
	transporthttp "github.com/wayfare/learnctl/internal/transport/http"
	"github.com/wayfare/learnctl/internal/vault"
)

// catalogue is the static tool catalogue passed to the Context Manager.
// It never varies within a deployed version, satisfying the KV-cache
// prefix invariant the same way kenaz's static prompt sections do.
var catalogue = []ctxbuild.CatalogueEntry{
	{Name: "priestess", Description: "classify known vs unknown concepts in the learner's query"},
	{Name: "hermit", Description: "propose a learning path through the vault"},
	{Name: "magician", Description: "draft new notes for unknown concepts"},
	{Name: "justice", Description: "write comprehension questions for the drafted notes"},
	{Name: "empress", Description: "commit accepted drafts to the vault and reindex"},
}

const staticPrefix = "You are a stage in a personal learning assistant's agent pipeline."

// components bundles everything built from a Config, shared by the HTTP
// serving mode (Run) and the stdio MCP mode (RunMCP).
type components struct {
	logger   *slog.Logger
	provider vault.Provider
	engine   *links.Engine
	orch     *orchestrator.Manager
	sessions *sessionstore.Store
	broker   *events.Broker
}

// build wires the vault, Link Engine, LLM client, Context Manager, and
// Orchestrator from cfg, logging each stage the way kenaz's Run logs its
// own initialization steps.
func build(cfg *Config) (*components, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("http_address", cfg.HTTP.Address()),
		slog.String("vault_root", cfg.Vault.Root),
		slog.String("sqlite_path", cfg.SQLite.Path))

	if err := os.MkdirAll(cfg.Vault.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create vault root: %w", err)
	}

	provider, err := vault.NewFS(cfg.Vault.Root)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}
	store := vault.NewStore(provider)

	engine := links.NewEngine(cfg.Links.DensityK)
	initial, err := scanVault(provider)
	if err != nil {
		logger.Warn("initial vault scan failed", slog.String("error", err.Error()))
	} else {
		engine.Rebuild(initial)
		logger.Info("vault indexed", slog.Int("notes", len(initial)))
	}

	sessionDB, err := sessionstore.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}

	externalizer, err := ctxbuild.NewFileExternalizer(cfg.Context.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("init context externalizer: %w", err)
	}

	tiers := ctxbuild.Tiers{
		FullThreshold:    cfg.Context.ThresholdFull,
		SummaryThreshold: cfg.Context.ThresholdSummary,
		TitleThreshold:   cfg.Context.ThresholdTitle,
		MaxFull:          cfg.Context.MaxFullNotes,
		MaxSummary:       cfg.Context.MaxSummaryNotes,
		MaxTitle:         cfg.Context.MaxTitleNotes,
		FullByteCap:      cfg.Context.FullNoteByteCap,
	}
	ctxMgr := ctxbuild.NewManager(staticPrefix, catalogue, tiers, noteSource{store: store, engine: engine}, externalizer, cfg.Context.MaxHistoryTurns)

	httpProvider := llm.NewHTTPProvider(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, &http.Client{Timeout: cfg.LLM.Timeout()})
	llmClient := llm.New(httpProvider, llm.RetryConfig{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond,
	})

	deps := agent.Deps{
		LLM:        llmClient,
		Context:    ctxMgr,
		Links:      engine,
		Vault:      store,
		Tools:      toolloop.NewRegistry(),
		MaxDepth:   cfg.ToolLoop.MaxDepth,
		MaxPathLen: agent.DefaultMaxPathLength,
	}

	broker := events.NewBroker()
	orch := orchestrator.NewManager(deps, broker, cfg.Sessions.MaxConcurrent, cfg.Sessions.TTL())
	orch.SetPersister(sessionDB)

	return &components{
		logger:   logger,
		provider: provider,
		engine:   engine,
		orch:     orch,
		sessions: sessionDB,
		broker:   broker,
	}, nil
}

func (c *components) Close() {
	c.broker.Close()
	c.sessions.Close()
}

// Run starts the HTTP host with the given options, the same shape as
// kenaz's internal.Run: parse options, build the dependency graph, then
// supervise everything with an errgroup until shutdown.
func Run(ctx context.Context, opts ...Option) error {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := a.config

	c, err := build(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	router := transporthttp.NewRouter(c.orch)
	httpServer := &http.Server{Addr: cfg.HTTP.Address(), Handler: router}

	c.logger.Info("server starting", slog.String("http_address", cfg.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watchVault(gCtx, c.provider, c.engine, c.logger)
	})

	g.Go(func() error {
		c.orch.RunGC(gCtx, time.Minute)
		return nil
	})

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			c.logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			c.logger.Info("context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			c.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		c.logger.Error("application error", slog.String("error", err.Error()))
		return err
	}
	c.logger.Info("server stopped successfully")
	return nil
}

// RunMCP serves the MCP tool host over stdio instead of the HTTP host, for
// editor/agent integrations that speak MCP directly.
func RunMCP(ctx context.Context, opts ...Option) error {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return fmt.Errorf("config is required")
	}

	c, err := build(a.config)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := mcphost.New(c.engine, c.orch, c.sessions)
	c.logger.Info("mcp host starting (stdio)")
	return srv.ServeStdio()
}

// noteSource adapts *vault.Store and *links.Engine to ctxbuild.NoteSource.
type noteSource struct {
	store  *vault.Store
	engine *links.Engine
}

func (n noteSource) ReadSummary(slug string) (title, summary, body string, ok bool) {
	note, err := n.store.Read(slug)
	if err != nil {
		return "", "", "", false
	}
	summary = note.Body
	if len(summary) > 280 {
		summary = summary[:280]
	}
	return note.Title, summary, note.Body, true
}

func (n noteSource) Outgoing(slug string) []string {
	return n.engine.Outgoing(slug)
}
