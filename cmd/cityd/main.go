// Command cityd runs the CityForge simulation server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/cityforge/internal/api"
	"github.com/talgya/cityforge/internal/catalog"
	"github.com/talgya/cityforge/internal/config"
	"github.com/talgya/cityforge/internal/engine"
	"github.com/talgya/cityforge/internal/grid"
	"github.com/talgya/cityforge/internal/llm"
	"github.com/talgya/cityforge/internal/mayor"
	"github.com/talgya/cityforge/internal/persistence"
	"github.com/talgya/cityforge/internal/sim"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("CityForge — city simulation server")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Generate City ─────────────────────────────────────────
	var city *sim.City
	var startTick uint64

	g, err := db.LoadGrid()
	switch {
	case err == nil:
		stats, loadErr := db.LoadStats()
		if loadErr != nil {
			slog.Error("failed to load stats", "error", loadErr)
			os.Exit(1)
		}
		goal, loadErr := db.LoadGoal()
		if loadErr != nil {
			slog.Error("failed to load goal", "error", loadErr)
			os.Exit(1)
		}
		startTick, _ = db.LastTick()

		city = sim.NewCity(g, cfg.Seed)
		city.Stats = stats
		city.SetGoal(goal)

		slog.Info("city restored",
			"tick", startTick,
			"population", stats.Demographics.Total(),
			"money", stats.Money,
			"sim_date", engine.SimDate(startTick),
		)

	case errors.Is(err, persistence.ErrNoSave):
		slog.Info("no saved city found, generating terrain...",
			"width", cfg.GridWidth, "height", cfg.GridHeight, "seed", cfg.Seed)

		genCfg := grid.DefaultGenConfig()
		genCfg.Width = cfg.GridWidth
		genCfg.Height = cfg.GridHeight
		genCfg.Seed = cfg.Seed
		g = grid.Generate(genCfg)

		city = sim.NewCity(g, cfg.Seed)

		water := g.Count(catalog.Water)
		slog.Info("terrain generated", "tiles", g.W*g.H, "water", water, "land", g.W*g.H-water)

	default:
		slog.Error("failed to load grid", "error", err)
		os.Exit(1)
	}

	city.Tuning = cfg.Tuning

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.SetTick(startTick)
	eng.Interval = cfg.TickInterval

	// ── LLM Client ────────────────────────────────────────────────────
	llmClient := llm.NewClient(cfg.AnthropicKey)
	if llmClient != nil {
		slog.Info("LLM client enabled (Haiku)")
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set — mayor decisions and news will use fallbacks")
	}

	// ── Mayor ─────────────────────────────────────────────────────────
	m := mayor.New(city, llmClient)
	m.Interval = cfg.MayorInterval
	m.CurrentTick = func() uint64 { return eng.Tick() }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("CITYFORGE_ADMIN_KEY not set — admin endpoints will be disabled")
	}

	hub := api.NewHub()
	go hub.Run()

	apiServer := &api.Server{
		City:     city,
		Eng:      eng,
		LLM:      llmClient,
		DB:       db,
		Hub:      hub,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	// ── Tick wiring ───────────────────────────────────────────────────
	eng.OnTick = func(tick uint64) {
		city.Step(tick)
		apiServer.BroadcastTick()
	}
	eng.OnMonth = func(tick uint64) {
		if err := db.SaveCityState(city, tick); err != nil {
			slog.Error("autosave failed", "error", err)
		}
		if err := db.SaveEvents(city.RecentEvents(engine.TicksPerMonth)); err != nil {
			slog.Error("event save failed", "error", err)
		}
	}

	// Initial save so a fresh city survives an early crash.
	if startTick == 0 {
		if err := db.SaveCityState(city, 0); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
		eng.Stop()
	}()

	slog.Info("city ready",
		"grid", cfg.GridWidth*cfg.GridHeight,
		"money", city.Stats.Money,
		"api_port", cfg.Port,
	)
	if startTick > 0 {
		slog.Info("resuming", "tick", startTick, "sim_date", engine.SimDate(startTick))
	}

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveCityState(city, eng.Tick()); err != nil {
		slog.Error("final save failed", "error", err)
	}
	slog.Info("simulation stopped, city saved")
}
