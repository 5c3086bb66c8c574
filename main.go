package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"aurumbot/config"
	"aurumbot/internal/adapters/console"
	"aurumbot/internal/adapters/gateway"
	"aurumbot/internal/adapters/marketdata"
	"aurumbot/internal/adapters/newsfeed"
	"aurumbot/internal/adapters/onnxmodel"
	"aurumbot/internal/adapters/sqlite"
	"aurumbot/internal/adapters/zaplog"
	"aurumbot/internal/engine"
	"aurumbot/internal/events"
	"aurumbot/internal/executor"
	"aurumbot/internal/ports"
	"aurumbot/internal/position"
	"aurumbot/internal/risk"
	"aurumbot/internal/settings"
	"aurumbot/internal/strategy"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := zaplog.New(zaplog.Config{
		Level:      cfg.LogLevel,
		Output:     cfg.LogOutput,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	appLogger.Info(ctx, "logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()

	// 4. Initialize Venue Gateway
	venue, err := gateway.New(gateway.Config{
		BaseURL:              cfg.GatewayURL,
		WSBaseURL:            cfg.GatewayWSURL,
		APIToken:             cfg.GatewayToken,
		Timeout:              cfg.GatewayTimeout,
		Logger:               appLogger,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize venue gateway")
		log.Fatalf("FATAL: Failed to initialize venue gateway: %v", err)
	}
	if err := venue.Ping(ctx); err != nil {
		appLogger.Error(ctx, err, "FATAL: Venue gateway unreachable")
		log.Fatalf("FATAL: Venue gateway unreachable: %v", err)
	}

	// 5. Initialize Market Data Service
	market := marketdata.New(venue, cfg.Symbol, appLogger)
	if err := market.Start(ctx); err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to start market data service")
		log.Fatalf("FATAL: Failed to start market data service: %v", err)
	}
	defer market.Stop()

	// 6. Initialize Classifier. A missing model file only disables trend
	// following; the bot still runs the other modes.
	classifier, err := onnxmodel.New(ctx, cfg.ModelPath, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize classifier")
		log.Fatalf("FATAL: Failed to initialize classifier: %v", err)
	}
	defer classifier.Close()

	// 7. Initialize News Calendar and Settings Store
	news := newsfeed.NewSimulated(appLogger)
	store := settings.NewStore(ctx, cfg.SettingsPath, appLogger)

	// 8. Initialize Execution and Position Management
	bus := events.NewBus()
	exec := executor.New(venue, appLogger)
	positions, err := position.NewManager(position.Config{
		Venue:      venue,
		Repository: repo,
		Logger:     appLogger,
		Bus:        bus,
		Symbol:     cfg.Symbol,
		MaxRetry:   store.Get().MaxRetry,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize position manager")
		log.Fatalf("FATAL: Failed to initialize position manager: %v", err)
	}

	// 9. Initialize Strategies and Controller
	controller, err := engine.NewController(engine.Config{
		Logger:     appLogger,
		Market:     market,
		Classifier: classifier,
		News:       news,
		Settings:   store,
		Sizer:      risk.NewSizer(appLogger),
		Executor:   exec,
		Positions:  positions,
		Strategies: []ports.Strategy{
			strategy.NewTrendFollowing(classifier, appLogger),
			strategy.NewScalping(news, appLogger),
			strategy.NewSniper(nil, appLogger),
		},
		Bus:    bus,
		Symbol: cfg.Symbol,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize mode controller")
		log.Fatalf("FATAL: Failed to initialize mode controller: %v", err)
	}
	defer controller.Stop(context.Background())

	// 10. Presenter and Operator Commands
	presenter := console.New(controller, bus, console.WithHistory(repo, cfg.Symbol))
	presenter.Start(ctx)
	defer presenter.Stop()

	go func() {
		console.CommandLoop(ctx, os.Stdin, os.Stdout, controller, positions, store, classifier, cfg.ModelPath, appLogger)
		cancel()
	}()

	// 11. Wait for shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		appLogger.Info(ctx, "shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case <-ctx.Done():
	}

	controller.Stop(context.Background())
	appLogger.Info(context.Background(), "shutdown complete")
}
