// Package app wires configuration, storage, clients, and services together.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/interfaces"
	"github.com/foliolabs/folio/internal/oracle"
	"github.com/foliolabs/folio/internal/services/market"
	"github.com/foliolabs/folio/internal/services/portfolio"
	"github.com/foliolabs/folio/internal/storage/surrealdb"
)

// App holds all initialized services and clients shared by the server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	OracleClient     interfaces.OracleClient
	MarketService    interfaces.MarketService
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time

	scheduler       *scheduler
	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, the oracle client, and services.
// A missing oracle API key is a hard configuration error here: the whole
// application is refused rather than starting with data fetching disabled.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load configuration - check provided path, FOLIO_CONFIG, then binary dir
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx := context.Background()
	oracleClient, err := oracle.NewClient(ctx, config.Oracle.APIKey,
		oracle.WithLogger(logger),
		oracle.WithModel(config.Oracle.Model),
		oracle.WithTemperature(config.Oracle.Temperature),
		oracle.WithRateLimit(config.Oracle.RateLimit),
	)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize oracle client: %w", err)
	}

	marketService := market.NewService(oracleClient, logger)
	portfolioService := portfolio.NewService(storageManager, marketService, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		OracleClient:     oracleClient,
		MarketService:    marketService,
		PortfolioService: portfolioService,
		StartupTime:      startupStart,
		scheduler:        newScheduler(portfolioService, logger),
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// StartScheduler launches the background price sync loop.
func (a *App) StartScheduler() {
	if a.scheduler == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	go a.scheduler.run(ctx)

	go func() {
		if err := a.PortfolioService.WarmCaches(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Cache warm-up failed")
		}
	}()
}

// MarkPortfolioActive records that a user is viewing their portfolio. The
// price sync loop only refreshes active users, and the first view of a
// session kicks off the one-time staleness sweep.
func (a *App) MarkPortfolioActive(userID string) {
	if a.scheduler == nil {
		return
	}
	a.scheduler.markActive(userID)
	a.scheduler.ensureSweep(userID)
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.OracleClient != nil {
		a.OracleClient.Close()
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
