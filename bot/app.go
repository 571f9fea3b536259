// Package bot wires the OTP domain, persistence, and session handlers into
// a runnable Telegram application.
package bot

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/otpbot/bot/handlers"
	"github.com/m3rciful/otpbot/bot/otp"
	"github.com/m3rciful/otpbot/bot/storage"
	corecmd "github.com/m3rciful/otpbot/core/cmd"
	coreconfig "github.com/m3rciful/otpbot/core/config"
	"github.com/m3rciful/otpbot/core/database"
	"github.com/m3rciful/otpbot/core/logger"
	tg "github.com/m3rciful/otpbot/core/telegram"
	"github.com/m3rciful/otpbot/core/telegram/router"
	"log/slog"
)

// Config adapts the core configuration to the runner's carrier interface.
type Config struct {
	core *coreconfig.Config
}

// CoreConfig returns the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return c.core }

// LoadConfig reads and validates configuration from path.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return &Config{core: cfg}, nil
}

// App is the bootstrapped application.
type App struct {
	cfg     *coreconfig.Config
	catalog *otp.Catalog
	store   *otp.Store
	db      *sqlx.DB
}

// Bootstrap initializes logging, the snapshot backend, and the OTP store.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := carrier.CoreConfig()
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("bot: logger init: %w", err)
	}

	app := &App{
		cfg:     cfg,
		catalog: otp.NewCatalog(cfg.Services),
	}

	snap, err := app.buildSnapshotter()
	if err != nil {
		return nil, err
	}
	app.store = otp.NewStore(app.catalog, snap)

	logger.L.With("component", "app").Info("bootstrap complete",
		slog.String("event", "bootstrap"),
		slog.String("driver", cfg.Storage.Driver),
		slog.Int("services", app.catalog.Len()),
	)
	return app, nil
}

func (a *App) buildSnapshotter() (otp.Snapshotter, error) {
	switch a.cfg.Storage.Driver {
	case coreconfig.StoragePostgres:
		if err := database.RunMigrations(a.cfg.Database); err != nil {
			return nil, fmt.Errorf("bot: migrations: %w", err)
		}
		db, err := database.Connect(a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bot: database: %w", err)
		}
		a.db = db
		return storage.NewPostgresStore(db), nil
	default:
		return storage.NewFileStore(a.cfg.Storage.Path), nil
	}
}

// TelegramRunOptions assembles the registry, routes, and middleware chain.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	handlers.New(a.store, a.catalog).Register(reg)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{})...)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			a.store.Close()
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}, nil
}
