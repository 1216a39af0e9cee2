package main

import (
	"context"
	"log/slog"
	"time"

	"sslmanager-backend/lib/browser"
	"sslmanager-backend/lib/configutil"
	"sslmanager-backend/lib/serviceutil"
	"sslmanager-backend/lib/sqliteutil"
	"sslmanager-backend/lib/telemetry"
	"sslmanager-backend/services/plesk"
	"sslmanager-backend/services/plesk/db"
)

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	tele, err := telemetry.SetupFromEnv(ctx, "sslmanagerd")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tele.Shutdown(context.Background())

	slog.Info("opening database...", "database", config.Database)
	database, err := sqliteutil.OpenDB(db.Schema, config.Database)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	defer database.Close()

	browserConfig, err := config.browserConfig()
	if err != nil {
		serviceutil.Fatal("failed to resolve browser config", err)
	}
	pool, err := browser.NewPool(ctx, browserConfig)
	if err != nil {
		serviceutil.Fatal("failed to start browser pool", err)
	}
	defer pool.Close()

	service := plesk.NewService(database, pool)

	interval := time.Duration(config.importInterval()) * time.Minute
	slog.Info("starting import loop", "interval", interval)

	importAll(ctx, service)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			importAll(ctx, service)
		case <-ctx.Done():
			slog.Info("shutting down")
			return
		}
	}
}

func importAll(ctx context.Context, service *plesk.Service) {
	hosts, err := service.ListHosts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list hosts", "err", err)
		return
	}
	for _, host := range hosts {
		stats, err := service.ImportHost(ctx, host.Host)
		if err != nil {
			slog.WarnContext(ctx, "import failed", "host", host.Host, "err", err)
			continue
		}
		slog.InfoContext(ctx, "import finished",
			"host", host.Host,
			"domains", stats.Domains,
			"imported", stats.Imported,
			"failed", stats.Failed,
		)
	}
}
