package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"sslmanager-backend/lib/browser"
	"sslmanager-backend/lib/configutil"
	"sslmanager-backend/lib/sqliteutil"
	"sslmanager-backend/services/plesk"
	"sslmanager-backend/services/plesk/db"

	"dario.cat/mergo"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sslmanager-cli",
	Short: "sslmanager-cli manages remote panel hosts and the certificates imported from them.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "path to the daemon config file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cliConfig struct {
	Database string         `json:"database"`
	Browser  browser.Config `json:"browser"`
}

// lazyRenderer defers starting the browser until a command actually
// renders a page, so read-only commands never pay the startup cost.
type lazyRenderer struct {
	config browser.Config

	mu   sync.Mutex
	pool *browser.Pool
}

func (l *lazyRenderer) Render(ctx context.Context, url string, headers map[string]string) (string, error) {
	l.mu.Lock()
	if l.pool == nil {
		pool, err := browser.NewPool(context.Background(), l.config)
		if err != nil {
			l.mu.Unlock()
			return "", err
		}
		l.pool = pool
	}
	pool := l.pool
	l.mu.Unlock()

	return pool.Render(ctx, url, headers)
}

func (l *lazyRenderer) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pool != nil {
		l.pool.Close()
	}
}

// openService builds the service against the same database and browser
// settings the daemon uses.
func openService() (*plesk.Service, func(), error) {
	config, err := configutil.ReadConfig[cliConfig](configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	browserConfig := browser.DefaultConfig()
	err = mergo.Merge(&browserConfig, config.Browser, mergo.WithOverride)
	if err != nil {
		return nil, nil, err
	}

	database, err := sqliteutil.OpenDB(db.Schema, config.Database)
	if err != nil {
		return nil, nil, err
	}

	renderer := &lazyRenderer{config: browserConfig}
	cleanup := func() {
		renderer.close()
		database.Close()
	}
	return plesk.NewService(database, renderer), cleanup, nil
}
