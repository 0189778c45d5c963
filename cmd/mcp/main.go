package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ougirez/premiums/internal/chart/quickchart"
	"github.com/ougirez/premiums/internal/chartsig"
	"github.com/ougirez/premiums/internal/config"
	"github.com/ougirez/premiums/internal/mcpserver"
	"github.com/ougirez/premiums/internal/pkg/logger"
	"github.com/ougirez/premiums/internal/pkg/store"
	"github.com/ougirez/premiums/internal/pkg/store/xpgx"
	"github.com/ougirez/premiums/internal/service/premiums"
)

const version = "1.0.0"

// stdout carries the protocol, so everything else goes to stderr.
func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateTools(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config:\n%v\n", err)
		os.Exit(1)
	}

	cfg.Log.Output = "stderr"
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := xpgx.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal(ctx, err)
	}
	defer pool.Close()

	signer, err := chartsig.NewSigner(cfg.Charts.SigningSecret, cfg.Charts.BaseURL)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	svc := premiums.NewPremiumsService(
		store.NewStore(pool),
		quickchart.New(cfg.Charts.RendererURL, cfg.Charts.RendererTimeout),
		signer,
		cfg.Premiums.CurrentYear,
	)

	logger.Infof(ctx, "SwissHealth MCP server %s started", version)
	if err := mcpserver.NewServer(svc, version).ServeStdio(log.New(os.Stderr, "mcp: ", log.LstdFlags)); err != nil {
		logger.Fatal(ctx, err)
	}
}
