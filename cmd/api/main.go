package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ougirez/premiums/internal/api"
	"github.com/ougirez/premiums/internal/api/controller"
	"github.com/ougirez/premiums/internal/chart/quickchart"
	"github.com/ougirez/premiums/internal/chartsig"
	"github.com/ougirez/premiums/internal/config"
	"github.com/ougirez/premiums/internal/pkg/logger"
	"github.com/ougirez/premiums/internal/pkg/store"
	"github.com/ougirez/premiums/internal/pkg/store/xpgx"
	"github.com/ougirez/premiums/internal/service/importer"
	"github.com/ougirez/premiums/internal/service/leads"
	"github.com/ougirez/premiums/internal/service/premiums"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config:\n%v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := xpgx.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal(ctx, err)
	}
	defer pool.Close()
	st := store.NewStore(pool)

	signer, err := chartsig.NewSigner(cfg.Charts.SigningSecret, cfg.Charts.BaseURL)
	if err != nil {
		logger.Fatal(ctx, err)
	}
	renderer := quickchart.New(cfg.Charts.RendererURL, cfg.Charts.RendererTimeout)

	cntrl := controller.NewController(
		premiums.NewPremiumsService(st, renderer, signer, cfg.Premiums.CurrentYear),
		leads.NewLeadsService(st),
		importer.NewImporterService(st, cfg.ETL.DatasetURL, cfg.ETL.WorkDir),
		st,
	)

	svc, err := api.NewAPIService(cfg, cntrl)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	go svc.Serve(cfg.HTTP.Addr)
	logger.Infof(ctx, "listening on %s", cfg.HTTP.Addr)

	<-ctx.Done()
	logger.Infof(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "shutdown: %v", err)
	}
}
