// Package cmd holds the commands of the premium ETL.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ougirez/premiums/internal/config"
	"github.com/ougirez/premiums/internal/pkg/logger"
	"github.com/ougirez/premiums/internal/pkg/store"
	"github.com/ougirez/premiums/internal/pkg/store/xpgx"
	"github.com/ougirez/premiums/internal/service/importer"
)

var (
	cfgFile string
	verbose bool
	years   []int

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "premiums-etl",
	Short: "Load the yearly FOPH premium archives into the premium store",
	Long: `premiums-etl downloads the yearly premium archives published by the FOPH,
normalises the premium tables and upserts them into Postgres.

Examples:
  premiums-etl discover
  premiums-etl download --years 2024,2025
  premiums-etl transform --years 2025
  premiums-etl import --years 2025 --migrate
  premiums-etl run --migrate
  premiums-etl admin-token --ttl 30m`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		return logger.Init(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().IntSliceVar(&years, "years", nil, "years to process (default: all published years)")

	rootCmd.AddCommand(discoverCmd, downloadCmd, transformCmd, importCmd, runCmd)
}

// newImporter builds the importer without a store for the offline stages.
func newImporter() *importer.Service {
	return importer.NewImporterService(nil, cfg.ETL.DatasetURL, cfg.ETL.WorkDir)
}

// newStoreImporter connects to Postgres; the returned func closes the pool.
func newStoreImporter(ctx context.Context) (*importer.Service, func(), error) {
	if cfg.Database.DSN == "" {
		return nil, nil, config.ErrMissingDSN
	}

	pool, err := xpgx.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	svc := importer.NewImporterService(store.NewStore(pool), cfg.ETL.DatasetURL, cfg.ETL.WorkDir)
	return svc, pool.Close, nil
}

// selectedYears falls back to every year of the archive table.
func selectedYears(archives map[int]string) []int {
	if len(years) > 0 {
		return years
	}
	return importer.Years(archives)
}
