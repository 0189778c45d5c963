package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ougirez/premiums/internal/domain/dto"
	"github.com/ougirez/premiums/internal/pkg/logger"
	"github.com/ougirez/premiums/internal/service/importer"
)

var migrate bool

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List the archive link of every published year",
	RunE: func(cmd *cobra.Command, args []string) error {
		archives := newImporter().Discover(cmd.Context())
		for _, year := range importer.Years(archives) {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", year, archives[year])
		}
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the yearly archives into the work dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newImporter()
		archives := svc.Discover(cmd.Context())

		paths, err := svc.Download(cmd.Context(), archives, selectedYears(archives))
		for _, year := range importer.Years(paths) {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", year, paths[year])
		}
		return err
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Normalise downloaded archives into JSON files",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newImporter()
		if len(years) == 0 {
			return errors.New("--years is required for transform")
		}

		var errs []error
		for _, year := range years {
			res, err := svc.Transform(cmd.Context(), year)
			if err != nil {
				logger.Errorf(cmd.Context(), "transform %d: %v", year, err)
				errs = append(errs, fmt.Errorf("%d: %w", year, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\tvalid=%d invalid=%d duplicates=%d\n",
				year, len(res.Premiums), res.Invalid, res.Duplicates)
		}
		return errors.Join(errs...)
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Upsert transformed years into Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(years) == 0 {
			return errors.New("--years is required for import")
		}

		svc, closePool, err := newStoreImporter(cmd.Context())
		if err != nil {
			return err
		}
		defer closePool()

		if migrate {
			if err := svc.Migrate(cmd.Context()); err != nil {
				return err
			}
		}

		var errs []error
		for _, year := range years {
			n, err := svc.Load(cmd.Context(), year)
			if err != nil {
				errs = append(errs, fmt.Errorf("%d: %w", year, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\tupserted=%d\n", year, n)
		}
		return errors.Join(errs...)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover, download, transform and import in one go",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closePool, err := newStoreImporter(cmd.Context())
		if err != nil {
			return err
		}
		defer closePool()

		resp, err := svc.Run(cmd.Context(), dto.ImportRequest{Years: years, Migrate: migrate})
		if err != nil {
			return err
		}

		for _, stat := range resp.Years {
			status := "ok"
			if stat.Error != "" {
				status = stat.Error
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\tvalid=%d invalid=%d duplicates=%d upserted=%d\t%s\n",
				stat.Year, stat.Valid, stat.Invalid, stat.Duplicates, stat.Upserted, status)
		}
		if !resp.Success {
			return errors.New("some years failed to import")
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables first")
	runCmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables first")
}
