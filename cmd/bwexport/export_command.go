package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bwexport/internal/config"
	"bwexport/internal/export"
	"bwexport/internal/history"
	"bwexport/internal/logging"
)

type exportFlags struct {
	maxParallel int
	overwrite   bool
	verbose     bool
	json        bool
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export [destination]",
		Short: "Export vault items and attachments",
		Long: `Export writes <destination>/items.json with every vault item and downloads
each attachment to <destination>/<item-id>/<file-name>.

The session is taken from $BW_SESSION when set; otherwise bw prompts to unlock
(or log in). Attachments are fetched in batches of --max-parallel; any failed
download stops the export after its batch finishes.`,
		Example: `  bwexport export ~/backups/vault
  bwexport export -j 8 --overwrite /mnt/backup/bitwarden`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := resolveExportOptions(cmd, cfg, args, flags)
			if err != nil {
				return err
			}

			logger, err := ctx.logger(flags.verbose)
			if err != nil {
				return err
			}
			client, err := ctx.bwClient(logger, flags.verbose)
			if err != nil {
				return err
			}

			exportOpts := []export.Option{
				export.WithLogger(logger),
				export.WithSessionEnv(cfg.BW.SessionEnv),
				export.WithCatalogFile(cfg.Export.CatalogFile),
			}
			if cfg.History.Enabled {
				store, err := history.Open(cfg)
				if err != nil {
					logger.Warn("export history unavailable", logging.Error(err))
				} else {
					defer store.Close()
					exportOpts = append(exportOpts, export.WithRecorder(store))
				}
			}

			var progress *progressObserver
			if !flags.json && !flags.verbose && interactive(cmd.ErrOrStderr()) {
				progress = newProgressObserver(cmd.ErrOrStderr())
				exportOpts = append(exportOpts, export.WithObserver(progress))
			}

			exporter, err := export.New(client, exportOpts...)
			if err != nil {
				return err
			}
			result, runErr := exporter.Run(cmd.Context(), opts)
			if progress != nil {
				progress.finish()
			}

			if flags.json {
				if err := writeJSON(cmd, newExportSummary(result, runErr)); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderExportResult(result, runErr, flags.verbose))
			}
			return runErr
		},
	}

	cmd.Flags().IntVarP(&flags.maxParallel, "max-parallel", "j", 0, "Attachments downloaded concurrently per batch (default from config)")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Replace attachment files that already exist")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log every bw invocation and attachment")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the result as JSON")
	return cmd
}

// resolveExportOptions layers command-line values over the configuration.
func resolveExportOptions(cmd *cobra.Command, cfg *config.Config, args []string, flags exportFlags) (export.Options, error) {
	opts := export.Options{
		Destination: cfg.Export.Destination,
		MaxParallel: cfg.Export.MaxParallel,
		Overwrite:   cfg.Export.Overwrite,
		Verbose:     flags.verbose,
	}
	if len(args) == 1 {
		if strings.TrimSpace(args[0]) == "" {
			return opts, usageErrorf("destination must not be empty")
		}
		expanded, err := config.ExpandPath(args[0])
		if err != nil {
			return opts, usageErrorf("resolve destination: %v", err)
		}
		opts.Destination = expanded
	}
	if cmd.Flags().Changed("max-parallel") {
		if flags.maxParallel < 1 {
			return opts, usageErrorf("--max-parallel must be at least 1 (got %d)", flags.maxParallel)
		}
		opts.MaxParallel = flags.maxParallel
	}
	if cmd.Flags().Changed("overwrite") {
		opts.Overwrite = flags.overwrite
	}
	return opts, nil
}
