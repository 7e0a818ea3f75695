package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"outreach/internal/config"
	"outreach/internal/pipeline"
	"outreach/internal/queue"
	"outreach/internal/services/bizsearch"
	"outreach/internal/services/crm"
	"outreach/internal/services/sitescore"
)

func newProspectCommand(ctx *commandContext) *cobra.Command {
	var targetsPath, query, location string
	var limit int

	cmd := &cobra.Command{
		Use:   "prospect",
		Short: "Search for businesses and insert new work items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				targets, err := resolveTargets(cfg, targetsPath, query, location, limit)
				if err != nil {
					return err
				}
				logger := ctx.log()
				prospector := pipeline.NewProspector(cfg, store, bizsearch.NewFromConfig(cfg, logger), logger)
				report, err := prospector.Run(cmd.Context(), targets)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Searched %d targets: found %d, inserted %d, duplicates %d, skipped %d, failed searches %d\n",
					report.Targets, report.Found, report.Inserted, report.Duplicates, report.Skipped, report.Failed,
				)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&targetsPath, "targets", "", "YAML targets file (defaults to paths.targets_file)")
	cmd.Flags().StringVar(&query, "query", "", "Single search query instead of a targets file")
	cmd.Flags().StringVar(&location, "location", "", "Location for --query")
	cmd.Flags().IntVar(&limit, "limit", 0, "Results to request for --query")
	return cmd
}

func resolveTargets(cfg *config.Config, path, query, location string, limit int) ([]pipeline.Target, error) {
	if q := strings.TrimSpace(query); q != "" {
		return []pipeline.Target{{Query: q, Location: strings.TrimSpace(location), Limit: limit}}, nil
	}
	if strings.TrimSpace(path) == "" {
		path = cfg.Paths.TargetsFile
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("no targets: pass --query or --targets, or set paths.targets_file")
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	return pipeline.LoadTargets(expanded)
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Score and classify new items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger := ctx.log()
				enricher := pipeline.NewEnricher(cfg, store, sitescore.NewFromConfig(cfg, logger), logger)

				var total pipeline.EnrichReport
				for {
					report, err := enricher.Run(cmd.Context())
					if err != nil {
						return err
					}
					total.Processed += report.Processed
					total.Enriched += report.Enriched
					total.Unreachable += report.Unreachable
					total.Deferred += report.Deferred
					// Deferred items stay selectable; stop once a batch makes no progress.
					if !all || report.Enriched+report.Unreachable == 0 {
						break
					}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, total)
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Processed %d items: enriched %d, unreachable %d, deferred %d\n",
					total.Processed, total.Enriched, total.Unreachable, total.Deferred,
				)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Repeat batches until nothing is left to enrich")
	return cmd
}

func newSendCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Send the first outreach message to enriched RED and YELLOW items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger := ctx.log()
				outreacher := pipeline.NewOutreacher(cfg, store, crm.NewFromConfig(cfg, logger), logger)
				report, err := outreacher.Run(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Considered %d items: sent %d, skipped %d, cooling off %d, failed %d, promoted %d\n",
					report.Considered, report.Sent, report.Skipped, report.CoolingOff, report.Failed, report.Promoted,
				)
				return nil
			})
		},
	}
}
