package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/collector"
	"github.com/bobby-s-dev/weather-collector/internal/config"
	"github.com/bobby-s-dev/weather-collector/internal/metrics"
)

func newCollectCommand(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	var locationsFile, output string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass and store the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := collector.NewFromConfig(cfg, collector.NewStore(cfg, logger), metrics.New(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := c.Run(cmd.Context(), locationsFile)
			if err != nil {
				return err
			}

			if output != "" {
				data, err := json.MarshalIndent(result.Records, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				logger.Info("Wrote collected records", zap.String("path", output), zap.Int("records", len(result.Records)))
			}

			return collector.WriteReport(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&locationsFile, "locations", "l", "", "newline-delimited city list (defaults to LOCATIONS_FILE, then the built-in Dutch cities)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the collected records as JSON to this file")

	return cmd
}

func newLocationsCommand(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	var locationsFile string

	cmd := &cobra.Command{
		Use:   "locations",
		Short: "Print the locations the next collection would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if locationsFile == "" {
				locationsFile = cfg.LocationsFile
			}
			locations, source := collector.LoadLocations(locationsFile, logger)

			fmt.Fprintf(cmd.OutOrStdout(), "Source: %s (%d locations)\n", source, len(locations))
			for _, loc := range locations {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", loc)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&locationsFile, "locations", "l", "", "newline-delimited city list")

	return cmd
}
