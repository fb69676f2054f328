package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-collector/internal/config"
)

func New(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "weather-collector",
		Short:         "Collects daily weather forecasts for Dutch cities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newCollectCommand(cfg, logger),
		newLoadCommand(cfg, logger),
		newServeCommand(cfg, logger),
		newLocationsCommand(cfg, logger),
	)

	return cmd
}
