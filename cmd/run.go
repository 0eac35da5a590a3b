package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/halcyra/oracle-validator-cli/internal/application"
	"github.com/halcyra/oracle-validator-cli/internal/ports"
)

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the validation loop for all configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(*configPath)
			if err != nil {
				return err
			}
			defer app.close()

			if len(app.cfg.Accounts) == 0 {
				return fmt.Errorf("no accounts configured; add [[accounts]] entries to the config file")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app.log.WithField("accounts", len(app.cfg.Accounts)).
				WithField("proxies", len(app.cfg.Proxies)).
				Info("starting validation loop")

			driver := application.NewDriver(app.api, app.sessions, app.history, app.allocator, ports.SystemClock{}, app.driverConfig(), app.log)
			if err := driver.Run(ctx, app.cfg.Accounts); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			app.log.Info("validation loop stopped")
			return nil
		},
	}
}
