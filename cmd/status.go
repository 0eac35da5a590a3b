package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/halcyra/oracle-validator-cli/internal/adapters/render/status"
	"github.com/halcyra/oracle-validator-cli/internal/application"
	"github.com/halcyra/oracle-validator-cli/internal/domain"
	"github.com/halcyra/oracle-validator-cli/internal/ports"
)

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Fetch and display account validation counters",
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

			ctx := cmd.Context()
			infos := make([]domain.AccountInfo, 0, len(app.cfg.Accounts))
			for _, account := range app.cfg.Accounts {
				manager := application.NewSessionManager(account, app.api, app.sessions, ports.SystemClock{}, app.retryConfig(), func() string {
					return app.allocator.Assign(account.ID())
				}, app.log)
				manager.Resume(ctx)

				token, err := manager.Token(ctx)
				if err != nil {
					app.log.WithError(err).
						WithField("account", domain.MaskEmail(account.Email)).
						Warn("skipping account, authentication failed")
					continue
				}

				info, err := app.api.AccountInfo(ctx, token, app.allocator.Assign(account.ID()))
				if err != nil {
					app.log.WithError(err).
						WithField("account", domain.MaskEmail(account.Email)).
						Warn("skipping account, info fetch failed")
					continue
				}
				infos = append(infos, info)
			}

			output, err := app.statusRenderer(infos, statusadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}
