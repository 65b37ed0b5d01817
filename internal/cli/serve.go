package cli

import (
	"github.com/spf13/cobra"

	"github.com/gregLibert/emv-qr/internal/api"
	"github.com/gregLibert/emv-qr/internal/config"
)

func newServeCommand(opts *options, s Streams) *cobra.Command {
	var (
		listen     string
		maxPayload int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the decoder over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup(s, func(c *config.Config) {
				if cmd.Flags().Changed("listen") {
					c.Listen = listen
				}
				if cmd.Flags().Changed("max-payload") {
					c.MaxPayload = maxPayload
				}
			})
			if err != nil {
				return err
			}

			h := api.NewHandler(newDecoder(log), log, cfg.MaxPayload)
			log.Info("[api] serving on %s", cfg.Listen)
			return api.Serve(cmd.Context(), cfg.Listen, api.NewRouter(h), log)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", config.DefaultListen, "listen address")
	cmd.Flags().IntVar(&maxPayload, "max-payload", config.DefaultMaxPayload, "maximum payload length in characters")
	return cmd
}
