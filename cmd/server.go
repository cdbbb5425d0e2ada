package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"fueltrack/web"
)

func serverCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `This command starts the REST api and the websocket ledger stream.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := s.open(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			router, err := web.NewRouter(rt.service, rt.store, rt.stream, web.ServiceConfig{
				IsDev:     s.cfg.IsDev,
				Port:      s.cfg.Port,
				RateLimit: s.cfg.RateLimit,
			})
			if err != nil {
				return err
			}

			figure.NewColorFigure("FuelTrack", "puffy", "green", true).Print()
			return web.Serve(ctx, router, s.cfg.Port)
		},
	}

	cmd.Flags().Bool("dev", false, "Run in development mode")
	cmd.Flags().String("port", "8080", "Port to run the web server on")
	cmd.Flags().String("mq", "go_chan", "Message queue mode (none, go_chan, rabbitmq, gcp_pub_sub)")
	cmd.Flags().String("limit", "20-S", "Requests allowed per client, e.g. 20-S or 1000-H")

	return cmd
}

