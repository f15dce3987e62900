package main

import (
	"context"
	"net"

	"github.com/spf13/cobra"

	"github.com/deskaudio/pulse"
	"github.com/deskaudio/pulse/internal/bridge"
	"github.com/deskaudio/pulse/proto"
)

func serveCmd(a *app) *cobra.Command {
	var (
		listen    string
		rateLimit float64
		burst     int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve devices, streams and events over HTTP",
		Long: `Run the desktop bridge: a JSON API for reading and changing devices
and streams, a websocket on /events streaming server events, and
Prometheus metrics on /metrics.

The bridge exits when the connection to the server ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.override(Config{Serve: ServeConfig{Listen: listen, RateLimit: rateLimit, Burst: burst}})

			metrics, reg, err := newMetrics()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := a.connect(ctx,
				pulse.ClientMetrics(metrics),
				pulse.ClientStateHandler(func(s pulse.State) {
					a.log.Info("connection state changed", "state", s)
				}),
			)
			if err != nil {
				return err
			}
			defer c.Close()

			subCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
			err = c.Subscribe(subCtx, proto.SubscriptionMaskAll)
			cancel()
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", a.cfg.Serve.Listen)
			if err != nil {
				return err
			}
			a.log.Info("bridge listening", "addr", ln.Addr().String(), "server", c.Server().String())

			b := bridge.New(c, bridge.Config{
				Logger:    a.log,
				Gatherer:  reg,
				RateLimit: a.cfg.Serve.RateLimit,
				Burst:     a.cfg.Serve.Burst,
			})
			return b.Run(ctx, ln, c.Done())
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default 127.0.0.1:4714)")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "changes per second accepted from all callers")
	cmd.Flags().IntVar(&burst, "burst", 0, "changes accepted at once above the rate limit")

	return cmd
}
