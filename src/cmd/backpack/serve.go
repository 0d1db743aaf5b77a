package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"sasquatch-backpack/src/logger"
	"sasquatch-backpack/src/metrics"
	"sasquatch-backpack/src/server"
	"sasquatch-backpack/src/service"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the earthquake endpoint over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = appConfig.HTTPAddr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			recorder := metrics.New(reg)

			svc := service.New(appConfig, nil,
				service.WithLogger(log),
				service.WithMetrics(recorder),
			)

			zl := logger.NewConsoleLogger(appConfig.LogLevel).Zerolog()
			srv, err := server.New(addr, zl, svc, reg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default $BACKPACK_HTTP_ADDR)")
	return cmd
}
