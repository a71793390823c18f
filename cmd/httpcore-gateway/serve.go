package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/httpcore/pkg/httpcore/appsession"
	"github.com/yourusername/httpcore/pkg/httpcore/config"
	"github.com/yourusername/httpcore/pkg/httpcore/session"
	"github.com/yourusername/httpcore/pkg/httpcore/transport"
	"github.com/yourusername/httpcore/pkg/httpcore/transport/tlsconfig"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Bind every configured endpoint and serve the echo example app session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "httpcore.yaml", "path to the YAML config file")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(cfg.Endpoints) == 0 {
		return fmt.Errorf("no endpoints configured in %s", configPath)
	}

	log := logrus.NewEntry(logrus.StandardLogger())
	metrics := transport.NewMetrics(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		ep := ep
		epLog := log.WithField("endpoint", ep.Name).WithField("addr", ep.Addr)

		opts := []transport.Option{
			transport.WithIdleTimeout(ep.Timeout),
			transport.WithLogger(epLog),
			transport.WithMetrics(metrics),
			transport.WithFIFOSize(cfg.FIFOSize),
		}
		if ep.Crypto != nil {
			tlsCfg, err := tlsconfig.ManualTLS(ep.Crypto.CertFile, ep.Crypto.KeyFile)
			if err != nil {
				return fmt.Errorf("endpoint %q: %w", ep.Name, err)
			}
			opts = append(opts, transport.WithTLSConfig(tlsCfg))
		}
		adapter := transport.New(opts...)

		ln, err := net.Listen("tcp", ep.Addr)
		if err != nil {
			return fmt.Errorf("endpoint %q: listen: %w", ep.Name, err)
		}

		epLog.WithField("tls", ep.Crypto != nil).Info("listening")
		go func() {
			errCh <- adapter.ServeListener(ln, func(conn *session.Connection) appsession.Session {
				return newEchoSession(epLog, conn.ID)
			})
		}()
		go func() {
			<-ctx.Done()
			ln.Close()
		}()
	}

	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}
