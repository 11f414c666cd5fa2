package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/timada-org/taskflow/internal/api"
	"github.com/timada-org/taskflow/pkg/client"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the todo API server",

	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}

		logger, closer, err := newLogger(config.Log, os.Stderr)
		if err != nil {
			return err
		}
		defer closer.Close()

		b, err := openBackend(config.Backend, logger)
		if err != nil {
			return err
		}

		options := api.Options{Backend: b, Logger: logger}

		if config.Broker.URL != "" {
			c, err := client.New(client.ClientOptions{
				URL:   config.Broker.URL,
				Topic: config.Broker.Topic,
				Name:  config.Broker.Name,
			})
			if err != nil {
				return err
			}
			options.Publisher = c
		}

		app := api.New(config, options)
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			errc <- app.Listen()
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return <-errc
	},
}
