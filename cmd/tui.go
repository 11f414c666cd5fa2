package cmd

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/timada-org/taskflow/internal/session"
	"github.com/timada-org/taskflow/internal/todolist"
	"github.com/timada-org/taskflow/internal/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Manage your todos from the terminal",

	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}

		// The screen belongs to the UI, so logs go to the log file or nowhere.
		logger, closer, err := newLogger(config.Log, io.Discard)
		if err != nil {
			return err
		}
		defer closer.Close()

		b, err := openBackend(config.Backend, logger)
		if err != nil {
			return err
		}
		if b != nil {
			defer b.Close()
		}

		store, err := openSessionStore(config.Session)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sess := session.New(store)
		todos := todolist.New(b, sess, todolist.WithLogger(logger))

		return ui.Run(ctx, todos, sess)
	},
}
