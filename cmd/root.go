package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   "taskflow",
		Short: "A minimal multi-user todo list",
		Long:  `Taskflow keeps a todo list per owner email. Run the JSON API with "serve" or use the list from a terminal with "tui".`,

		SilenceUsage: true,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
}
