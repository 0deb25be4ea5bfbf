package cmd

import (
	"os"
	"time"

	"github.com/SafeMPC/custody-engine/cmd/db"
	"github.com/SafeMPC/custody-engine/cmd/probe"
	"github.com/SafeMPC/custody-engine/cmd/server"
	"github.com/SafeMPC/custody-engine/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "custody-engine",
	Short: "Secret custody and transaction lifecycle engine",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging(config.DefaultServiceConfigFromEnv())
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := cmd.Help(); err != nil {
			log.Fatal().Err(err).Msg("Failed to print help")
		}
	},
}

func initLogging(cfg config.Server) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(cfg.Logger.Level)

	if cfg.Logger.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = "15:04:05"
		}))
	}
}

func Execute() {
	rootCmd.AddCommand(
		server.New(),
		probe.New(),
		db.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
