package command

import (
	"context"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/router"
	"github.com/SafeMPC/custody-engine/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewSubcommandGroup returns a command that only groups subcommands and prints
// usage when invoked directly.
func NewSubcommandGroup(title string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: title,
		Run: func(cmd *cobra.Command, args []string) {
			if err := cmd.Help(); err != nil {
				log.Fatal().Err(err).Msg("Failed to print help")
			}
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}

// WithServer initializes a fully wired server, runs f against it and shuts the
// server down afterwards. Intended for one-shot CLI tasks that need the
// component graph without serving HTTP.
func WithServer(ctx context.Context, cfg config.Server, f func(ctx context.Context, s *api.Server) error) error {
	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	router.Init(s)

	defer func() {
		if err := s.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down server")
		}
	}()

	return f(ctx, s)
}
