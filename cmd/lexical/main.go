package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexical-app/lexical/internal/api"
	"github.com/lexical-app/lexical/internal/config"
	"github.com/lexical-app/lexical/internal/llm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lexical",
		Short: "Syllabus-to-calendar and flowchart backend",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Absent .env is fine; the environment may be set directly.
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if addr == "" {
				addr = cfg.Addr()
			}

			client := llm.NewClient(cfg, logger)
			server := api.New(client, logger, addr)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (default :$PORT)")
	return cmd
}
