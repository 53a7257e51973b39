package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fredserel/Sistema-kanban/internal/config"
	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/server"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kanban",
		Short:         "Kanban project tracking server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSeedCommand())

	return rootCmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			database.Init(cfg.DBDSN, cfg.AdminEmail, cfg.AdminPassword)

			r := server.NewRouter(cfg)

			addr := fmt.Sprintf(":%s", cfg.ServerPort)
			log.Printf("starting server on %s", addr)
			return r.Run(addr)
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema, permission catalog, system roles and default admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			database.Init(cfg.DBDSN, cfg.AdminEmail, cfg.AdminPassword)
			log.Println("database seeded")
			return nil
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
