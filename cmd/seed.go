/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/recoverytrack/apiserver/config"
	"github.com/recoverytrack/apiserver/internal/db"
	"github.com/recoverytrack/apiserver/internal/store"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demo user, resources and professionals into postgres",
	Long: `Inserts the demo account, starter resource catalog and professional
directory. Running it again is a no-op once the demo user exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg, "seed")

		dbConn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		s := store.NewPostgresStore(dbConn, cfg.Auth.PasswordCost)
		if err := store.Seed(cmd.Context(), s, time.Now()); err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		log.Info(cmd.Context(), "seed.complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
