/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teslo-shop/apiserver/config"
	"github.com/teslo-shop/apiserver/internal/auth"
	"github.com/teslo-shop/apiserver/internal/db"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/internal/services"
	"github.com/teslo-shop/apiserver/internal/store"
)

// seedCmd wipes products and users and loads the demo data set.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset the database with demo users and products",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logging.New(cfg.Log)

		conn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()

		products := services.NewProductService(store.NewProductRepository(conn), nil, log)
		seeder := services.NewSeedService(products, store.NewUserRepository(conn), auth.NewBcryptHasher(0), log)
		if err := seeder.Run(cmd.Context()); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "SEED EXECUTED")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
