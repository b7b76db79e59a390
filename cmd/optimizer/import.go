package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aristath/stock-optimizer/internal/config"
	"github.com/aristath/stock-optimizer/internal/store"
	"github.com/aristath/stock-optimizer/pkg/logger"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <feed.json>",
		Short: "Import a securities and prices feed into the market database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

			db, err := store.NewDB(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			secCount, priceCount, err := store.New(db, log).ImportJSON(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Imported %d securities, %d price rows into %s\n",
				secCount, priceCount, cfg.DatabasePath)
			return nil
		},
	}
}
