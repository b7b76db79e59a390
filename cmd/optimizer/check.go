package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aristath/stock-optimizer/internal/config"
	"github.com/aristath/stock-optimizer/internal/domain"
	"github.com/aristath/stock-optimizer/internal/modules/sectors"
	"github.com/aristath/stock-optimizer/internal/store"
	"github.com/aristath/stock-optimizer/pkg/logger"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <holdings.json>",
		Short: "Print the sector-balance report for a holdings file",
		Long: `Reads a JSON array of {"ticker": ..., "allocation": ...} objects and
prints the concentration-rule report as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read holdings file: %w", err)
			}

			var holdings []domain.Holding
			if err := json.Unmarshal(body, &holdings); err != nil {
				return fmt.Errorf("failed to parse holdings file: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: "error", Pretty: true})

			db, err := store.NewDB(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			marketStore := store.New(db, log)
			report := sectors.Evaluate(holdings, sectors.LookupFunc(marketStore.Sector))

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
