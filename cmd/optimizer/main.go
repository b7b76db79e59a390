package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "optimizer",
		Short: "Portfolio analytics and optimization engine",
		Long: `Evaluates a basket of instruments against historical prices and
proposes improved allocations under risk-tolerance, target-return and
sector-balance constraints.`,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(importCmd())
	root.AddCommand(checkCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
