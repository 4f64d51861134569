package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/shopfloor/internal/api"
)

var lotsCmd = &cobra.Command{
	Use:   "lots",
	Short: "List the most recent production lots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("query"); err != nil {
			return err
		}
		ctx := cmd.Context()

		engine, pool, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		lots, err := engine.RecentLots(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "lots")
		}

		if asJSON {
			return writeJSON(os.Stdout, api.LotsResponse{Lots: lots})
		}
		for _, lot := range lots {
			fmt.Fprintln(os.Stdout, lot)
		}
		return nil
	},
}

func init() {
	lotsCmd.Flags().Int("limit", 0, "number of lots (default 10)")
	lotsCmd.Flags().Bool("json", false, "print the API response body")
	rootCmd.AddCommand(lotsCmd)
}
