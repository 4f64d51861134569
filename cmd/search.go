package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/shopfloor/internal/api"
	"github.com/sells-group/shopfloor/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search order and invoice history by code",
	Long:  "Matches the term as a substring of order numbers, production orders and invoice numbers across the historical tables.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		term := strings.TrimSpace(args[0])
		matches, err := engine.Search(ctx, term, limit)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		if asJSON {
			return writeJSON(os.Stdout, api.NewSearchResponse(term, matches))
		}
		if len(matches) == 0 {
			fmt.Fprintln(os.Stderr, "No matches found.")
			return nil
		}
		formatMatches(os.Stdout, matches)
		return nil
	},
}

func formatMatches(w io.Writer, matches []model.SearchMatch) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tCOLUMN\tVALUE\tMODEL\tIMAGE")
	for _, m := range matches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			m.Table, m.Column, m.Value, deref(m.ModelRef()), deref(m.ImageURL))
	}
	tw.Flush() //nolint:errcheck
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum matches (default from config)")
	searchCmd.Flags().Bool("json", false, "print the API response body instead of a table")
	rootCmd.AddCommand(searchCmd)
}
