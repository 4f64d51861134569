package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/sells-group/shopfloor/internal/api"
	"github.com/sells-group/shopfloor/internal/export"
	"github.com/sells-group/shopfloor/internal/model"
)

var partsCmd = &cobra.Command{
	Use:   "parts <production-order>",
	Short: "List the parts of a production order",
	Long:  "Prints the technical sheets, operations and consumed items of a production order. With --xlsx the list is written to a spreadsheet instead.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("query"); err != nil {
			return err
		}
		ctx := cmd.Context()

		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		asJSON, _ := cmd.Flags().GetBool("json")
		localeFlag, _ := cmd.Flags().GetString("locale")

		var locale *language.Tag
		if localeFlag != "" {
			tag, err := api.ParseLocale(localeFlag)
			if err != nil {
				return err
			}
			locale = tag
		}

		engine, pool, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		result, err := engine.ListParts(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "parts")
		}

		switch {
		case xlsxPath != "":
			if err := writePartsFile(xlsxPath, result); err != nil {
				return err
			}
			zap.L().Info("parts list exported",
				zap.String("order", result.Order),
				zap.String("path", xlsxPath),
				zap.Int("items", result.ItemCount()),
			)
			return nil
		case asJSON:
			return writeJSON(os.Stdout, api.NewPartsListResponse(result, locale))
		}

		if len(result.Sheets) == 0 {
			fmt.Fprintf(os.Stderr, "No parts found for %s.\n", result.Order)
			return nil
		}
		formatParts(os.Stdout, result)
		return nil
	},
}

func writePartsFile(path string, result *model.PartsListResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "parts: create export file")
	}
	if err := export.WritePartsList(f, result); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrap(f.Close(), "parts: close export file")
}

func formatParts(w io.Writer, result *model.PartsListResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range result.Sheets {
		fmt.Fprintf(tw, "Sheet %s\t%s\t%s\n", s.ID, deref(s.ProductID), deref(s.ProductDescription))
		for _, op := range s.Operations {
			fmt.Fprintf(tw, "  %s\t\t\n", operationLabel(op.Description))
			for _, it := range op.Items {
				fmt.Fprintf(tw, "    %s\t%s\t%s\n", it.ID, deref(it.Description), quantity(it.ExpectedQuantity))
			}
		}
	}
	tw.Flush() //nolint:errcheck
}

func operationLabel(desc *string) string {
	if desc == nil || strings.TrimSpace(*desc) == "" {
		return "(no operation)"
	}
	return *desc
}

func quantity(q *float64) string {
	if q == nil {
		return "-"
	}
	return strconv.FormatFloat(*q, 'f', -1, 64)
}

func init() {
	partsCmd.Flags().String("xlsx", "", "write the parts list to this .xlsx file")
	partsCmd.Flags().Bool("json", false, "print the API response body instead of a table")
	partsCmd.Flags().String("locale", "", "format quantities for this locale in JSON output (e.g. pt-BR)")
	rootCmd.AddCommand(partsCmd)
}
