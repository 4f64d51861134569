package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shopfloor/internal/audit"
	"github.com/sells-group/shopfloor/internal/db"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Manage the lookup audit trail",
}

var auditMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply audit schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		_, closeFn, err := auditStore(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		zap.L().Info("audit migrations applied", zap.String("driver", cfg.Audit.Driver))
		return nil
	},
}

var auditRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent lookups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, closeFn, err := auditStore(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		action, _ := cmd.Flags().GetString("action")
		subject, _ := cmd.Flags().GetString("subject")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		entries, err := st.Recent(ctx, audit.Filter{
			Action:  audit.Action(action),
			Subject: subject,
			Limit:   limit,
		})
		if err != nil {
			return eris.Wrap(err, "audit recent")
		}

		if asJSON {
			return writeJSON(os.Stdout, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No lookups recorded.")
			return nil
		}
		formatEntries(os.Stdout, entries)
		return nil
	},
}

// auditStore opens and migrates the configured audit store. The postgres
// driver without its own URL borrows a record store pool, released by the
// returned close func.
func auditStore(ctx context.Context) (audit.Store, func(), error) {
	if err := cfg.Validate("audit"); err != nil {
		return nil, nil, err
	}

	var shared db.Pool
	if cfg.Audit.Driver == "postgres" && cfg.Audit.DatabaseURL == "" {
		pool, err := openRecordStore(ctx, cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		shared = pool
	}
	release := func() {
		if shared != nil {
			shared.Close()
		}
	}

	st, err := initAudit(ctx, shared)
	if err != nil {
		release()
		return nil, nil, err
	}
	return st, func() {
		_ = st.Close()
		release()
	}, nil
}

func formatEntries(w io.Writer, entries []audit.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tSUBJECT\tQUERY\tRESULTS\tOUTCOME\tDURATION")
	for _, e := range entries {
		subject := e.Subject
		if subject == "" {
			subject = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			e.Action, subject, e.Query, e.ResultCount, e.Outcome,
			e.Duration.Round(time.Millisecond),
		)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	auditRecentCmd.Flags().String("action", "", "filter by action (search, parts, lots)")
	auditRecentCmd.Flags().String("subject", "", "filter by token subject")
	auditRecentCmd.Flags().Int("limit", 20, "maximum entries")
	auditRecentCmd.Flags().Bool("json", false, "print entries as JSON")

	auditCmd.AddCommand(auditMigrateCmd, auditRecentCmd)
	rootCmd.AddCommand(auditCmd)
}
