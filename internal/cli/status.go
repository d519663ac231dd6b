package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/remedy/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show error counts and recovery outcomes from the archive",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if cfg.Archive.Database.URL == "" {
		slog.Error("No archive database configured")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Archive.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.QueryContext(ctx, `
		SELECT category,
		       count(*),
		       count(*) FILTER (WHERE recovered),
		       max(ts)
		FROM error_records
		GROUP BY category
		ORDER BY category`)
	if err != nil {
		slog.Error("Failed to query error records", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = rows.Close()
	}()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CATEGORY\tERRORS\tRECOVERED\tLAST SEEN")

	for rows.Next() {
		var category string
		var total, recovered int64
		var lastSeen time.Time
		if err := rows.Scan(&category, &total, &recovered, &lastSeen); err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", category, total, recovered, lastSeen.Format(time.RFC3339))
	}
	_ = w.Flush()
}
