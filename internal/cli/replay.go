package cli

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/remedy/internal/core/domain"
)

var replayCmd = &cobra.Command{
	Use:   "replay [journal file]",
	Short: "Summarize a journal file by category and recovery outcome",
	Args:  cobra.MaximumNArgs(1),
	Run:   runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

type replayStats struct {
	total     int
	recovered int
	critical  int
}

func runReplay(cmd *cobra.Command, args []string) {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		cfg := loadConfig()
		path = cfg.Sink.Path
	}

	f, err := os.Open(path)
	if err != nil {
		slog.Error("Failed to open journal", "path", path, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = f.Close()
	}()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			slog.Error("Failed to read compressed journal", "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = gz.Close()
		}()
		r = gz
	}

	stats := make(map[domain.Category]*replayStats)
	malformed := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec domain.ErrorRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			malformed++
			continue
		}
		st := stats[rec.Category]
		if st == nil {
			st = &replayStats{}
			stats[rec.Category] = st
		}
		st.total++
		if rec.Result != nil && rec.Result.Success {
			st.recovered++
		}
		if rec.Severity == domain.SeverityCritical {
			st.critical++
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Error("Failed to read journal", "error", err)
		os.Exit(1)
	}

	categories := make([]domain.Category, 0, len(stats))
	for cat := range stats {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CATEGORY\tERRORS\tRECOVERED\tCRITICAL")
	for _, cat := range categories {
		st := stats[cat]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", cat, st.total, st.recovered, st.critical)
	}
	_ = w.Flush()

	if malformed > 0 {
		fmt.Printf("\n%d malformed lines skipped\n", malformed)
	}
}
