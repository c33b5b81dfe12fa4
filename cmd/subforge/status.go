package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"subforge/internal/geoip"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database statistics",
	Long:  `Displays the current store state: proxy counts, file sizes, protocol breakdown and top server locations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		total, err := a.store.Count()
		if err != nil {
			return err
		}
		byProtocol, err := a.store.CountByProtocol()
		if err != nil {
			return err
		}
		byCountry, err := a.store.CountByCountry()
		if err != nil {
			return err
		}

		dbSize := getFileSize(a.cfg.Database.Path)
		walSize := getFileSize(a.cfg.Database.Path + "-wal")

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

		fmt.Fprintln(out, "\n\033[1mSUBFORGE STATUS\033[0m")
		fmt.Fprintln(out, "────────────────────────────────────────")

		fmt.Fprintln(w, "\033[1;36m[ SYSTEM ]\033[0m\t")
		fmt.Fprintf(w, "  Database Path:\t%s\n", a.cfg.Database.Path)
		fmt.Fprintf(w, "  DB Size:\t%s\n", formatBytes(dbSize))
		if walSize > 0 {
			fmt.Fprintf(w, "  WAL Size:\t%s (pending checkpoint)\n", formatBytes(walSize))
		}
		fmt.Fprintf(w, "  Total Proxies:\t%d\n", total)
		fmt.Fprintln(w, "\t")

		fmt.Fprintln(w, "\033[1;36m[ PROTOCOLS ]\033[0m\t")
		if len(byProtocol) == 0 {
			fmt.Fprintln(w, "  (store is empty)")
		}
		for _, p := range sortedCounts(byProtocol) {
			fmt.Fprintf(w, "  %s:\t%d\n", p, byProtocol[p])
		}
		fmt.Fprintln(w, "\t")

		fmt.Fprintln(w, "\033[1;36m[ TOP LOCATIONS ]\033[0m\t")
		if !geoip.Enabled() {
			fmt.Fprintln(w, "  (geoip.country_path not configured)")
		}
		shown := 0
		for _, c := range sortedCounts(byCountry) {
			if c == "" || shown == 5 {
				continue
			}
			fmt.Fprintf(w, "  %s %s:\t%d\n", geoip.Flag(c), c, byCountry[c])
			shown++
		}
		if n := byCountry[""]; n > 0 && geoip.Enabled() {
			fmt.Fprintf(w, "  unknown:\t%d\n", n)
		}

		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return nil
	},
}

func getFileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
