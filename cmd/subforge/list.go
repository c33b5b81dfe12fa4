package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"subforge/internal/codec"
	"subforge/internal/schema"
	"subforge/internal/store"
)

var listProtocol string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored proxies",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := a.store.List()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROTOCOL\tNAME\tSERVER\tCOUNTRY\tSOURCE")
		for _, r := range rows {
			if listProtocol != "" && !strings.EqualFold(r.Protocol, listProtocol) {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Protocol, r.Name, schema.String(r.Fields["server"]), r.Country, r.Source)
		}
		return w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the stored fields and rendered entry of a proxy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		row, err := a.store.Get(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id:       %s\n", row.ID)
		fmt.Fprintf(out, "protocol: %s\n", row.Protocol)
		fmt.Fprintf(out, "source:   %s\n", row.Source)
		if row.Country != "" {
			fmt.Fprintf(out, "country:  %s\n", row.Country)
		}
		fmt.Fprintf(out, "added:    %s\n\n", row.CreatedAt.Format("2006-01-02 15:04:05"))

		fields := schema.Fields(row.Fields)
		fmt.Fprintln(out, "fields:")
		for _, k := range schema.SortedKeys(fields) {
			fmt.Fprintf(out, "  %s = %s\n", k, fieldText(fields[k]))
		}

		p, err := a.registry.Synthesize(store.Canonical(row))
		if err != nil {
			return err
		}
		doc, err := codec.Encode(p, codec.DefaultIndent)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nrendered:\n%s\n", codec.Indent(doc, "  "))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listProtocol, "protocol", "", "Only list this protocol")
	rootCmd.AddCommand(listCmd, showCmd)
}

// fieldText prints scalars as typed and structures as JSON.
func fieldText(v any) string {
	if schema.ShapeOf(v) != schema.ShapeStructure {
		return schema.String(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
