package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"subforge/internal/protocol"
)

var protocolsCmd = &cobra.Command{
	Use:   "protocols [PROTOCOL]",
	Short: "List supported protocols or show the fields of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := protocol.NewRegistry()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

		if len(args) == 0 {
			fmt.Fprintln(w, "PROTOCOL\tTYPE\tREQUIRED\tPRESETS")
			for _, name := range registry.Names() {
				d, _ := registry.ByName(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Type, strings.Join(required(d), ", "), strings.Join(presetNames(d), ", "))
			}
			return w.Flush()
		}

		d, ok := registry.Resolve(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", protocol.ErrUnsupported, args[0])
		}
		fmt.Fprintf(w, "%s (type: %s)\n\n", d.Name, d.Type)
		fmt.Fprintln(w, "FIELD\tKIND\tDEFAULT\tREQUIRED\tOPTIONS\tSHOWN WHEN")
		for _, f := range d.Fields {
			req := ""
			if f.Required {
				req = "yes"
			}
			when := ""
			if f.VisibleWhen != nil {
				when = f.VisibleWhen.Field + "=" + strings.Join(f.VisibleWhen.Values, "|")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", f.ID, f.Kind, fieldText(f.Default), req, strings.Join(f.Options, "|"), when)
		}
		if len(d.Presets) > 0 {
			fmt.Fprintf(w, "\npresets: %s\n", strings.Join(presetNames(d), ", "))
		}
		return w.Flush()
	},
}

func required(d *protocol.Descriptor) []string {
	var out []string
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f.ID)
		}
	}
	return out
}

func presetNames(d *protocol.Descriptor) []string {
	out := make([]string, len(d.Presets))
	for i, p := range d.Presets {
		out[i] = p.Name
	}
	return out
}

func init() {
	rootCmd.AddCommand(protocolsCmd)
}
