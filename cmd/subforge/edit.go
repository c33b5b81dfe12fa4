package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subforge/internal/protocol"
	"subforge/internal/store"
)

var (
	addPreset string
	addFields []string
	setFields []string
)

var addCmd = &cobra.Command{
	Use:   "add <PROTOCOL>",
	Short: "Add a proxy by entering its fields",
	Long: `Add a proxy from --field key=value pairs. Schema defaults are applied first,
then the optional --preset, then the given fields. Run "subforge protocols
<PROTOCOL>" to see the available fields.`,
	Example: `  subforge add VLESS --preset "Reality Vision" -f server=example.com -f uuid=...`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		d, ok := a.registry.Resolve(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", protocol.ErrUnsupported, args[0])
		}

		fields := d.Defaults()
		if addPreset != "" {
			preset, ok := d.Preset(addPreset)
			if !ok {
				return fmt.Errorf("%s has no preset %q", d.Name, addPreset)
			}
			fields = preset
		}
		given, err := parseFields(d, addFields, false)
		if err != nil {
			return err
		}
		for k, v := range given {
			fields[k] = v
		}

		id, err := a.store.Add(&protocol.Canonical{Protocol: d.Name, Fields: fields}, "manual")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Change fields of a stored proxy",
	Long:  `Merge --field key=value pairs into a stored proxy. An empty value removes the field.`,
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
		d, ok := a.registry.Resolve(row.Protocol)
		if !ok {
			return fmt.Errorf("%w: %s", protocol.ErrUnsupported, row.Protocol)
		}
		partial, err := parseFields(d, setFields, true)
		if err != nil {
			return err
		}
		if _, err := a.store.Update(row.ID, partial); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", row.ID)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <id>...",
	Aliases: []string{"rm"},
	Short:   "Delete stored proxies",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, id := range args {
			ok, err := a.store.Remove(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", store.ErrNotFound, id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addPreset, "preset", "", "Start from a named preset")
	addCmd.Flags().StringArrayVarP(&addFields, "field", "f", nil, "Field value (e.g. -f server=1.2.3.4)")
	setCmd.Flags().StringArrayVarP(&setFields, "field", "f", nil, "Field value; empty removes the field")
	rootCmd.AddCommand(addCmd, setCmd, removeCmd)
}
