package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/MeKo-Tech/barcodegen/internal/symbology"
	"github.com/spf13/cobra"
)

func newSymbologiesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbologies",
		Short: "List the supported symbologies and their encoding rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			registry, err := cfg.ToRegistry()
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			selectable, _ := cmd.Flags().GetBool("selectable")

			rules := registry.Rules()
			if selectable {
				rules = registry.Selectable()
			}
			switch format {
			case "json":
				data, err := json.MarshalIndent(rules, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			case "text":
				return writeRuleTable(cmd, rules)
			default:
				return fmt.Errorf("invalid format: %s (must be text or json)", format)
			}
		},
	}
	cmd.Flags().String("format", "text", "output format (text, json)")
	cmd.Flags().Bool("selectable", false, "only list symbologies offered by the local renderer")
	return cmd
}

func writeRuleTable(cmd *cobra.Command, rules []symbology.Rule) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tLABEL\tCHARSET\tCAPACITY\tSOURCE\tIMPLEMENTED")
	for _, r := range rules {
		capacity := "-"
		switch {
		case len(r.Lengths) > 0:
			lengths := make([]string, len(r.Lengths))
			for i, n := range r.Lengths {
				lengths[i] = strconv.Itoa(n)
			}
			capacity = strings.Join(lengths, "/") + " digits"
		case r.MaxBytes > 0:
			capacity = strconv.Itoa(r.MaxBytes) + " bytes"
		}
		source := "local"
		if !r.Local {
			source = "remote"
		}
		if r.RemoteTag != "" {
			source += " (" + r.RemoteTag + ")"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n",
			r.Symbology, r.Label, r.Charset, capacity, source, r.Implemented)
	}
	return tw.Flush()
}
