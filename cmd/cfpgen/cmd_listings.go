package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/cfpgen/internal/profile"
)

const defaultHistoryLines = 20

func newConferencesCmd(e *env) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "conferences",
		Short: "List the conferences, tracks and formats you can target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			confs := e.cfg.Catalog().All()
			if asYAML {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(confs); err != nil {
					return fmt.Errorf("encode conferences: %w", err)
				}
				return enc.Close()
			}
			for i, conf := range confs {
				fmt.Fprintf(out, "%d. %s\n", i+1, conf.Name)
				if len(conf.Tracks) > 0 {
					fmt.Fprintf(out, "   Tracks:  %s\n", strings.Join(conf.Tracks, ", "))
				} else {
					fmt.Fprintln(out, "   Tracks:  free-form theme")
				}
				fmt.Fprintf(out, "   Formats: %s\n", formatList(conf.Formats))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the catalogue as YAML, ready to paste into config.yaml")
	return cmd
}

func formatList(formats []profile.Format) string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func newHistoryCmd(e *env) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			entries, total := e.journal.Tail(lines)
			if total == 0 {
				fmt.Fprintln(out, "No ideas generated yet.")
				return nil
			}
			for _, entry := range entries {
				fmt.Fprintln(out, entry)
			}
			if total > len(entries) {
				fmt.Fprintf(out, "(%d of %d entries, full log at %s)\n", len(entries), total, e.journal.Path())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", defaultHistoryLines, "number of entries to show")
	return cmd
}
