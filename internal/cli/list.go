package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	listJSON   bool
	listSorted bool
)

var listCmd = &cobra.Command{
	Use:   "list [domain]",
	Short: "List registered verbs",
	Long:  `List the verbs of one domain, or of every domain, in registration order.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVar(&listSorted, "sorted", false, "Sort by qualified verb identifier")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents a registered verb for display.
type listEntry struct {
	Verb     string `json:"verb"`
	Domain   string `json:"domain"`
	Version  string `json:"version"`
	Template string `json:"template"`
	Target   string `json:"target"`
}

func runList(cmd *cobra.Command, args []string) error {
	root, err := rootDir()
	if err != nil {
		return err
	}
	s, err := openSession(cmd.Context(), root)
	if err != nil {
		return err
	}

	domain := ""
	if len(args) == 1 {
		domain = args[0]
		if _, err := s.reg.Domain(domain); err != nil {
			return err
		}
	}

	entries := []listEntry{}
	for v := range s.reg.List(domain, listSorted) {
		entries = append(entries, listEntry{
			Verb:     v.Qualified(),
			Domain:   v.Domain,
			Version:  v.Version.String(),
			Template: v.Template,
			Target:   v.Policy.String(),
		})
	}

	if listJSON {
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling list: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No verbs registered yet.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERB\tVERSION\tTEMPLATE\tTARGET")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Verb, e.Version, e.Template, e.Target)
	}
	return w.Flush()
}
