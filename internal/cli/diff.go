package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dogfold-labs/dogfold/internal/artifact"
	"github.com/dogfold-labs/dogfold/internal/bootstrap"
	"github.com/dogfold-labs/dogfold/internal/ui"
)

var diffSelf bool

func init() {
	diffCmd.Flags().BoolVar(&diffSelf, "self", false, "Only the generator's own verbs")
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff [domain.verb...]",
	Short: "Show what a run would change",
	Long: `Render the selected verbs (all by default) without writing and show a
unified diff for every file that would change, hand-edited files included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := rootDir()
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context(), root)
		if err != nil {
			return err
		}
		req, err := s.request()
		if err != nil {
			return err
		}
		req.Verbs = args
		req.Self = diffSelf
		req.DryRun = true
		req.OnDrift = bootstrap.DriftOverwrite
		req.OnExists = bootstrap.ExistsOverwrite

		summary, err := s.orchestrator().Run(cmd.Context(), req)
		if err != nil {
			ui.PrintSummary(cmd.OutOrStdout(), summary)
			return err
		}

		out := cmd.OutOrStdout()
		changed := 0
		for _, r := range summary.Results {
			if r.Outcome != bootstrap.OutcomePending {
				continue
			}
			changed++
			if !r.Previous.Present {
				fmt.Fprintf(out, "%s %s\n", ui.RenderAccent("new file"), r.Target.Rel)
				continue
			}
			if r.Drifted {
				fmt.Fprintf(out, "%s %s\n", ui.RenderWarn("hand-edited"), r.Target.Rel)
			}
			fmt.Fprint(out, artifact.Diff(r.Target.Rel, r.Previous.Content, r.Artifact.Content))
		}
		if changed == 0 {
			fmt.Fprintln(out, ui.RenderPass("No changes."))
		}
		return nil
	},
}
