package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dogfold-labs/dogfold/internal/bootstrap"
	"github.com/dogfold-labs/dogfold/internal/config"
	"github.com/dogfold-labs/dogfold/internal/dogerr"
	"github.com/dogfold-labs/dogfold/internal/ui"
	"github.com/dogfold-labs/dogfold/internal/watch"
)

var (
	regenCheck bool
	regenWatch bool
)

func init() {
	regenCmd.Flags().BoolVar(&regenCheck, "check", false, "Write nothing; fail unless every artifact is stable")
	regenCmd.Flags().BoolVar(&regenWatch, "watch", false, "Regenerate whenever the registry or template overrides change")
	regenCmd.MarkFlagsMutuallyExclusive("check", "watch")
	rootCmd.AddCommand(regenCmd)
}

var regenCmd = &cobra.Command{
	Use:   "regen",
	Short: "Regenerate the generator's own source",
	Long: `Run every verb with the self policy against the generator's own source
tree (the self_root setting, else --root). A second run over an unchanged
registry reports every artifact as stable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := selfRoot(cmd)
		if err != nil {
			return err
		}
		if regenWatch {
			return watchRegen(cmd, root)
		}
		summary, err := regenOnce(cmd, root)
		if err != nil {
			return err
		}
		if regenCheck && len(summary.Results) == 0 {
			return dogerr.Generationf("cli.regen", "no self verbs planned; nothing to check").WithPath(root)
		}
		if regenCheck && !summary.Converged() {
			return dogerr.Generationf("cli.regen", "%d artifact(s) out of date; run 'regen' to update them",
				len(summary.Results)-summary.Count(bootstrap.OutcomeStable)).WithPath(root)
		}
		return nil
	},
}

func selfRoot(cmd *cobra.Command) (string, error) {
	if !cmd.Flags().Changed("root") {
		if r := config.Current().SelfRoot; r != "" {
			return filepath.Abs(r)
		}
	}
	return rootDir()
}

func regenOnce(cmd *cobra.Command, root string) (*bootstrap.Summary, error) {
	s, err := openSession(cmd.Context(), root)
	if err != nil {
		return nil, err
	}
	req, err := s.request()
	if err != nil {
		return nil, err
	}
	req.Self = true
	req.DryRun = regenCheck

	summary, err := s.orchestrator().Run(cmd.Context(), req)
	ui.PrintSummary(cmd.OutOrStdout(), summary)
	return summary, err
}

func watchRegen(cmd *cobra.Command, root string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	settings := config.Current()
	manifestPath := registryPath(root, settings)
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}
	cfg := watch.Config{Files: []string{manifestPath}}
	if dir := templatesDir(settings); dir != "" {
		cfg.Dirs = append(cfg.Dirs, dir)
	}
	w, err := watch.New(cfg)
	if err != nil {
		return err
	}
	defer w.Stop()
	changes, err := w.Start()
	if err != nil {
		return err
	}

	if _, err := regenOnce(cmd, root); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", ui.RenderFail("Error:"), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMuted("Watching for changes, press Ctrl+C to stop."))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors():
			logger.Warn("watch error", "error", err)
		case <-changes:
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderCategory("Change detected"))
			if _, err := regenOnce(cmd, root); err != nil && !isCancelled(ctx, err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", ui.RenderFail("Error:"), err)
			}
		}
	}
}

func isCancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && dogerr.ReasonOf(err) == dogerr.ReasonAborted
}
