package cli

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/dogfold-labs/dogfold/internal/bootstrap"
	"github.com/dogfold-labs/dogfold/internal/branding"
	"github.com/dogfold-labs/dogfold/internal/templates"
	"github.com/dogfold-labs/dogfold/internal/ui"
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

var (
	initForce  bool
	initModule string
)

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files that were not generated")
	initCmd.Flags().StringVar(&initModule, "module", "", "Go module path (default: example.com/<name>)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a new command line project",
	Long: `Create ./<name> from the built-in project domain: README, go.mod, Makefile,
an entry point and a root command. The new project gets its own registry at
<name>/` + branding.HomeDir() + `/registry.yaml.

Existing files that were not generated are skipped unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := validateName(name); err != nil {
			return err
		}
		root, err := rootDir()
		if err != nil {
			return err
		}
		dir := filepath.Join(root, name)
		module := initModule
		if module == "" {
			module = "example.com/" + name
		}

		s, err := openSession(cmd.Context(), dir)
		if err != nil {
			return err
		}
		req, err := s.request()
		if err != nil {
			return err
		}
		req.Domains = []string{"project"}
		req.Vars = map[string]string{
			"name":      name,
			"module":    module,
			"type_name": templates.Pascal(name),
		}
		req.OnExists = bootstrap.ExistsSkip
		if initForce {
			req.OnExists = bootstrap.ExistsOverwrite
		}

		summary, runErr := s.orchestrator().Run(cmd.Context(), req)
		ui.PrintSummary(cmd.OutOrStdout(), summary)
		if runErr != nil {
			return runErr
		}
		if err := s.reg.Flush(cmd.Context()); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nCreated %s at %s\n", name, dir)
		fmt.Fprintln(cmd.OutOrStdout(), "Next steps:")
		fmt.Fprintf(cmd.OutOrStdout(), "  cd %s && make build\n", name)
		return nil
	},
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid name %q: must match pattern [a-z][a-z0-9-]*", name)
	}
	return nil
}
