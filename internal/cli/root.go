package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dogfold-labs/dogfold/internal/branding"
	"github.com/dogfold-labs/dogfold/internal/config"
	"github.com/dogfold-labs/dogfold/internal/ui"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// Persistent flags shared by every command.
var (
	flagVerbose   bool
	flagRoot      string
	flagRegistry  string
	flagTemplates string
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` keeps a registry of domains and verbs and generates the source
of each verb from versioned templates. The generator's own verbs are
registered the same way, so it can regenerate its own source.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
		if flagVerbose {
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
		} else {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Log every phase of a run to stderr")
	pf.StringVar(&flagRoot, "root", ".", "Project root")
	pf.StringVar(&flagRegistry, "registry", "", "Registry manifest (default: <root>/"+branding.HomeDir()+"/registry.yaml)")
	pf.StringVar(&flagTemplates, "templates", "", "Directory of template overrides layered over the built-ins")
}

// Execute runs the root command with build info injected via ldflags. The
// error, if any, has already been printed.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
	}
	return err
}
