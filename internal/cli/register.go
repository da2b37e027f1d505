package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dogfold-labs/dogfold/internal/bootstrap"
	"github.com/dogfold-labs/dogfold/internal/resolve"
	"github.com/dogfold-labs/dogfold/internal/verbs"
)

var (
	registerParent   string
	registerTemplate string
	registerTarget   string
	registerVersion  string
	registerNoDirs   bool
)

func init() {
	registerDomainCmd.Flags().StringVar(&registerParent, "parent", "", "Qualified name of the parent domain")
	registerDomainCmd.Flags().BoolVar(&registerNoDirs, "no-dirs", false, "Do not create the domain's verbs/ and classes/ directories")

	registerVerbCmd.Flags().StringVar(&registerTemplate, "template", "", "Template reference (default: verbs/<verb>.go if present, else verb.go)")
	registerVerbCmd.Flags().StringVar(&registerTarget, "target", "", "Where the source goes: self, a path with {placeholders}, or empty for the package convention")
	registerVerbCmd.Flags().StringVar(&registerVersion, "version", "1.0.0", "Semantic version of the verb")

	registerCmd.AddCommand(registerDomainCmd)
	registerCmd.AddCommand(registerVerbCmd)
	registerCmd.AddCommand(registerCLICmd)
	rootCmd.AddCommand(registerCmd)
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Add domains and verbs to the registry without generating",
}

var registerDomainCmd = &cobra.Command{
	Use:   "domain <name>",
	Short: "Register a domain",
	Long: `Register a domain and create its directory skeleton under internal/:
<domain>/verbs and <domain>/classes.`,
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
		s, err := openSession(cmd.Context(), root)
		if err != nil {
			return err
		}
		verb := verbs.RegisterVerb{RegisterDomain: func(ctx context.Context, name, parent string) error {
			d, err := s.reg.RegisterDomain(ctx, name, parent)
			if err != nil {
				return err
			}
			if err := s.reg.Flush(ctx); err != nil {
				return err
			}
			if !registerNoDirs {
				base := filepath.Join(root, resolve.DefaultBase, filepath.FromSlash(strings.ReplaceAll(d.Qualified(), ".", "/")))
				for _, sub := range []string{"verbs", "classes"} {
					if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
						return fmt.Errorf("creating domain skeleton: %w", err)
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered domain %s\n", d.Qualified())
			return nil
		}}
		verbArgs := []string{name}
		if registerParent != "" {
			verbArgs = append(verbArgs, registerParent)
		}
		return verb.Run(cmd.Context(), verbArgs)
	},
}

var registerVerbCmd = &cobra.Command{
	Use:   "verb <domain.verb>",
	Short: "Register a verb",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := resolve.ParseTarget(registerTarget)
		if err != nil {
			return err
		}
		root, err := rootDir()
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context(), root)
		if err != nil {
			return err
		}
		verb := verbs.DefineVerb{Register: func(ctx context.Context, domain, id string) error {
			tmpl := registerTemplate
			if tmpl == "" {
				tmpl = bootstrap.DefaultTemplate(s.store, id)
			}
			v, err := s.reg.Register(ctx, domain, id, tmpl, policy, registerVersion)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s %s (%s, %s)\n", v.Qualified(), v.Version, v.Template, v.Policy)
			return nil
		}}
		return verb.Run(cmd.Context(), args)
	},
}

// cliDomain holds the commands of a generated command line project.
const cliDomain = "cli"

var registerCLICmd = &cobra.Command{
	Use:   "cli <name>",
	Short: "Register a command of the project's command line",
	Long: `Register <name> as a verb of the "cli" domain, targeting
internal/cli/<name>.go. The domain is created when missing.`,
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
		s, err := openSession(cmd.Context(), root)
		if err != nil {
			return err
		}
		if _, err := s.reg.RegisterDomain(cmd.Context(), cliDomain, ""); err != nil {
			return err
		}
		policy := resolve.Policy{Kind: resolve.KindExplicitPath, Path: "internal/cli/{file_name}.go"}
		v, err := s.reg.Register(cmd.Context(), cliDomain, name, "verb.go", policy, "1.0.0")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", v.Qualified(), v.Policy)
		return nil
	},
}
