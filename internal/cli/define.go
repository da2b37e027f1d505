package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dogfold-labs/dogfold/internal/bootstrap"
	"github.com/dogfold-labs/dogfold/internal/dogerr"
	"github.com/dogfold-labs/dogfold/internal/resolve"
	"github.com/dogfold-labs/dogfold/internal/templates"
	"github.com/dogfold-labs/dogfold/internal/ui"
)

var (
	defineDomain   string
	defineVersion  string
	defineTarget   string
	defineTemplate string
)

func init() {
	for _, c := range []*cobra.Command{defineCmd, defineClassCmd} {
		c.Flags().StringVar(&defineDomain, "domain", "", "Domain of the verb")
		c.Flags().StringVar(&defineVersion, "version", "1.0.0", "Semantic version of the verb")
		c.Flags().StringVar(&defineTarget, "target", "", "Where the source goes: self, a path with {placeholders}, or empty for the package convention")
		c.Flags().StringVar(&defineTemplate, "template", "", "Template reference (default: verbs/<verb>.go if present, else verb.go)")
	}
	defineCmd.AddCommand(defineClassCmd)
	rootCmd.AddCommand(defineCmd)
}

var defineCmd = &cobra.Command{
	Use:   "define <domain.verb>",
	Short: "Register a verb and generate its source",
	Long: `Register a verb and generate its source in one step.

The identifier is split at its first dot unless --domain is given.

Examples:
  dog define tools.install
  dog define install --domain tools --target 'cmd/{name}.go'
  dog define scaffold --domain verbs --target self`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, id, err := splitIdentifier(args[0], defineDomain)
		if err != nil {
			return err
		}
		policy, err := resolve.ParseTarget(defineTarget)
		if err != nil {
			return err
		}
		return defineAndGenerate(cmd.Context(), cmd.OutOrStdout(), domain, id, defineTemplate, policy)
	},
}

var defineClassCmd = &cobra.Command{
	Use:   "class <ClassName>",
	Short: "Register a base class and generate its source",
	Long: `Register a base class for the verbs of a domain and generate it from the
class.go template into the domain's classes directory. The domain defaults to
"classes", the generator's own class domain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		class := args[0]
		id := templates.Kebab(class)
		if err := validateName(id); err != nil {
			return fmt.Errorf("invalid class name %q: %w", class, err)
		}
		domain := defineDomain
		if domain == "" {
			domain = "classes"
		}

		policy, err := resolve.ParseTarget(defineTarget)
		if err != nil {
			return err
		}
		if defineTarget == "" {
			policy = classPolicy(domain)
		}
		tmpl := defineTemplate
		if tmpl == "" {
			tmpl = "class.go"
		}
		return defineAndGenerate(cmd.Context(), cmd.OutOrStdout(), domain, id, tmpl, policy)
	},
}

// classPolicy places a class under the classes directory of its domain.
func classPolicy(domain string) resolve.Policy {
	if domain == "classes" {
		return resolve.Policy{Kind: resolve.KindPackageConvention}
	}
	return resolve.Policy{
		Kind: resolve.KindExplicitPath,
		Path: resolve.DefaultBase + "/" + strings.ReplaceAll(domain, ".", "/") + "/classes/{file_name}.go",
	}
}

func defineAndGenerate(ctx context.Context, out io.Writer, domain, id, tmpl string, policy resolve.Policy) error {
	root, err := rootDir()
	if err != nil {
		return err
	}
	s, err := openSession(ctx, root)
	if err != nil {
		return err
	}
	if tmpl == "" {
		tmpl = bootstrap.DefaultTemplate(s.store, id)
	}

	if _, err := s.reg.Domain(domain); err != nil {
		return fmt.Errorf("%w (register it first with 'register domain %s')", err, domain)
	}
	verb, err := s.reg.Register(ctx, domain, id, tmpl, policy, defineVersion)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Registered %s %s (%s, %s)\n", verb.Qualified(), verb.Version, verb.Template, verb.Policy)

	req, err := s.request()
	if err != nil {
		return err
	}
	req.Verbs = []string{verb.Qualified()}
	summary, err := s.orchestrator().Run(ctx, req)
	ui.PrintSummary(out, summary)
	return err
}

// splitIdentifier splits "domain.verb" at the first dot. An explicit domain
// takes the whole identifier as the verb.
func splitIdentifier(identifier, domain string) (string, string, error) {
	if domain != "" {
		return domain, identifier, nil
	}
	d, id, ok := strings.Cut(identifier, ".")
	if !ok || d == "" || id == "" {
		return "", "", dogerr.Validationf("cli.define", "%q is not a domain.verb identifier; use --domain for a bare verb name", identifier)
	}
	return d, id, nil
}
