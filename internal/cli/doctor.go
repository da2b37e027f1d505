package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dogfold-labs/dogfold/internal/artifact"
	"github.com/dogfold-labs/dogfold/internal/branding"
	"github.com/dogfold-labs/dogfold/internal/config"
	"github.com/dogfold-labs/dogfold/internal/registry"
)

var doctorFix bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair what can be repaired without regenerating")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the configuration, registry and generated files of a root",
	Long: `Check that the user configuration is valid, the templates load, the registry
manifest parses, and every file recorded in the ledger is still on disk and
untouched. With --fix, missing directories and an unwritten seed manifest are
created. Drifted files are only reported; use diff and define to resolve them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := rootDir()
		if err != nil {
			return err
		}
		d := &doctor{w: cmd.OutOrStdout(), fix: doctorFix}
		d.checkConfig()
		d.checkRoot(cmd.Context(), root)
		if d.failed > 0 {
			return fmt.Errorf("doctor found %d problem(s)", d.failed)
		}
		return nil
	},
}

// doctor prints one status line per check and counts failures.
type doctor struct {
	w      io.Writer
	fix    bool
	failed int
}

func (d *doctor) ok(format string, args ...any)    { d.line("[ OK ]", format, args...) }
func (d *doctor) warn(format string, args ...any)  { d.line("[WARN]", format, args...) }
func (d *doctor) miss(format string, args ...any)  { d.line("[MISS]", format, args...) }
func (d *doctor) fixed(format string, args ...any) { d.line("[FIX ]", format, args...) }

func (d *doctor) fail(format string, args ...any) {
	d.failed++
	d.line("[FAIL]", format, args...)
}

func (d *doctor) line(tag, format string, args ...any) {
	fmt.Fprintf(d.w, "  %s %s\n", tag, fmt.Sprintf(format, args...))
}

func (d *doctor) checkConfig() {
	fmt.Fprintln(d.w, "Configuration:")
	dir := config.Dir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		d.miss("%s does not exist", dir)
		if d.fix {
			if err := config.EnsureDir(); err != nil {
				d.fail("could not create %s: %v", dir, err)
			} else {
				d.fixed("created %s", dir)
			}
		}
	} else {
		d.ok("%s exists", dir)
	}

	for _, key := range config.Keys() {
		value := config.Get(key)
		if value == "" {
			continue
		}
		if err := config.Validate(key, value); err != nil {
			d.fail("%v", err)
		}
	}
}

func (d *doctor) checkRoot(ctx context.Context, root string) {
	fmt.Fprintf(d.w, "Root %s:\n", root)
	settings := config.Current()

	store, err := loadTemplates(settings)
	if err != nil {
		d.fail("templates: %v", err)
		return
	}
	d.ok("%d templates loaded", len(store.List()))

	path := registryPath(root, settings)
	reg, err := registry.Open(ctx, path, registry.WithTemplates(store), registry.WithLogger(logger))
	if err != nil {
		d.fail("registry: %v", err)
		return
	}
	switch {
	case !reg.Seeded():
		d.ok("%s is valid", path)
	case d.fix:
		if err := reg.Flush(ctx); err != nil {
			d.fail("could not write %s: %v", path, err)
		} else {
			d.fixed("wrote the built-in registry to %s", path)
		}
	default:
		d.miss("%s does not exist; the built-in registry is in use", path)
	}

	d.checkLedger(root)
}

func (d *doctor) checkLedger(root string) {
	fsys := afero.NewOsFs()
	ledger, err := artifact.LoadLedger(fsys, branding.StatePath(root, artifact.LedgerFile))
	if err != nil {
		d.fail("ledger: %v", err)
		return
	}
	if len(ledger.Entries) == 0 {
		d.ok("nothing generated yet")
		return
	}

	rels := make([]string, 0, len(ledger.Entries))
	for rel := range ledger.Entries {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	clean := 0
	for _, rel := range rels {
		entry := ledger.Entries[rel]
		st, err := artifact.Inspect(fsys, filepath.Join(root, filepath.FromSlash(rel)), rel)
		switch {
		case err != nil:
			d.fail("%s: %v", rel, err)
		case !st.Present:
			d.miss("%s (%s) was deleted", rel, entry.Verb)
		case !st.Generated:
			d.warn("%s (%s) lost its provenance header", rel, entry.Verb)
		case st.Drifted || st.Provenance.Hash != entry.Hash:
			d.warn("%s (%s) was edited by hand", rel, entry.Verb)
		default:
			clean++
		}
	}
	d.ok("%d of %d generated files untouched", clean, len(rels))
}
