package bootstrap

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/dogfold-labs/dogfold/internal/artifact"
	"github.com/dogfold-labs/dogfold/internal/branding"
	"github.com/dogfold-labs/dogfold/internal/dogerr"
	"github.com/dogfold-labs/dogfold/internal/registry"
	"github.com/dogfold-labs/dogfold/internal/render"
	"github.com/dogfold-labs/dogfold/internal/resolve"
	"github.com/dogfold-labs/dogfold/internal/templates"
)

// Catalog is the part of the registry a run reads from.
type Catalog interface {
	Lookup(domain, id string) (*registry.Verb, error)
	Domain(qualified string) (*registry.Domain, error)
	List(domain string, sorted bool) iter.Seq[*registry.Verb]
}

// ProjectDomain holds the skeleton of a new project.
const ProjectDomain = "project"

// Request selects what a run generates and how it treats what is on disk.
// With no Verbs and no Domains every registered verb is planned except the
// self-targeted ones and the project skeleton.
type Request struct {
	Root    string
	Verbs   []string // qualified verb identifiers, e.g. "tools.install"
	Domains []string // every verb of each named domain

	// Self limits an unselective plan to the self-targeted verbs and
	// requires Root to be the tool's own source tree.
	Self bool

	Vars     map[string]string // caller overrides
	OnExists ExistsPolicy
	OnDrift  DriftPolicy
	Strict   bool

	// ContinueOnError keeps writing after a failed artifact and reports
	// partial success. By default the first failure fails the whole run.
	ContinueOnError bool

	// DryRun stops after VALIDATING. Artifacts that would change are
	// reported as pending.
	DryRun bool
}

// Orchestrator runs generation requests against a catalog and a template
// store.
type Orchestrator struct {
	catalog     Catalog
	store       *templates.Store
	fs          afero.Fs
	logger      *slog.Logger
	resolveOpts []resolve.Option
	newRunID    func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFs sets the filesystem artifacts and the ledger are written through.
func WithFs(fsys afero.Fs) Option {
	return func(o *Orchestrator) { o.fs = fsys }
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSelfModule overrides the module a root must declare to accept self
// targets.
func WithSelfModule(module string) Option {
	return func(o *Orchestrator) { o.resolveOpts = append(o.resolveOpts, resolve.WithSelfModule(module)) }
}

// New returns an Orchestrator.
func New(catalog Catalog, store *templates.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:  catalog,
		store:    store,
		fs:       afero.NewOsFs(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run is the state of one generation run.
type run struct {
	o        *Orchestrator
	req      Request
	log      *slog.Logger
	summary  *Summary
	verbs    []*registry.Verb
	tmpls    []*templates.Template
	derived  []map[string]string
	pending  []bool
	writer   *artifact.Writer
	ledger   *artifact.Ledger
	ledgerAt string
	touched  bool
}

// Run executes req. The returned summary is never nil; it lists one result
// per planned verb even when the run fails. The error is the cause of a
// failed run or, when ContinueOnError is set, the joined per-verb failures.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Summary, error) {
	if req.OnExists == "" {
		req.OnExists = ExistsSkip
	}
	if req.OnDrift == "" {
		req.OnDrift = DriftRefuse
	}
	if req.Root == "" {
		req.Root = "."
	}

	id := o.newRunID()
	r := &run{
		o:       o,
		req:     req,
		log:     o.logger.With("run_id", id),
		summary: &Summary{RunID: id, Root: req.Root, Phase: PhasePlanning, DryRun: req.DryRun},
		writer:  artifact.NewWriter(o.fs),
	}
	r.log.Debug("run started", "root", req.Root, "verbs", req.Verbs, "domains", req.Domains, "self", req.Self, "dry_run", req.DryRun)

	if err := r.plan(); err != nil {
		return r.fail(err)
	}
	steps := []struct {
		phase Phase
		fn    func(context.Context) error
	}{
		{PhaseResolving, r.resolve},
		{PhaseRendering, r.render},
		{PhaseValidating, r.validate},
	}
	for _, step := range steps {
		if err := r.enter(ctx, step.phase); err != nil {
			return r.fail(err)
		}
		if err := step.fn(ctx); err != nil {
			return r.fail(err)
		}
	}

	if req.DryRun {
		for i := range r.summary.Results {
			if r.pending[i] && r.summary.Results[i].Outcome == "" {
				r.summary.Results[i].Outcome = OutcomePending
			}
		}
		return r.finish()
	}

	if err := r.enter(ctx, PhaseWriting); err != nil {
		return r.fail(err)
	}
	err := r.write(ctx)
	if r.touched {
		// Files already written stay, so the ledger must describe them even
		// when the run was cancelled.
		r.ledger.RunID = id
		if serr := r.ledger.Save(context.WithoutCancel(ctx), r.o.fs, r.ledgerAt); serr != nil {
			err = errors.Join(err, serr)
		}
	}
	if err != nil {
		return r.fail(err)
	}
	return r.finish()
}

// enter moves the run to next after checking for cancellation.
func (r *run) enter(ctx context.Context, next Phase) error {
	if err := ctx.Err(); err != nil {
		return dogerr.Generationf("bootstrap.run", "run cancelled before %s", next).
			WithReason(dogerr.ReasonAborted).Wrap(err)
	}
	if err := checkTransition(r.summary.Phase, next); err != nil {
		return err
	}
	r.log.Debug("phase", "from", r.summary.Phase, "to", next)
	r.summary.Phase = next
	return nil
}

// finish ends a run that was not aborted.
func (r *run) finish() (*Summary, error) {
	if err := checkTransition(r.summary.Phase, PhaseDone); err != nil {
		return r.fail(err)
	}
	r.summary.Phase = PhaseDone
	r.log.Info("run finished",
		"written", r.summary.Count(OutcomeWritten),
		"stable", r.summary.Count(OutcomeStable),
		"skipped", r.summary.Count(OutcomeSkippedExists),
		"pending", r.summary.Count(OutcomePending),
		"failed", r.summary.Count(OutcomeFailed))
	return r.summary, r.summary.Err()
}

// fail ends the run in FAILED. Every verb without an outcome is marked
// failed as aborted.
func (r *run) fail(cause error) (*Summary, error) {
	phase := r.summary.Phase
	for i := range r.summary.Results {
		res := &r.summary.Results[i]
		if res.Outcome != "" {
			continue
		}
		res.Outcome = OutcomeFailed
		res.Err = dogerr.Generationf("bootstrap.run", "aborted: run failed during %s", phase).
			WithReason(dogerr.ReasonAborted).WithVerb(res.Verb)
	}
	r.summary.Phase = PhaseFailed
	r.log.Error("run failed", "phase", phase, "error", cause)
	return r.summary, cause
}

// failVerb records err as the outcome of verb i.
func (r *run) failVerb(i int, err error) {
	res := &r.summary.Results[i]
	res.Outcome = OutcomeFailed
	res.Err = err
	r.log.Warn("verb failed", "verb", res.Verb, "error", err)
}

func (r *run) indexOf(verb string) int {
	for i, v := range r.verbs {
		if v.Qualified() == verb {
			return i
		}
	}
	return -1
}

// plan selects the verbs of the run in request order without duplicates.
func (r *run) plan() error {
	const op = "bootstrap.plan"

	seen := map[string]bool{}
	add := func(v *registry.Verb) {
		if q := v.Qualified(); !seen[q] {
			seen[q] = true
			r.verbs = append(r.verbs, v)
		}
	}

	for _, q := range r.req.Verbs {
		domain, id, ok := SplitQualified(q)
		if !ok {
			return dogerr.Validationf(op, "%q is not a domain.verb identifier", q).WithVerb(q)
		}
		v, err := r.o.catalog.Lookup(domain, id)
		if err != nil {
			return err
		}
		add(v)
	}
	for _, d := range r.req.Domains {
		if _, err := r.o.catalog.Domain(d); err != nil {
			return err
		}
		for v := range r.o.catalog.List(d, false) {
			add(v)
		}
	}
	if len(r.req.Verbs) == 0 && len(r.req.Domains) == 0 {
		for v := range r.o.catalog.List("", false) {
			if defaultSelected(v, r.req.Self) {
				add(v)
			}
		}
	}

	n := len(r.verbs)
	r.summary.Results = make([]Result, n)
	r.tmpls = make([]*templates.Template, n)
	r.derived = make([]map[string]string, n)
	r.pending = make([]bool, n)
	for i, v := range r.verbs {
		r.summary.Results[i].Verb = v.Qualified()
	}
	r.log.Debug("planned", "count", n)
	return nil
}

// defaultSelected reports whether a run without an explicit selection covers
// v. Self runs take the self-targeted verbs only; other runs take everything
// else except the project skeleton, which init selects by domain.
func defaultSelected(v *registry.Verb, self bool) bool {
	if self {
		return v.Policy.Kind == resolve.KindSelf
	}
	return v.Policy.Kind != resolve.KindSelf && v.Domain != ProjectDomain
}

// resolve computes every target before anything is rendered or written.
func (r *run) resolve(context.Context) error {
	const op = "bootstrap.resolve"

	resolver, err := resolve.New(r.req.Root, r.o.resolveOpts...)
	if err != nil {
		return err
	}
	if r.req.Self && !resolver.IsSelf() {
		return dogerr.Validationf(op, "%s is not the %s source tree", resolver.Root(), branding.DisplayName()).
			WithPath(resolver.Root())
	}
	r.ledgerAt = branding.StatePath(resolver.Root(), artifact.LedgerFile)

	reqs := make([]resolve.Request, len(r.verbs))
	for i, v := range r.verbs {
		t, err := r.o.store.Get(v.Template)
		if err != nil {
			err = withVerb(err, v.Qualified())
			r.failVerb(i, err)
			return err
		}
		r.tmpls[i] = t
		r.derived[i] = verbData(v, resolver.Module())
		reqs[i] = resolve.Request{
			Verb:   v.Qualified(),
			Domain: v.Domain,
			ID:     v.ID,
			Policy: v.Policy,
			Ext:    t.Ext(),
			Vars:   merge(r.derived[i], r.req.Vars),
		}
	}

	targets, err := resolver.ResolveAll(reqs)
	if err != nil {
		var derr *dogerr.Error
		if !errors.As(err, &derr) {
			return err
		}
		if i := r.indexOf(derr.Verb); i >= 0 {
			r.failVerb(i, err)
		}
		if derr.Reason == dogerr.ReasonCollision {
			return dogerr.Generationf(op, "plan rejected, nothing was written").
				WithReason(dogerr.ReasonCollision).WithPath(derr.Path).Wrap(err)
		}
		return err
	}
	for i, t := range targets {
		r.summary.Results[i].Target = t
	}
	return nil
}

// render produces every artifact in memory.
func (r *run) render(context.Context) error {
	declared, err := r.declared()
	if err != nil {
		return err
	}
	engine := render.NewEngine(r.o.store, render.WithStrict(r.req.Strict), render.WithDeclared(declared))
	for i, v := range r.verbs {
		res := &r.summary.Results[i]
		c := render.NewContext()
		c.SetAll(targetData(r.derived[i], res.Target), render.SourceDerived)
		c.SetAll(r.req.Vars, render.SourceOverride)

		body, err := engine.Render(r.tmpls[i], c)
		if err != nil {
			err = withVerb(err, v.Qualified())
			r.failVerb(i, err)
			return err
		}
		res.Artifact = artifact.New(res.Target, v.Qualified(), v.Version.String(), body, r.tmpls[i].Mode)
		res.Hash = res.Artifact.Hash
	}
	return nil
}

// declared returns the sorted union of the variables every planned template
// closure declares. Strict mode checks overrides against the whole batch.
func (r *run) declared() ([]string, error) {
	seen := map[string]bool{}
	for i, t := range r.tmpls {
		names, err := r.o.store.RequiredVariables(t)
		if err != nil {
			err = withVerb(err, r.verbs[i].Qualified())
			r.failVerb(i, err)
			return nil, err
		}
		for _, n := range names {
			seen[n] = true
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// validate compares every artifact with the ledger and the file on disk and
// decides what WRITING does with it.
func (r *run) validate(context.Context) error {
	const op = "bootstrap.validate"

	ledger, err := artifact.LoadLedger(r.o.fs, r.ledgerAt)
	if err != nil {
		return err
	}
	r.ledger = ledger

	var first error
	abort := false
	for i := range r.summary.Results {
		res := &r.summary.Results[i]
		a := res.Artifact
		st, err := r.writer.Inspect(a)
		if err != nil {
			r.failVerb(i, err)
			first = firstOf(first, err)
			continue
		}
		res.Previous = st
		recorded, inLedger := r.ledger.Lookup(a.Target.Rel)

		switch {
		case !st.Present:
			r.pending[i] = true

		case st.Unchanged(a):
			res.Outcome = OutcomeStable
			if recorded.Hash != a.Hash {
				r.ledger.Record(a.Target.Rel, entryFor(a))
				r.touched = true
			}

		case st.Generated || inLedger:
			res.Drifted = st.Drifted || !st.Generated || (inLedger && recorded.Hash != st.Provenance.Hash)
			if !res.Drifted {
				r.pending[i] = true
				break
			}
			switch r.req.OnDrift {
			case DriftWarn:
				r.log.Warn("overwriting hand-edited file", "verb", res.Verb, "path", a.Target.Rel)
				r.pending[i] = true
			case DriftOverwrite:
				r.pending[i] = true
			default:
				err := dogerr.Validationf(op, "generated file was edited by hand; set on_drift to overwrite it").
					WithReason(dogerr.ReasonDrift).WithVerb(res.Verb).WithPath(a.Target.Rel)
				r.failVerb(i, err)
				first = firstOf(first, err)
			}

		default:
			switch r.req.OnExists {
			case ExistsOverwrite:
				r.pending[i] = true
			case ExistsError:
				err := dogerr.Validationf(op, "target already exists and was not generated").
					WithReason(dogerr.ReasonExists).WithVerb(res.Verb).WithPath(a.Target.Rel)
				r.failVerb(i, err)
				first = firstOf(first, err)
				abort = true
			default:
				res.Outcome = OutcomeSkippedExists
				r.log.Info("skipping existing file", "verb", res.Verb, "path", a.Target.Rel)
			}
		}
	}

	if first != nil && (abort || !(r.req.ContinueOnError || r.req.DryRun)) {
		return first
	}
	return nil
}

// write writes every pending artifact in plan order.
func (r *run) write(ctx context.Context) error {
	for i := range r.summary.Results {
		res := &r.summary.Results[i]
		if !r.pending[i] || res.Outcome != "" {
			continue
		}
		a := res.Artifact
		if err := r.writer.Write(ctx, a); err != nil {
			r.failVerb(i, err)
			if !r.req.ContinueOnError {
				return err
			}
			continue
		}
		res.Outcome = OutcomeWritten
		r.ledger.Record(a.Target.Rel, entryFor(a))
		r.touched = true
		r.log.Info("artifact written", "verb", res.Verb, "path", a.Target.Rel, "hash", a.Hash, "drifted", res.Drifted)
	}
	return nil
}

func entryFor(a *artifact.Artifact) artifact.Entry {
	return artifact.Entry{Verb: a.Verb, Version: a.Version, Hash: a.Hash}
}

func firstOf(first, err error) error {
	if first != nil {
		return first
	}
	return err
}

// SplitQualified splits "domain.verb" at its last dot, so nested domains
// keep their own dots: "tools.remote.fetch" is verb "fetch" of
// "tools.remote".
func SplitQualified(q string) (domain, id string, ok bool) {
	i := strings.LastIndexByte(q, '.')
	if i <= 0 || i == len(q)-1 {
		return "", "", false
	}
	return q[:i], q[i+1:], true
}

func withVerb(err error, verb string) error {
	var derr *dogerr.Error
	if errors.As(err, &derr) && derr.Verb == "" {
		derr.Verb = verb
	}
	return err
}
