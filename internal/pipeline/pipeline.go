package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/go-github/v43/github"

	"github.com/feedtick/feedtick/internal/common/logger"
	"github.com/feedtick/feedtick/internal/feedstock"
	"github.com/feedtick/feedtick/internal/forge"
	"github.com/feedtick/feedtick/internal/update"
)

// ForgeClient is the slice of the GitHub client the pipeline needs.
type ForgeClient interface {
	BuildInventory(ctx context.Context, ignored map[string]struct{}) (*feedstock.Snapshot, []forge.Skipped, error)
	EnsureEvenFork(ctx context.Context, repoName string) (*github.Repository, error)
	CommitRecipe(ctx context.Context, repoName, version, blobSHA string, content []byte) error
	OpenPullRequest(ctx context.Context, repoName, title, body string) (string, error)
}

// VersionSource answers upstream version and source-hash queries.
type VersionSource interface {
	Lookup(ctx context.Context) func(name string) (string, bool)
	SourceSHA256(ctx context.Context, name, version, bundleType string) (string, error)
}

// Renderer re-renders a fork after the version commit.
type Renderer interface {
	Rerender(ctx context.Context, cloneURL, repoName string) error
}

// CheckReport is the outcome of a check run.
type CheckReport struct {
	// Snapshot is the inventory the run classified
	Snapshot *feedstock.Snapshot
	// Skipped lists feedstocks that could not be inventoried
	Skipped []forge.Skipped
	// Stale names every feedstock with a newer upstream version
	Stale update.StaleSet
	// Safe names the stale feedstocks whose dependencies are all current
	Safe update.StaleSet
	// Latest maps every successfully looked-up feedstock to its upstream version
	Latest map[string]string
}

// TickResult is the outcome of ticking one feedstock.
type TickResult struct {
	Name           string
	From           string
	To             string
	Status         TickStatus
	PullRequestURL string
	Err            error
}

// Pipeline wires the forge, the version source, and the renderer into the
// check and tick operations.
type Pipeline struct {
	forge       ForgeClient
	source      VersionSource
	renderer    Renderer
	pending     *PendingList
	ignored     map[string]struct{}
	skip        map[string]struct{}
	bundleTypes map[string]string
	log         *logger.Logger
}

// Option is a functional option for configuring Pipeline
type Option func(*Pipeline)

// WithRenderer enables conda-smithy rerendering after the version commit.
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) {
		p.renderer = r
	}
}

// WithPendingList persists detected updates across runs.
func WithPendingList(pending *PendingList) Option {
	return func(p *Pipeline) {
		p.pending = pending
	}
}

// WithIgnoredRequirements overrides the requirement names that never count
// as dependencies.
func WithIgnoredRequirements(ignored map[string]struct{}) Option {
	return func(p *Pipeline) {
		p.ignored = ignored
	}
}

// WithSkip excludes the named feedstocks from classification and ticking.
func WithSkip(skip map[string]struct{}) Option {
	return func(p *Pipeline) {
		p.skip = skip
	}
}

// WithBundleTypes overrides the source-bundle extension per feedstock for
// recipes whose filename does not follow the name-version-extension shape.
func WithBundleTypes(types map[string]string) Option {
	return func(p *Pipeline) {
		p.bundleTypes = types
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// New creates a pipeline over the given forge and version source.
func New(forgeClient ForgeClient, source VersionSource, opts ...Option) *Pipeline {
	p := &Pipeline{
		forge:  forgeClient,
		source: source,
		log:    logger.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check builds the inventory, classifies staleness, and filters the safe
// subset. Lookup failures degrade to "not stale"; inventory failures for a
// single feedstock degrade to a skip. An empty safe set is a normal outcome.
func (p *Pipeline) Check(ctx context.Context) (*CheckReport, error) {
	snap, skipped, err := p.forge.BuildInventory(ctx, p.ignored)
	if err != nil {
		return nil, err
	}
	for _, skip := range skipped {
		p.log.Warn("skipping %s: %v", skip.Name, skip.Reason)
	}

	latest := make(map[string]string)
	rawLookup := p.source.Lookup(ctx)
	lookup := func(name string) (string, bool) {
		version, ok := rawLookup(name)
		if ok {
			latest[name] = version
		}
		return version, ok
	}

	stale := update.Classify(snap, lookup)
	safe := update.SafeSubset(stale, snap.Dependencies())

	// Skipped feedstocks are never ticked, but they stay in the stale set so
	// their dependents remain blocked.
	for name := range p.skip {
		if safe.Has(name) {
			p.log.Debug("skipping %s per override", name)
			delete(safe, name)
		}
	}

	report := &CheckReport{
		Snapshot: snap,
		Skipped:  skipped,
		Stale:    stale,
		Safe:     safe,
		Latest:   latest,
	}

	if p.pending != nil {
		p.recordPending(report)
	}

	return report, nil
}

// recordPending mirrors the report into the pending list. An entry already
// submitted for the same target version is left alone.
func (p *Pipeline) recordPending(report *CheckReport) {
	for _, name := range report.Stale.Names() {
		fs, _ := report.Snapshot.Get(name)
		latestVersion := report.Latest[name]

		if existing, ok := p.pending.Get(name); ok {
			if existing.Status == StatusSubmitted && existing.LatestVersion == latestVersion {
				continue
			}
		}

		status := StatusBlocked
		if report.Safe.Has(name) {
			status = StatusPending
		}

		if err := p.pending.Add(PendingTick{
			Name:          name,
			PinnedVersion: fs.PinnedVersion,
			LatestVersion: latestVersion,
			Status:        status,
		}); err != nil {
			p.log.Warn("recording pending tick for %s: %v", name, err)
		}
	}
}

// Tick runs a check and then ticks every safe feedstock. Failures are
// isolated per feedstock: one broken tick never stops the rest. With dryRun
// the recipe is fetched and patched but nothing is committed or submitted.
func (p *Pipeline) Tick(ctx context.Context, dryRun bool) (*CheckReport, []TickResult, error) {
	report, err := p.Check(ctx)
	if err != nil {
		return nil, nil, err
	}

	var results []TickResult
	for _, name := range report.Safe.Names() {
		result := p.tickOne(ctx, report, name, dryRun)
		results = append(results, result)

		if result.Err != nil {
			p.log.Error("tick %s: %v", name, result.Err)
		} else {
			p.log.Info("tick %s: %s -> %s (%s)", name, result.From, result.To, result.Status)
		}

		if p.pending != nil && !dryRun {
			var saveErr error
			switch result.Status {
			case StatusSubmitted:
				saveErr = p.pending.SetStatus(name, StatusSubmitted, "", result.PullRequestURL)
			case StatusFailed:
				saveErr = p.pending.SetStatus(name, StatusFailed, result.Err.Error(), "")
			}
			if saveErr != nil {
				p.log.Warn("saving tick status for %s: %v", name, saveErr)
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return report, results, nil
}

func (p *Pipeline) tickOne(ctx context.Context, report *CheckReport, name string, dryRun bool) TickResult {
	fs, _ := report.Snapshot.Get(name)
	latestVersion := report.Latest[name]

	result := TickResult{
		Name: name,
		From: fs.PinnedVersion,
		To:   latestVersion,
	}

	fail := func(err error) TickResult {
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	recipe := fs.Recipe
	if recipe == nil {
		return fail(fmt.Errorf("no recipe payload for %s", name))
	}

	// pypi.org file listings keep the canonical package spelling, which the
	// normalized feedstock name may have lost. Scrape with the base name from
	// the recipe's own source filename.
	bundleBase := recipe.SourceBaseName()
	if bundleBase == "" {
		bundleBase = name
	}
	bundleType := recipe.BundleType()
	if bt, ok := p.bundleTypes[name]; ok {
		bundleType = bt
	}

	sha, err := p.source.SourceSHA256(ctx, bundleBase, latestVersion, bundleType)
	if err != nil {
		return fail(fmt.Errorf("fetching source hash: %w", err))
	}

	patched, err := PatchRecipe(recipe, latestVersion, sha)
	if err != nil {
		return fail(err)
	}

	if dryRun {
		result.Status = StatusPending
		return result
	}

	repoName := forge.FeedstockRepoName(name)

	fork, err := p.forge.EnsureEvenFork(ctx, repoName)
	if err != nil {
		return fail(err)
	}

	if err := p.forge.CommitRecipe(ctx, repoName, latestVersion, recipe.BlobSHA, []byte(patched)); err != nil {
		return fail(err)
	}

	if p.renderer != nil {
		if err := p.renderer.Rerender(ctx, fork.GetCloneURL(), repoName); err != nil {
			return fail(err)
		}
	}

	title := fmt.Sprintf("Update %s to %s", name, latestVersion)
	body := fmt.Sprintf("Automated version tick: %s %s -> %s.", name, fs.PinnedVersion, latestVersion)
	url, err := p.forge.OpenPullRequest(ctx, repoName, title, body)
	if err != nil {
		return fail(err)
	}

	result.Status = StatusSubmitted
	result.PullRequestURL = url
	return result
}
