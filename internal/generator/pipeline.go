// Package generator turns newly added binary files into metadata notes.
//
// A Pipeline decides whether a file is eligible, derives a unique note name
// from the configured filename format, expands the note template, writes the
// note and records the binary in the registry so it is never processed
// twice.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/binmeta/internal/clock"
	"github.com/harrison/binmeta/internal/display"
	"github.com/harrison/binmeta/internal/expander"
	"github.com/harrison/binmeta/internal/formatter"
	"github.com/harrison/binmeta/internal/logger"
	"github.com/harrison/binmeta/internal/registry"
	"github.com/harrison/binmeta/internal/retry"
	"github.com/harrison/binmeta/internal/vault"
)

// ErrMissingDependency is returned by New when a required option is nil.
var ErrMissingDependency = errors.New("missing pipeline dependency")

// Settings are the user-configurable knobs of the pipeline.
type Settings struct {
	AutoDetection  bool
	Folder         string
	FilenameFormat string
	TemplatePath   string
	UseExpander    bool
	Retry          retry.Options
}

// Options wires a Pipeline. Vault, Matcher and Registry are required.
type Options struct {
	Vault     vault.Vault
	Matcher   formatter.ExtensionMatcher
	Registry  *registry.Registry
	Formatter *formatter.Formatter // defaults to one built on Matcher and Clock
	Clock     clock.Clock          // defaults to clock.Real
	Expanders *expander.Registry   // nil means no expander is ever available
	Notifier  display.Notifier     // nil drops notices
	Logger    logger.Logger        // nil discards log output
	Settings  Settings
}

// Result describes one generated note.
type Result struct {
	JobID    string
	Binary   string // vault path of the binary file
	Note     string // vault path of the metadata note
	Conflict bool   // the note name carries a CONFLICT prefix
	Expanded bool   // the body was rewritten by the expander
}

// Summary aggregates a bulk generation.
type Summary struct {
	Total     int
	Generated []Result
	Failed    map[string]error
	Duration  time.Duration
}

// Progress receives the steps of a bulk generation.
type Progress interface {
	Start(total int)
	Step(item string)
}

// Pipeline generates metadata notes for binary files.
type Pipeline struct {
	vault     vault.Vault
	matcher   formatter.ExtensionMatcher
	registry  *registry.Registry
	formatter *formatter.Formatter
	namer     *NameResolver
	clock     clock.Clock
	expanders *expander.Registry
	notifier  display.Notifier
	logger    logger.Logger
	settings  Settings
}

type discardNotifier struct{}

func (discardNotifier) Notify(display.Notice) {}

// New creates a Pipeline from opts.
func New(opts Options) (*Pipeline, error) {
	if opts.Vault == nil {
		return nil, fmt.Errorf("%w: vault", ErrMissingDependency)
	}
	if opts.Matcher == nil {
		return nil, fmt.Errorf("%w: extension matcher", ErrMissingDependency)
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("%w: registry", ErrMissingDependency)
	}

	p := &Pipeline{
		vault:     opts.Vault,
		matcher:   opts.Matcher,
		registry:  opts.Registry,
		formatter: opts.Formatter,
		clock:     opts.Clock,
		expanders: opts.Expanders,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		settings:  opts.Settings,
	}
	if p.clock == nil {
		p.clock = clock.Real{}
	}
	if p.formatter == nil {
		p.formatter = formatter.New(p.matcher, formatter.WithClock(p.clock))
	}
	if p.notifier == nil {
		p.notifier = discardNotifier{}
	}
	if p.logger == nil {
		p.logger = logger.Nop{}
	}
	if p.settings.Folder == "" {
		p.settings.Folder = "/"
	}
	p.namer = NewNameResolver(p.vault, p.clock)
	return p, nil
}

// Settings returns the settings the pipeline runs with.
func (p *Pipeline) Settings() Settings {
	return p.settings
}

// ShouldGenerate reports whether file has a watched extension and has not
// been processed yet.
func (p *Pipeline) ShouldGenerate(file vault.File) bool {
	if _, ok := p.matcher.BestMatch(file.Name); !ok {
		return false
	}
	return !p.registry.Has(file.Path)
}

// Create writes the metadata note for file. It does not touch the registry.
func (p *Pipeline) Create(ctx context.Context, file vault.File) (Result, error) {
	result := Result{JobID: uuid.NewString(), Binary: file.Path}

	candidate := p.formatter.Format(p.settings.FilenameFormat, file.Path, file.CTime) + ".md"
	name, err := p.namer.Resolve(candidate, p.settings.Folder)
	if err != nil {
		return result, fmt.Errorf("resolve note name for %s: %w", file.Path, err)
	}
	result.Conflict = name != candidate

	body := p.formatter.Format(p.templateText(ctx), file.Path, file.CTime)

	note, err := p.vault.Create(vault.Join(p.settings.Folder, name), body)
	if err != nil {
		return result, fmt.Errorf("create note for %s: %w", file.Path, err)
	}
	result.Note = note.Path
	p.logger.LogDebug(fmt.Sprintf("[%s] created %s for %s", result.JobID, result.Note, file.Path))

	if p.settings.UseExpander {
		result.Expanded = p.expand(ctx, result, file, body)
	}
	return result, nil
}

// expand hands the note body to the templater service. Failures leave the
// locally expanded body in place.
func (p *Pipeline) expand(ctx context.Context, result Result, file vault.File, body string) bool {
	svc, err := retry.Poll(ctx, p.clock, p.settings.Retry, func() (expander.Service, bool) {
		return p.expanders.TryResolve(expander.TemplaterID)
	})
	if err != nil {
		p.logger.LogWarn(fmt.Sprintf("[%s] %s service unavailable: %v", result.JobID, expander.TemplaterID, err))
		return false
	}

	target := expander.Target{NotePath: result.Note, BinaryPath: file.Path, CreatedAt: file.CTime}
	content, err := svc.ParseTemplate(ctx, target, body)
	if err == nil {
		err = p.vault.Modify(result.Note, content)
	}
	if err != nil {
		p.logger.LogError(fmt.Sprintf("[%s] expander failed for %s: %v", result.JobID, result.Note, err))
		p.notifier.Notify(display.Notice{
			Level:      display.LevelError,
			Title:      "Failed to run the template expander",
			Message:    err.Error(),
			Files:      []string{result.Note},
			Suggestion: "Check expander.command; the note keeps the built-in expansion",
		})
		return false
	}
	return true
}

// generate creates the note for file and registers it.
func (p *Pipeline) generate(ctx context.Context, file vault.File) (Result, error) {
	result, err := p.Create(ctx, file)
	if err != nil {
		return result, err
	}
	p.registry.Add(file.Path)
	if err := p.registry.Save(ctx); err != nil {
		return result, fmt.Errorf("save registry: %w", err)
	}
	p.logger.LogInfo(fmt.Sprintf("generated %s for %s", result.Note, file.Path))
	return result, nil
}

// HandleCreated generates a note for a newly created file when auto
// detection is enabled and the file is eligible. The boolean reports whether
// a note was generated.
func (p *Pipeline) HandleCreated(ctx context.Context, file vault.File) (Result, bool, error) {
	if !p.settings.AutoDetection {
		p.logger.LogDebug(fmt.Sprintf("auto detection disabled, ignoring %s", file.Path))
		return Result{}, false, nil
	}
	if !p.ShouldGenerate(file) {
		return Result{}, false, nil
	}
	result, err := p.generate(ctx, file)
	if err != nil {
		return result, false, err
	}
	return result, true, nil
}

// HandleDeleted forgets a deleted binary. Its metadata note is kept. When
// path is not registered itself it is treated as a removed folder and every
// key below it is dropped.
func (p *Pipeline) HandleDeleted(ctx context.Context, path string) error {
	path = vault.NormalizePath(path)

	var gone []string
	if p.registry.Has(path) {
		gone = append(gone, path)
	} else if path != "/" {
		prefix := path + "/"
		for _, key := range p.registry.Keys() {
			if strings.HasPrefix(key, prefix) {
				gone = append(gone, key)
			}
		}
	}
	if len(gone) == 0 {
		return nil
	}

	for _, key := range gone {
		p.registry.Delete(key)
	}
	if err := p.registry.Save(ctx); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	for _, key := range gone {
		p.logger.LogInfo(fmt.Sprintf("forgot deleted file %s", key))
	}
	return nil
}

// HandleEvent dispatches a vault event. Created events for folders or files
// that vanished before they could be stat'ed are ignored.
func (p *Pipeline) HandleEvent(ctx context.Context, ev vault.Event) error {
	switch ev.Op {
	case vault.Created:
		file, ok := p.vault.FileByPath(ev.Path)
		if !ok {
			return nil
		}
		_, _, err := p.HandleCreated(ctx, file)
		return err
	case vault.Removed:
		return p.HandleDeleted(ctx, ev.Path)
	}
	return nil
}

// Reconcile drops registry entries whose file no longer exists. It does
// nothing when the vault listing is incomplete, since missing files could not
// be told apart from unreadable ones.
func (p *Pipeline) Reconcile(ctx context.Context) ([]string, error) {
	files, err := p.vault.Files()
	if err != nil {
		return nil, fmt.Errorf("list vault files: %w", err)
	}
	live := make(map[string]struct{}, len(files))
	for _, f := range files {
		live[f.Path] = struct{}{}
	}
	removed, err := p.registry.Reconcile(ctx, live)
	if err != nil {
		return removed, fmt.Errorf("reconcile registry: %w", err)
	}
	if len(removed) > 0 {
		p.logger.LogInfo(fmt.Sprintf("reconciled registry, dropped %d missing files", len(removed)))
	}
	return removed, nil
}

// EligibleFiles lists every file ShouldGenerate accepts. A partial listing is
// logged and the readable part is still used.
func (p *Pipeline) EligibleFiles() ([]vault.File, error) {
	files, err := p.vault.Files()
	if errors.Is(err, vault.ErrPartialScan) {
		p.logger.LogWarn(err.Error())
	} else if err != nil {
		return nil, fmt.Errorf("list vault files: %w", err)
	}
	var eligible []vault.File
	for _, f := range files {
		if p.ShouldGenerate(f) {
			eligible = append(eligible, f)
		}
	}
	return eligible, nil
}

// FindUnlinkedBinaries lists watched-extension files that no note links to.
// It fails on a partial listing because unreadable notes would make linked
// files look unlinked.
func (p *Pipeline) FindUnlinkedBinaries() ([]vault.File, error) {
	files, err := p.vault.Files()
	if err != nil {
		return nil, fmt.Errorf("list vault files: %w", err)
	}
	links, err := p.vault.ResolvedLinks()
	if err != nil {
		return nil, fmt.Errorf("resolve links: %w", err)
	}

	linked := make(map[string]struct{})
	for _, dests := range links {
		for dest := range dests {
			linked[dest] = struct{}{}
		}
	}

	var unlinked []vault.File
	for _, f := range files {
		if _, ok := p.matcher.BestMatch(f.Name); !ok {
			continue
		}
		if _, ok := linked[f.Path]; ok {
			continue
		}
		unlinked = append(unlinked, f)
	}
	return unlinked, nil
}

// GenerateAllEligible generates notes for every eligible file in the vault.
func (p *Pipeline) GenerateAllEligible(ctx context.Context, progress Progress) (Summary, error) {
	files, err := p.EligibleFiles()
	if err != nil {
		return Summary{}, err
	}
	return p.generateEach(ctx, files, progress), nil
}

// GenerateForUnlinked generates notes for every unlinked binary, whether or
// not it was registered before.
func (p *Pipeline) GenerateForUnlinked(ctx context.Context, progress Progress) (Summary, error) {
	files, err := p.FindUnlinkedBinaries()
	if err != nil {
		return Summary{}, err
	}
	return p.generateEach(ctx, files, progress), nil
}

// generateEach stops early only when ctx is cancelled. A failed file is
// recorded and the rest still run.
func (p *Pipeline) generateEach(ctx context.Context, files []vault.File, progress Progress) Summary {
	start := p.clock.Now()
	summary := Summary{Total: len(files), Failed: make(map[string]error)}
	if progress != nil {
		progress.Start(len(files))
	}

	for _, f := range files {
		if ctx.Err() != nil {
			summary.Failed[f.Path] = ctx.Err()
			continue
		}
		result, err := p.generate(ctx, f)
		if err != nil {
			p.logger.LogError(err.Error())
			summary.Failed[f.Path] = err
			continue
		}
		summary.Generated = append(summary.Generated, result)
		if progress != nil {
			progress.Step(fmt.Sprintf("%s -> %s", f.Path, result.Note))
		}
	}

	summary.Duration = p.clock.Now().Sub(start)
	return summary
}
