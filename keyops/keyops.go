// Package keyops applies one key change to every configured language.
//
// Set negotiates overwrites language by language, then translates the
// remaining languages concurrently. A failing language never prevents the
// others from being written. Delete removes a key from every catalog.
package keyops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/minios-linux/lemontree/catalog"
	"github.com/minios-linux/lemontree/config"
	"github.com/minios-linux/lemontree/overwrite"
	"github.com/minios-linux/lemontree/translate"
)

// ErrNoTranslator is returned when a language needs a provider call but
// no translation function is configured.
var ErrNoTranslator = errors.New("no translation provider")

// TypeUpdater mirrors catalog keys into type definitions.
type TypeUpdater interface {
	Add(key, lang string) error
	Remove(key, lang string) error
}

// Options configures a Runner.
type Options struct {
	Config *config.File
	// Translate is the provider call. It may be nil when only the source
	// language is configured.
	Translate translate.Func
	// Prompter answers overwrite questions.
	Prompter overwrite.Prompter
	// TypeDefs is optional.
	TypeDefs TypeUpdater
	// MaxConcurrent bounds parallel provider calls (default: config value).
	MaxConcurrent int
	Logger        *slog.Logger

	// OnSkipped is called when the user declines to overwrite one language.
	OnSkipped func(key, lang string)
	// OnFailed is called for every language whose translation failed.
	OnFailed func(key, from, to string, err error)
	// OnSticky is called once after Set when a "to all" decision was used.
	OnSticky func(outcome overwrite.Outcome)
	// OnRenamed is called when a catalog file was renamed to fix casing.
	OnRenamed func(from, to string)
	// OnCasingConflict is called when several files differ only by casing.
	OnCasingConflict func(dir, base string, candidates []string)
	// OnPromptError is called when the overwrite prompt fails.
	OnPromptError func(key, lang string, err error)
	// OnWarn reports non-fatal problems such as type definition failures.
	OnWarn func(format string, args ...any)
}

func (o *Options) warn(format string, args ...any) {
	if o.OnWarn != nil {
		o.OnWarn(format, args...)
	}
}

func (o *Options) failed(key, from, to string, err error) {
	if o.OnFailed != nil {
		o.OnFailed(key, from, to, err)
	}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) maxConcurrent() int {
	if o.MaxConcurrent > 0 {
		return o.MaxConcurrent
	}
	if o.Config != nil && o.Config.MaxConcurrent > 0 {
		return o.Config.MaxConcurrent
	}
	return config.DefaultMaxConcurrent
}

// Runner executes Set and Delete against the configured languages.
type Runner struct {
	opts Options
}

// New returns a Runner.
func New(opts Options) *Runner {
	return &Runner{opts: opts}
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// UpdateRecord describes one catalog written (or, in dry run, to be written).
type UpdateRecord struct {
	FilePath    string `json:"filePath"`
	Lang        string `json:"lang"`
	Translation string `json:"translation"`
}

// LangResult is the outcome of Set for one language.
type LangResult struct {
	Lang     string
	FilePath string
	// Outcome is the overwrite negotiation result.
	Outcome overwrite.Outcome
	// Source is true for the source language, which is never sent to the provider.
	Source      bool
	Translation string
	// Err is set when the language failed.
	Err error
}

// Skipped reports whether the language was left untouched by choice.
func (l LangResult) Skipped() bool { return l.Outcome.Skipped() }

// Updated reports whether the catalog was (or would be) written.
func (l LangResult) Updated() bool { return !l.Skipped() && l.Err == nil }

// SetResult is the outcome of Set, one entry per language in config order.
type SetResult struct {
	Key       string
	DryRun    bool
	Languages []LangResult
}

// Updates returns the records of every updated language.
func (r *SetResult) Updates() []UpdateRecord {
	var out []UpdateRecord
	for _, l := range r.Languages {
		if l.Updated() {
			out = append(out, UpdateRecord{FilePath: l.FilePath, Lang: l.Lang, Translation: l.Translation})
		}
	}
	return out
}

// Failed returns the languages that failed.
func (r *SetResult) Failed() []LangResult {
	var out []LangResult
	for _, l := range r.Languages {
		if l.Err != nil {
			out = append(out, l)
		}
	}
	return out
}

// AllFailed reports whether at least one language needed the provider and
// every such language failed.
func (r *SetResult) AllFailed() bool {
	attempted, failed := 0, 0
	for _, l := range r.Languages {
		if l.Source || l.Skipped() {
			continue
		}
		attempted++
		if l.Err != nil {
			failed++
		}
	}
	return attempted > 0 && attempted == failed
}

// ---------------------------------------------------------------------------
// Set
// ---------------------------------------------------------------------------

type setTask struct {
	index int
	lang  config.Compiled
	cat   *catalog.Catalog
}

// Set writes text under key in every language, translating it from the
// source language. An empty text uses the key itself.
//
// Configuration problems are returned before any file is touched. Per
// language failures are reported in the result and never abort the run.
func (r *Runner) Set(ctx context.Context, key, text string, dryRun bool) (*SetResult, error) {
	cfg := r.opts.Config
	res := &SetResult{Key: key, DryRun: dryRun}
	if cfg == nil || len(cfg.Languages) == 0 {
		return res, nil
	}
	if text == "" {
		text = key
	}

	langs, err := cfg.Compile()
	if err != nil {
		return nil, err
	}
	if r.opts.Translate == nil {
		for _, l := range langs {
			if l.Lang != cfg.SourceLanguage {
				return nil, fmt.Errorf("%w for language %s", ErrNoTranslator, l.Lang)
			}
		}
	}

	log := r.opts.logger()
	neg := overwrite.New(r.opts.Prompter,
		overwrite.WithSkipNotice(r.opts.OnSkipped),
		overwrite.WithPromptError(r.opts.OnPromptError),
		overwrite.WithLogger(log),
	)

	res.Languages = make([]LangResult, len(langs))
	var tasks []setTask
	for i, l := range langs {
		lr := &res.Languages[i]
		lr.Lang = l.Lang
		lr.FilePath = l.FilePath
		lr.Source = l.Lang == cfg.SourceLanguage

		if !dryRun {
			if err := r.prepareDir(l.Language); err != nil {
				lr.Err = err
				r.opts.failed(key, cfg.SourceLanguage, l.Lang, err)
				continue
			}
		}

		cat, err := catalog.Load(l.FilePath)
		if err != nil {
			lr.Err = err
			r.opts.failed(key, cfg.SourceLanguage, l.Lang, err)
			continue
		}
		cat.Nested = cfg.NestedKeys

		lr.Outcome = neg.Decide(ctx, key, text, cat, l.Lang)
		log.Debug("negotiated", "lang", l.Lang, "key", key, "outcome", lr.Outcome.String())
		if lr.Outcome.Skipped() {
			continue
		}
		tasks = append(tasks, setTask{index: i, lang: l, cat: cat})
	}

	translations, errs := runParallel(ctx, tasks, r.opts.maxConcurrent(), func(ctx context.Context, t setTask) (string, error) {
		return r.translateOne(ctx, key, text, t, dryRun)
	})
	for i, t := range tasks {
		lr := &res.Languages[t.index]
		lr.Translation = translations[i]
		lr.Err = errs[i]
		if errs[i] != nil && errors.Is(errs[i], ErrTaskPanic) {
			log.Error("language task panicked", "lang", t.lang.Lang, "err", errs[i])
			r.opts.failed(key, cfg.SourceLanguage, t.lang.Lang, errs[i])
		}
	}

	if r.opts.OnSticky != nil {
		for _, want := range []overwrite.Outcome{overwrite.OverwriteAll, overwrite.SkipAll} {
			for _, l := range res.Languages {
				if l.Outcome == want {
					r.opts.OnSticky(want)
					break
				}
			}
		}
	}
	return res, nil
}

// prepareDir creates the catalog directory and fixes file name casing.
func (r *Runner) prepareDir(l config.Language) error {
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", l.Dir, err)
	}
	base := filepath.Base(l.FilePath)
	cr, err := catalog.ResolveCasing(l.Dir, base)
	if err != nil {
		r.opts.warn("%v", err)
		return nil
	}
	if cr.Ambiguous() && r.opts.OnCasingConflict != nil {
		r.opts.OnCasingConflict(l.Dir, base, cr.Conflicts)
	}
	if cr.Renamed() && r.opts.OnRenamed != nil {
		r.opts.OnRenamed(cr.RenamedFrom, cr.RenamedTo)
	}
	return nil
}

// translateOne protects, translates, restores and persists one language.
func (r *Runner) translateOne(ctx context.Context, key, text string, t setTask, dryRun bool) (string, error) {
	cfg := r.opts.Config
	from, to := cfg.SourceLanguage, t.lang.Lang
	codec := t.lang.Pattern.Protect(text)

	raw := codec.Text()
	if to != from {
		out, err := r.opts.Translate(ctx, translate.Request{
			Text:   codec.Text(),
			From:   from,
			To:     to,
			APIKey: cfg.API.Key,
			Free:   cfg.API.Provider == translate.ProviderDeepLFree,
		})
		if err != nil {
			r.opts.failed(key, from, to, err)
			return "", err
		}
		raw = out
	}

	translation, err := codec.Restore(raw)
	if err != nil {
		r.opts.failed(key, from, to, err)
		return "", err
	}
	t.cat.Set(key, translation)
	if dryRun {
		return translation, nil
	}

	if err := t.cat.WriteFile(t.lang.FilePath); err != nil {
		r.opts.failed(key, from, to, err)
		return "", err
	}
	if r.opts.TypeDefs != nil {
		if err := r.opts.TypeDefs.Add(key, to); err != nil {
			r.opts.warn("type definition for %s: %v", to, err)
		}
	}
	return translation, nil
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

// DeleteResult is the outcome of Delete.
type DeleteResult struct {
	Key    string
	DryRun bool
	// Updated lists the files the key was (or would be) removed from.
	Updated []UpdateRecord
	// NotFound lists languages without the key.
	NotFound []string
}

// Delete removes key from every language catalog, pruning objects left
// empty, and from the type definitions.
func (r *Runner) Delete(ctx context.Context, key string, dryRun bool) (*DeleteResult, error) {
	cfg := r.opts.Config
	res := &DeleteResult{Key: key, DryRun: dryRun}
	if cfg == nil {
		return res, nil
	}
	log := r.opts.logger()

	var errs []error
	for _, lang := range cfg.Languages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		l := cfg.ResolveLanguage(lang)
		cat, err := catalog.Load(l.FilePath)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cat.Nested = cfg.NestedKeys

		if !cat.Delete(key) {
			res.NotFound = append(res.NotFound, lang)
			continue
		}
		log.Debug("deleting key", "lang", lang, "key", key, "file", l.FilePath)
		res.Updated = append(res.Updated, UpdateRecord{FilePath: l.FilePath, Lang: lang})
		if dryRun {
			continue
		}
		if err := cat.WriteFile(l.FilePath); err != nil {
			errs = append(errs, err)
			continue
		}
		if r.opts.TypeDefs != nil {
			if err := r.opts.TypeDefs.Remove(key, lang); err != nil {
				r.opts.warn("type definition for %s: %v", lang, err)
			}
		}
	}
	return res, errors.Join(errs...)
}
