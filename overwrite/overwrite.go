// Package overwrite decides what happens when a key that is about to be
// written already exists in a language catalog.
//
// A Negotiator is created for one set operation. It asks its Prompter the
// first time it meets an existing key and keeps asking for each following
// language until the answer is one of the "to all" decisions, which then
// sticks for the rest of the operation.
package overwrite

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/minios-linux/lemontree/catalog"
)

// Decision is an answer given to the overwrite prompt.
type Decision string

const (
	DecisionNone Decision = ""
	Yes          Decision = "yes"
	No           Decision = "no"
	YesToAll     Decision = "yes-to-all"
	NoToAll      Decision = "no-to-all"
)

// Sticky reports whether d applies to every following language.
func (d Decision) Sticky() bool {
	return d == YesToAll || d == NoToAll
}

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	switch d {
	case DecisionNone, Yes, No, YesToAll, NoToAll:
		return true
	}
	return false
}

// Outcome is the result of negotiating one language.
type Outcome int

const (
	// None means the key did not exist; nothing was asked.
	None Outcome = iota
	Overwrite
	OverwriteAll
	Skip
	SkipAll
)

func (o Outcome) String() string {
	switch o {
	case None:
		return "none"
	case Overwrite:
		return "overwrite"
	case OverwriteAll:
		return "overwriteAll"
	case Skip:
		return "skip"
	case SkipAll:
		return "skipAll"
	}
	return "unknown"
}

// Skipped reports whether the language must be left untouched.
func (o Outcome) Skipped() bool {
	return o == Skip || o == SkipAll
}

// ErrNoPrompter is returned when a prompt is needed but none is configured.
var ErrNoPrompter = errors.New("no prompter configured")

// Prompter asks whether the current value of key in lang may be replaced.
type Prompter interface {
	Ask(ctx context.Context, lang, key, current string) (Decision, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, lang, key, current string) (Decision, error)

func (f PrompterFunc) Ask(ctx context.Context, lang, key, current string) (Decision, error) {
	return f(ctx, lang, key, current)
}

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithSkipNotice sets the callback invoked when the user declines to
// overwrite a single language.
func WithSkipNotice(fn func(key, lang string)) Option {
	return func(n *Negotiator) { n.onSkip = fn }
}

// WithPromptError sets the callback invoked when the prompter fails.
func WithPromptError(fn func(key, lang string, err error)) Option {
	return func(n *Negotiator) { n.onPromptError = fn }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(n *Negotiator) { n.log = l }
}

// Negotiator holds the overwrite state of one set operation.
type Negotiator struct {
	mu       sync.Mutex
	prompter Prompter
	sticky   Decision

	onSkip        func(key, lang string)
	onPromptError func(key, lang string, err error)
	log           *slog.Logger
}

// New returns a Negotiator with no decision taken yet.
func New(prompter Prompter, opts ...Option) *Negotiator {
	n := &Negotiator{prompter: prompter, log: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Sticky returns the last decision taken.
func (n *Negotiator) Sticky() Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sticky
}

// Decide negotiates key for one language. When the key exists in cat and
// the answer allows it, newText is written into cat in memory.
//
// A failing prompt counts as an empty answer, so the language is skipped.
func (n *Negotiator) Decide(ctx context.Context, key, newText string, cat *catalog.Catalog, lang string) Outcome {
	current, exists := cat.Get(key)
	if !exists {
		return None
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.sticky.Sticky() {
		n.sticky = n.ask(ctx, lang, key, current)
	}

	switch n.sticky {
	case Yes:
		cat.Set(key, newText)
		return Overwrite
	case YesToAll:
		cat.Set(key, newText)
		return OverwriteAll
	case No:
		if n.onSkip != nil {
			n.onSkip(key, lang)
		}
		return Skip
	case NoToAll:
		return SkipAll
	}
	return Skip
}

func (n *Negotiator) ask(ctx context.Context, lang, key, current string) Decision {
	if n.prompter == nil {
		n.promptFailed(key, lang, ErrNoPrompter)
		return DecisionNone
	}
	d, err := n.prompter.Ask(ctx, lang, key, current)
	if err != nil {
		n.promptFailed(key, lang, err)
		return DecisionNone
	}
	if !d.Valid() {
		n.log.Debug("ignoring unknown overwrite decision", "decision", string(d), "lang", lang, "key", key)
		return DecisionNone
	}
	n.log.Debug("overwrite decision", "decision", string(d), "lang", lang, "key", key)
	return d
}

func (n *Negotiator) promptFailed(key, lang string, err error) {
	n.log.Debug("overwrite prompt failed", "lang", lang, "key", key, "err", err)
	if n.onPromptError != nil {
		n.onPromptError(key, lang, err)
	}
}

// AutoPrompter answers every prompt with the same decision.
type AutoPrompter struct {
	Answer Decision
}

func (p AutoPrompter) Ask(context.Context, string, string, string) (Decision, error) {
	return p.Answer, nil
}
