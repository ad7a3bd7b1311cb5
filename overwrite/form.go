package overwrite

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrNotTerminal is returned by FormPrompter when stdin is not a terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
)

// FormLabels holds the localized texts of the interactive prompt.
type FormLabels struct {
	// Title renders the question for one key.
	Title    func(lang, key, current string) string
	Yes      string
	No       string
	YesToAll string
	NoToAll  string
}

// DefaultLabels returns English labels.
func DefaultLabels() FormLabels {
	return FormLabels{
		Title: func(lang, key, current string) string {
			return "Key " + key + " already exists in " + lang + " with value: " + current + ". Overwrite?"
		},
		Yes:      "Yes",
		No:       "No",
		YesToAll: "Yes to all",
		NoToAll:  "No to all",
	}
}

// FormPrompter asks interactively with a select field.
type FormPrompter struct {
	Labels FormLabels
	// IsTerminal overrides TTY detection; nil checks stdin.
	IsTerminal func() bool
}

// NewFormPrompter returns a FormPrompter using labels.
func NewFormPrompter(labels FormLabels) *FormPrompter {
	if labels.Title == nil {
		labels.Title = DefaultLabels().Title
	}
	return &FormPrompter{Labels: labels}
}

func (p *FormPrompter) Ask(ctx context.Context, lang, key, current string) (Decision, error) {
	isTTY := p.IsTerminal
	if isTTY == nil {
		isTTY = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}
	if !isTTY() {
		return DecisionNone, ErrNotTerminal
	}

	title := p.Labels.Title(lang, key, valueStyle.Render(current))
	var answer Decision
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Decision]().
				Title(titleStyle.Render(title)).
				Options(
					huh.NewOption(p.Labels.Yes, Yes),
					huh.NewOption(p.Labels.No, No),
					huh.NewOption(p.Labels.YesToAll, YesToAll),
					huh.NewOption(p.Labels.NoToAll, NoToAll),
				).
				Value(&answer),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return DecisionNone, err
	}
	return answer, nil
}
