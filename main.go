// ltr (lemon-tree) keeps JSON translation catalogs in sync across languages.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/minios-linux/lemontree/catalog"
	"github.com/minios-linux/lemontree/config"
	"github.com/minios-linux/lemontree/hooks"
	"github.com/minios-linux/lemontree/i18n"
	"github.com/minios-linux/lemontree/keyops"
	"github.com/minios-linux/lemontree/langmeta"
	"github.com/minios-linux/lemontree/lint"
	"github.com/minios-linux/lemontree/overwrite"
	"github.com/minios-linux/lemontree/translate"
	"github.com/minios-linux/lemontree/typedef"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes
const (
	exitFailure  = 1
	exitNotFound = 4
	exitProvider = 5
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4B4B")).Bold(true)
	keyStyle     = lipgloss.NewStyle().Bold(true)
)

func logInfo(format string, args ...any) {
	fmt.Fprintln(os.Stderr, infoStyle.Render("[INFO]")+" "+fmt.Sprintf(format, args...))
}

func logSuccess(format string, args ...any) {
	fmt.Fprintln(os.Stderr, successStyle.Render("[OK]")+" "+fmt.Sprintf(format, args...))
}

func logWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, warningStyle.Render("[WARN]")+" "+fmt.Sprintf(format, args...))
}

func logError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("[ERROR]")+" "+fmt.Sprintf(format, args...))
}

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, config.ErrNotFound), errors.Is(err, translate.ErrPluginNotFound):
		return exitNotFound
	}
	return exitFailure
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	verbose    bool
	autoYes    bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ltr",
		Short: "Keep JSON translation catalogs in sync across languages",
		Long: `ltr (lemon-tree) adds, translates and removes keys in JSON translation
catalogs, one file per language, using a machine translation provider.

Commands:
  set       Add or update a key in every language
  delete    Remove a key from every language
  lint      Report keys missing in some languages
  init      Write a default lemon-tree.yaml
  guided    Add keys interactively (also: ltr -g)

Providers:
  google, microsoft, deepl-free, deepl-pro, yandex, plugin`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("reading environment: %w", err)
			}
			setupLogger(verbose || env.Verbose)
			autoYes = autoYes || env.AutoYes
			if configPath == "" {
				configPath = env.Config
			}
			return nil
		},
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (or LT_CONFIG env var)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging (or LT_VERBOSE)")
	root.PersistentFlags().BoolVarP(&autoYes, "yes", "y", false, "Answer yes to every prompt (or LT_AUTO_YES)")

	root.AddCommand(
		newSetCmd(),
		newDeleteCmd(),
		newLintCmd(),
		newInitCmd(),
		newGuidedCmd(),
		newVersionCmd(),
	)

	return root
}

// rewriteArgs maps the -g / --guided shorthand to the guided command. Only
// flags given before any command or "--" are considered.
func rewriteArgs(args []string) []string {
	for i, a := range args {
		if a == "--" || !strings.HasPrefix(a, "-") {
			break
		}
		if a == "-g" || a == "--guided" {
			out := append([]string{"guided"}, args[:i]...)
			return append(out, args[i+1:]...)
		}
	}
	return args
}

func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	}))
	slog.SetDefault(logger)
	return logger
}

func addDryRunFlag(fs *pflag.FlagSet, dryRun *bool) {
	fs.BoolVar(dryRun, "dry-run", false, "Show what would change without writing files")
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetArgs(rewriteArgs(os.Args[1:]))
	if err := fang.Execute(ctx, root); err != nil {
		os.Exit(exitCode(err))
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ltr version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Project loading
// ---------------------------------------------------------------------------

type project struct {
	cfg *config.File
	log *slog.Logger
}

func loadProject() (*project, error) {
	var (
		cfg *config.File
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(rootDir)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CLILanguage != "" {
		i18n.Init(cfg.CLILanguage)
	}

	env, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if env.MaxConcurrent > 0 {
		cfg.MaxConcurrent = env.MaxConcurrent
	}

	p := &project{cfg: cfg, log: slog.Default()}
	p.log.Debug("config loaded", "path", cfg.Path, "languages", cfg.Languages, "provider", cfg.API.Provider)
	return p, nil
}

func (p *project) newRunner() (*keyops.Runner, error) {
	cfg := p.cfg
	tr, err := translate.New(translate.Options{
		Provider: cfg.API.Provider,
		Plugin:   cfg.API.Plugin,
		Dir:      cfg.Root,
		Proxy:    cfg.API.Proxy,
		Timeout:  cfg.API.TimeoutDuration(),
		Logger:   p.log,
	})
	if err != nil {
		if errors.Is(err, translate.ErrPluginNotFound) {
			return nil, err
		}
		return nil, &exitError{code: exitProvider, err: err}
	}

	return keyops.New(keyops.Options{
		Config:    cfg,
		Translate: tr,
		Prompter:  newPrompter(),
		TypeDefs:  typedef.New(cfg.TypeDefinition),
		Logger:    p.log,
		OnSkipped: func(key, lang string) {
			logWarning(i18n.T("Skipped key %s for language %s"), key, lang)
		},
		OnFailed: func(key, from, to string, err error) {
			logError(i18n.T("Failed to translate %s from %s to %s: %v"), key, from, to, err)
		},
		OnSticky: func(outcome overwrite.Outcome) {
			if outcome == overwrite.OverwriteAll {
				logInfo("%s", i18n.T("Translations were overwritten"))
			} else {
				logInfo("%s", i18n.T("Translations were skipped"))
			}
		},
		OnRenamed: func(from, to string) {
			logInfo(i18n.T("Renamed %s to %s"), p.rel(from), p.rel(to))
		},
		OnCasingConflict: func(dir, base string, candidates []string) {
			logWarning(i18n.T("Several files in %s match %s with different casing: %s"),
				p.rel(dir), base, strings.Join(candidates, ", "))
		},
		OnPromptError: func(key, lang string, err error) {
			logWarning(i18n.T("Could not ask about %s (%s): %v"), key, lang, err)
		},
		OnWarn: logWarning,
	}), nil
}

func newPrompter() overwrite.Prompter {
	if autoYes {
		return overwrite.AutoPrompter{Answer: overwrite.YesToAll}
	}
	return overwrite.NewFormPrompter(overwrite.FormLabels{
		Title: func(lang, key, current string) string {
			return i18n.T("Key %s already exists in %s with value: %s. Overwrite?", key, langmeta.Label(lang), current)
		},
		Yes:      i18n.T("Yes"),
		No:       i18n.T("No"),
		YesToAll: i18n.T("Yes to All"),
		NoToAll:  i18n.T("No to All"),
	})
}

// rel returns path relative to the project root when possible.
func (p *project) rel(path string) string {
	if r, err := filepath.Rel(p.cfg.Root, path); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}

func (p *project) hooks() *hooks.Runner {
	return &hooks.Runner{Dir: p.cfg.Root, Stdout: os.Stdout, Stderr: os.Stderr, Logger: p.log}
}

func (p *project) runPre(ctx context.Context) {
	if err := p.hooks().Pre(ctx, p.cfg.PreScript); err != nil {
		logWarning(i18n.T("Script failed: %v"), err)
	}
}

func (p *project) runPost(ctx context.Context, result any, action string) {
	if len(p.cfg.PostScript) == 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		logWarning(i18n.T("Script failed: %v"), err)
		return
	}
	if err := p.hooks().Post(ctx, p.cfg.PostScript, string(data), action); err != nil {
		logWarning(i18n.T("Script failed: %v"), err)
	}
}

// ---------------------------------------------------------------------------
// set
// ---------------------------------------------------------------------------

func newSetCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "set <key> [text]",
		Short: "Add or update a key in every language",
		Long: `Add or update a key in every configured language.

The text is written in the source language and machine-translated into the
others. Without text, the key itself is used as the text. Spans matching the
protection pattern (default {{key}}) are kept untouched by the provider.

Examples:
  ltr set greeting "Hello {{name}}!"
  ltr set "Save changes"
  ltr set nav.home Home --dry-run`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			text := ""
			if len(args) > 1 {
				text = args[1]
			}
			return runSet(cmd.Context(), p, args[0], text, dryRun)
		},
	}
	addDryRunFlag(cmd.Flags(), &dryRun)

	return cmd
}

func runSet(ctx context.Context, p *project, key, text string, dryRun bool) error {
	if !dryRun {
		p.runPre(ctx)
	}

	runner, err := p.newRunner()
	if err != nil {
		return err
	}
	res, err := runner.Set(ctx, key, text, dryRun)
	if err != nil {
		return err
	}

	updates := res.Updates()
	switch {
	case dryRun:
		printDryRun(p, updates)
	case len(updates) > 0:
		logSuccess("%s", i18n.T("Translation added"))
	default:
		logWarning("%s", i18n.T("No translation was added"))
	}

	if !dryRun && len(updates) > 0 {
		p.runPost(ctx, updates, hooks.ActionSet)
	}

	if res.AllFailed() {
		return &exitError{code: exitProvider, err: errors.New(i18n.T("Could not translate %s into any language", key))}
	}
	return nil
}

func printDryRun(p *project, updates []keyops.UpdateRecord) {
	if len(updates) == 0 {
		logInfo("%s", i18n.T("Dry run: no files would be changed"))
		return
	}
	logInfo("%s", i18n.T("Dry run: these files would be updated:"))
	for _, u := range updates {
		if u.Translation != "" {
			fmt.Printf("  %s  %s  %s\n", keyStyle.Render(u.Lang), p.rel(u.FilePath), u.Translation)
		} else {
			fmt.Printf("  %s  %s\n", keyStyle.Render(u.Lang), p.rel(u.FilePath))
		}
	}
}

// ---------------------------------------------------------------------------
// delete
// ---------------------------------------------------------------------------

func newDeleteCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a key from every language",
		Long: `Remove a key from every language catalog and type definition.

Objects left empty by the removal are pruned. Asks for confirmation unless
--yes or LT_AUTO_YES is set.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			return runDelete(cmd.Context(), p, args[0], dryRun)
		},
	}
	addDryRunFlag(cmd.Flags(), &dryRun)

	return cmd
}

func runDelete(ctx context.Context, p *project, key string, dryRun bool) error {
	if !dryRun && !autoYes {
		ok, err := confirm(ctx, i18n.T("Are you sure you want to delete this translation?"))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	if !dryRun {
		p.runPre(ctx)
	}

	runner := keyops.New(keyops.Options{
		Config:   p.cfg,
		TypeDefs: typedef.New(p.cfg.TypeDefinition),
		Logger:   p.log,
		OnWarn:   logWarning,
	})
	res, err := runner.Delete(ctx, key, dryRun)
	if len(res.NotFound) > 0 {
		logWarning(i18n.T("Key %s not found in: %s"), key, strings.Join(res.NotFound, ", "))
	}
	if err != nil {
		return err
	}

	if dryRun {
		printDryRun(p, res.Updated)
		return nil
	}
	if len(res.Updated) > 0 {
		logSuccess("%s", i18n.T("Translation deleted"))
		p.runPost(ctx, map[string]string{"key": key}, hooks.ActionDelete)
	}
	return nil
}

func confirm(ctx context.Context, title string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, overwrite.ErrNotTerminal
	}
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative(i18n.T("Yes")).
			Negative(i18n.T("No")).
			Value(&ok),
	)).RunWithContext(ctx)
	return ok, err
}

// ---------------------------------------------------------------------------
// lint
// ---------------------------------------------------------------------------

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Report keys missing in some languages",
		Long: `Check that every key exists in every language catalog.

Lists each key missing somewhere with the languages it is present in and
missing from. Exits with status 1 when any key is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			return runLint(p)
		},
	}
}

func runLint(p *project) error {
	sources := make([]lint.Source, 0, len(p.cfg.Languages))
	for _, lang := range p.cfg.Languages {
		sources = append(sources, lint.Source{Lang: lang, Path: p.cfg.ResolveLanguage(lang).FilePath})
	}
	report, err := lint.Run(sources)
	if err != nil {
		return err
	}

	if report.OK() {
		logSuccess(i18n.T("All %d keys are present in every language"), report.TotalKeys)
		return nil
	}

	for _, st := range report.Problems {
		fmt.Println(keyStyle.Render(i18n.T("Key %q", st.Key)))
		fmt.Println("  " + successStyle.Render(i18n.T("Present in: %s", strings.Join(st.Present, ", "))))
		fmt.Println("  " + errorStyle.Render(i18n.T("Missing in: %s", strings.Join(st.Missing, ", "))))
	}
	summary := i18n.T("%d of %d keys are correct; %d keys have problems in %d of %d files",
		report.CorrectKeys(), report.TotalKeys, len(report.Problems), report.FilesWithProblems, report.TotalFiles)
	fmt.Println()
	return &exitError{code: exitFailure, err: errors.New(summary)}
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default lemon-tree.yaml",
		Long: `Create lemon-tree.yaml in the project root with English and Spanish,
the google provider and an API key read from TRANSLATION_API_KEY.
An existing config file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := config.WriteDefault(rootDir)
			if err != nil {
				return err
			}
			path := filepath.Join(rootDir, config.YAMLFileName)
			if created {
				logSuccess(i18n.T("Config file created: %s"), path)
			} else {
				logWarning(i18n.T("Config file already exists: %s"), path)
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// guided
// ---------------------------------------------------------------------------

type guidedAction string

const (
	actionContinue guidedAction = "continue"
	actionEditKey  guidedAction = "edit-key"
	actionEditText guidedAction = "edit-text"
	actionDelete   guidedAction = "delete"
	actionFinish   guidedAction = "finish"
)

func newGuidedCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "guided",
		Short: "Add keys interactively (also: ltr -g)",
		Long: `Ask for texts and keys in a loop and add each one to every language.

After entering a text you can continue (translate and write it), edit the
key or text, delete the entry, or finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return overwrite.ErrNotTerminal
			}
			return runGuided(cmd.Context(), p, dryRun)
		},
	}
	addDryRunFlag(cmd.Flags(), &dryRun)

	return cmd
}

func runGuided(ctx context.Context, p *project, dryRun bool) error {
	logInfo("%s", i18n.T("Press Ctrl+C to exit"))

	for {
		text, err := ask(ctx, i18n.T("Enter the text to translate"), "", i18n.T("Text cannot be empty"))
		if err != nil {
			return guidedDone(err)
		}

		key := text
		useText := true
		err = huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(i18n.T("Use the text as key?")).
				Affirmative(i18n.T("Yes")).
				Negative(i18n.T("No")).
				Value(&useText),
		)).RunWithContext(ctx)
		if err != nil {
			return guidedDone(err)
		}
		if !useText {
			if key, err = ask(ctx, i18n.T("Enter the key for the translation"), "", i18n.T("Key cannot be empty")); err != nil {
				return guidedDone(err)
			}
		}

	review:
		for {
			action, err := chooseAction(ctx, key, text)
			if err != nil {
				return guidedDone(err)
			}
			switch action {
			case actionContinue:
				if err := runSet(ctx, p, key, text, dryRun); err != nil {
					if exitCode(err) != exitProvider {
						return err
					}
					logError("%v", err)
				}
				break review
			case actionEditKey:
				if key, err = ask(ctx, i18n.T("Enter the key for the translation"), key, i18n.T("Key cannot be empty")); err != nil {
					return guidedDone(err)
				}
			case actionEditText:
				if text, err = ask(ctx, i18n.T("Enter the text to translate"), text, i18n.T("Text cannot be empty")); err != nil {
					return guidedDone(err)
				}
			case actionDelete:
				ok, err := confirm(ctx, i18n.T("Are you sure you want to delete this translation?"))
				if err != nil {
					return guidedDone(err)
				}
				if ok {
					break review
				}
			case actionFinish:
				logInfo("%s", i18n.T("I already finished."))
				return nil
			}
		}
	}
}

// guidedDone turns an aborted form into a normal exit.
func guidedDone(err error) error {
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func ask(ctx context.Context, title, value, emptyMsg string) (string, error) {
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Value(&value).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New(emptyMsg)
				}
				return nil
			}),
	)).RunWithContext(ctx)
	return strings.TrimSpace(value), err
}

func chooseAction(ctx context.Context, key, text string) (guidedAction, error) {
	var action guidedAction
	title := i18n.T("Key: %s", keyStyle.Render(key)) + "\n" + i18n.T("Text: %s", text)
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[guidedAction]().
			Title(title).
			Description(i18n.T("What do you want to do?")).
			Options(
				huh.NewOption(i18n.T("Continue"), actionContinue),
				huh.NewOption(i18n.T("Edit key"), actionEditKey),
				huh.NewOption(i18n.T("Edit text"), actionEditText),
				huh.NewOption(i18n.T("Delete"), actionDelete),
				huh.NewOption(i18n.T("I already finished."), actionFinish),
			).
			Value(&action),
	)).RunWithContext(ctx)
	return action, err
}

func completeKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	p, err := loadProject()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, k := range catalogKeys(p) {
		if strings.HasPrefix(k, toComplete) {
			out = append(out, k)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// catalogKeys lists the keys of the source language catalog.
func catalogKeys(p *project) []string {
	path := p.cfg.ResolveLanguage(p.cfg.SourceLanguage).FilePath
	cat, err := catalog.Load(path)
	if err != nil {
		return nil
	}
	return cat.Keys()
}
