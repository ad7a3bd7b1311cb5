// Package hooks runs the pre and post scripts declared in the config.
//
// Scripts are shell command lines. Post scripts may reference {{result}}
// and {{action}}; both are substituted as quoted shell words and also exported as
// LT_RESULT and LT_ACTION.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Actions passed to post scripts.
const (
	ActionSet    = "set"
	ActionDelete = "delete"
)

// ScriptError is a script that exited with an error.
type ScriptError struct {
	Script string
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %q: %v", e.Script, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// Runner executes scripts through the system shell.
type Runner struct {
	// Dir is the working directory, usually the project root.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Pre runs scripts in order. Every script runs even when an earlier one
// fails; failures are joined in the returned error.
func (r *Runner) Pre(ctx context.Context, scripts []string) error {
	return r.run(ctx, scripts, nil)
}

// Post runs scripts with {{result}} and {{action}} substituted. Both are
// inserted as single shell words, so scripts must not quote them.
func (r *Runner) Post(ctx context.Context, scripts []string, result, action string) error {
	replacer := strings.NewReplacer("{{result}}", shellQuote(result), "{{action}}", shellQuote(action))
	expanded := make([]string, len(scripts))
	for i, s := range scripts {
		expanded[i] = replacer.Replace(s)
	}
	return r.run(ctx, expanded, []string{"LT_RESULT=" + result, "LT_ACTION=" + action})
}

func (r *Runner) run(ctx context.Context, scripts []string, env []string) error {
	var errs []error
	for _, script := range scripts {
		if strings.TrimSpace(script) == "" {
			continue
		}
		r.logger().Debug("running script", "script", script)

		cmd := shellCommand(ctx, script)
		cmd.Dir = r.Dir
		cmd.Stdin = os.Stdin
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
		if cmd.Stdout == nil {
			cmd.Stdout = os.Stdout
		}
		if cmd.Stderr == nil {
			cmd.Stderr = os.Stderr
		}
		if len(env) > 0 {
			cmd.Env = append(os.Environ(), env...)
		}
		if err := cmd.Run(); err != nil {
			errs = append(errs, &ScriptError{Script: script, Err: err})
		}
	}
	return errors.Join(errs...)
}

// shellQuote returns s as one literal word for the shell of shellCommand.
func shellQuote(s string) string {
	if runtime.GOOS == "windows" {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func shellCommand(ctx context.Context, script string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", script)
	}
	return exec.CommandContext(ctx, "sh", "-c", script)
}
