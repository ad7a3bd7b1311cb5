package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrPluginNotFound is returned when the plugin executable does not exist.
var ErrPluginNotFound = errors.New("plugin not found")

type plugin struct {
	path string
	log  *slog.Logger
	opts Options
}

// newPlugin resolves the plugin executable. The plugin receives the Request
// as JSON on stdin and prints the translation on stdout.
func newPlugin(opts Options) (Func, error) {
	if opts.Plugin == "" {
		return nil, fmt.Errorf("%w: api.plugin is empty", ErrPluginNotFound)
	}
	path := opts.Plugin
	switch {
	case filepath.IsAbs(path):
	case strings.ContainsRune(path, '/') || strings.ContainsRune(path, filepath.Separator):
		path = filepath.Join(opts.Dir, path)
	default:
		// A bare name is looked up in PATH.
		resolved, err := exec.LookPath(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, path)
		}
		path = resolved
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, path)
	}

	p := &plugin{path: path, log: opts.logger(), opts: opts}
	return p.translate, nil
}

func (p *plugin) translate(ctx context.Context, r Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.effectiveTimeout())
	defer cancel()

	input, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.path)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.log.Debug("running plugin", "path", p.path, "from", r.From, "to", r.To)
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return "", &ProviderError{Provider: ProviderPlugin, Err: err}
	}

	out := strings.TrimRight(stdout.String(), "\r\n")
	if out == "" {
		return "", &ProviderError{Provider: ProviderPlugin, Err: ErrNoTranslation}
	}
	return out, nil
}
