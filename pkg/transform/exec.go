package transform

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
)

// Exec runs stylesheets with an external XSLT 1.0 processor, xsltproc by
// default. Built-in stylesheet names are delegated to Fallback.
type Exec struct {
	Command  string
	TempDir  string
	Logger   *slog.Logger
	Fallback Transformer
}

var _ Transformer = (*Exec)(nil)

// NewExec returns an engine running command, with native fallback for the
// built-in stylesheets.
func NewExec(command, tempDir string, logger *slog.Logger) *Exec {
	if command == "" {
		command = "xsltproc"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exec{
		Command:  command,
		TempDir:  tempDir,
		Logger:   logger,
		Fallback: NewNative(tempDir, logger),
	}
}

// Apply implements Transformer.
func (e *Exec) Apply(ctx context.Context, input, stylesheet, output string, params map[string]string) (string, error) {
	if strings.HasPrefix(stylesheet, "builtin:") && e.Fallback != nil {
		return e.Fallback.Apply(ctx, input, stylesheet, output, params)
	}

	out, err := outputFile(output, e.TempDir)
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, 3*len(keys)+4)
	for _, k := range keys {
		args = append(args, "--stringparam", k, params[k])
	}
	args = append(args, "-o", out, stylesheet, input)

	e.Logger.Debug("executing xslt processor", "command", e.Command, "args", args)
	cmd := exec.CommandContext(ctx, e.Command, args...)
	if combined, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s %s failed: %w\nOutput: %s", e.Command, stylesheet, err, strings.TrimSpace(string(combined)))
	}
	return out, nil
}
