package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/beevik/etree"

	"github.com/aretw0/eadimport/pkg/xmldoc"
)

// Native runs the built-in stylesheets in process.
type Native struct {
	// TempDir receives outputs when no output path is given.
	TempDir string
	Logger  *slog.Logger
}

var _ Transformer = (*Native)(nil)

// NewNative returns a native engine writing scratch outputs into tempDir.
func NewNative(tempDir string, logger *slog.Logger) *Native {
	if logger == nil {
		logger = slog.Default()
	}
	return &Native{TempDir: tempDir, Logger: logger}
}

// Apply implements Transformer.
func (n *Native) Apply(ctx context.Context, input, stylesheet, output string, params map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := xmldoc.LoadFile(input, xmldoc.LoadOptions{MaxDepth: intParam(params, ParamMaxDepth)})
	if err != nil {
		return "", err
	}

	cfg := &Config{}
	if path := params[ParamConfiguration]; path != "" {
		if cfg, err = LoadConfig(path); err != nil {
			return "", err
		}
	}
	rules, err := LoadRules(cfg.Rules)
	if err != nil {
		return "", err
	}
	separated := params[ParamDigitalObjects] == DigitalObjectsSeparated

	var result *etree.Document
	switch stylesheet {
	case StylesheetDocuments:
		mappings, err := LoadMappings(cfg.Mappings)
		if err != nil {
			return "", err
		}
		b := &documentsBuilder{
			baseID:    cfg.BaseID.Evaluate(doc),
			rules:     rules,
			mappings:  mappings,
			separated: separated,
		}
		result = b.build(doc)
	case StylesheetParts:
		result = buildParts(doc, rules, separated)
	default:
		return "", fmt.Errorf("unknown built-in stylesheet %q", stylesheet)
	}

	out, err := outputFile(output, n.TempDir)
	if err != nil {
		return "", err
	}
	if err := result.WriteToFile(out); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	n.Logger.Debug("stylesheet applied", "stylesheet", stylesheet, "input", input, "output", out)
	return out, nil
}
