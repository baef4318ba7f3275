// Package pipeline runs one EAD import from the source document to linked
// resources.
//
// A run goes through these phases in order:
//
//  1. load and check the EAD document
//  2. resolve the base id and patch a scratch copy of the configuration
//  3. transform the document into intermediate records
//  4. extract and normalize the records
//  5. slice the source into parts and put the original markup back
//  6. create the resources
//  7. link parents and children
//
// A fatal error stops the run. Resources already created stay in the store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/eadimport/pkg/baseid"
	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/extract"
	"github.com/aretw0/eadimport/pkg/fetch"
	"github.com/aretw0/eadimport/pkg/importer"
	"github.com/aretw0/eadimport/pkg/linker"
	"github.com/aretw0/eadimport/pkg/parts"
	"github.com/aretw0/eadimport/pkg/paths"
	"github.com/aretw0/eadimport/pkg/transform"
	"github.com/aretw0/eadimport/pkg/xmldoc"
)

// Stylesheets names the two transforms of a run. Empty names select the
// built-in ones.
type Stylesheets struct {
	Documents string `yaml:"documents"`
	Parts     string `yaml:"parts"`
}

// Options is the option bundle of an import.
type Options struct {
	BaseID        baseid.Strategy `yaml:"base_id"`
	CustomBaseIDs string          `yaml:"custom_base_ids"`
	MaxDepth      int             `yaml:"max_depth"`
	// RecordsForFiles makes digital objects separate records instead of
	// files of their unit.
	RecordsForFiles bool `yaml:"records_for_files"`
	// Configuration is the base transform configuration. Empty uses the
	// built-in one.
	Configuration string      `yaml:"configuration"`
	BaseFolder    string      `yaml:"base_folder"`
	Stylesheets   Stylesheets `yaml:"stylesheets"`
}

// Input is the document to import.
type Input struct {
	// Path is a local file or an http(s) URL.
	Path string
	// URI is the document URI seen by the base id strategies. It defaults to
	// the URL of a remote document or the file name of a local one.
	URI string
}

// Result is the outcome of a run.
type Result struct {
	Run     *core.Run
	Records []*core.Record
	Table   linker.Table
}

// Pipeline imports documents into Store.
type Pipeline struct {
	Options     Options
	Store       core.ResourceStore
	Terms       core.TermResolver
	Transformer transform.Transformer
	Fetcher     *fetch.Fetcher
	Logger      *slog.Logger
	// TempDir holds the scratch directory of each run. Empty uses the
	// system default.
	TempDir string

	mu      sync.Mutex
	runs    int
	failed  int
	lastRun *core.Run
}

// New returns a pipeline with the default transformer: an xsltproc engine
// that runs the built-in stylesheets natively.
func New(store core.ResourceStore, terms core.TermResolver, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Options:     opts,
		Store:       store,
		Terms:       terms,
		Transformer: transform.NewExec("", "", logger),
		Logger:      logger,
	}
}

// Run imports one document. The returned result carries the run even when
// err is not nil.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	run := core.NewRun(p.Logger)
	res := &Result{Run: run}
	p.track(run)

	run.Logger.Info("import started", "source", in.Path)
	err := p.run(ctx, run, in, res)
	if err != nil {
		run.SetStatus(core.JobFailed)
		p.fail()
		run.Logger.Error("import failed", "error", err)
		return res, err
	}
	run.SetStatus(core.JobCompleted)
	stats := run.Stats()
	run.Logger.Info("import completed",
		"records", stats.Records,
		"created", stats.Created,
		"failed", stats.Failed,
		"linked", stats.Linked,
		"warnings", stats.Warnings,
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, run *core.Run, in Input, res *Result) error {
	scratch, err := os.MkdirTemp(p.TempDir, "eadimport-")
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrScratchConfig, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			run.Logger.Warn("scratch directory not removed", "path", scratch, "error", err)
		}
	}()

	source, uri, err := p.locate(ctx, run, in, scratch)
	if err != nil {
		return err
	}

	doc, err := xmldoc.LoadFile(source, xmldoc.LoadOptions{MaxDepth: p.Options.MaxDepth})
	if err != nil {
		return err
	}
	if err := xmldoc.CheckEAD(doc); err != nil {
		return err
	}

	directive, err := baseid.Resolve(baseid.Input{
		Strategy:    p.Options.BaseID,
		Custom:      p.Options.CustomBaseIDs,
		DocumentURI: uri,
		Document:    doc,
	})
	if err != nil {
		return err
	}
	run.Logger.Debug("base id resolved", "from", directive.From, "default", directive.Default)

	config, err := p.prepareConfig(directive, scratch)
	if err != nil {
		return err
	}

	params := map[string]string{
		transform.ParamConfiguration:  config,
		transform.ParamDigitalObjects: p.digitalObjects(),
	}
	if p.Options.MaxDepth > 0 {
		params[transform.ParamMaxDepth] = fmt.Sprint(p.Options.MaxDepth)
	}

	documents, err := p.apply(ctx, source, p.stylesheet(p.Options.Stylesheets.Documents, transform.StylesheetDocuments), filepath.Join(scratch, "documents.xml"), params)
	if err != nil {
		return err
	}

	resolver, err := paths.New(p.baseFolder(in.Path))
	if err != nil {
		return err
	}
	records, err := extract.New(p.Terms, resolver).Extract(run, documents)
	if err != nil {
		return err
	}
	res.Records = records
	if len(records) == 0 {
		run.Warn("document has no content to import", "source", in.Path)
		return nil
	}

	partsFile, err := p.apply(ctx, source, p.stylesheet(p.Options.Stylesheets.Parts, transform.StylesheetParts), filepath.Join(scratch, "parts.xml"), params)
	if err != nil {
		return err
	}
	loaded, err := parts.Load(partsFile)
	if err != nil {
		return err
	}
	parts.Attach(run, records, loaded)

	return p.store(ctx, run, records, res)
}

// store imports and links the records. A transactional store receives the
// whole run as one transaction named after the run reference.
func (p *Pipeline) store(ctx context.Context, run *core.Run, records []*core.Record, res *Result) error {
	target := p.Store
	var tx core.Transaction
	if t, ok := p.Store.(core.Transactional); ok {
		var err error
		if tx, err = t.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		target = tx
	}

	importer.New(target, p.Terms).Import(ctx, run, records)
	res.Table = linker.New(target).Link(ctx, run, records)

	if tx == nil {
		return nil
	}
	if err := tx.Commit(ctx, run.Reference); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// locate returns a local copy of the input and its document URI.
func (p *Pipeline) locate(ctx context.Context, run *core.Run, in Input, scratch string) (string, string, error) {
	uri := in.URI
	if !fetch.IsRemote(in.Path) {
		if uri == "" {
			uri = filepath.Base(in.Path)
		}
		if _, err := os.Stat(in.Path); err != nil {
			return "", "", fmt.Errorf("failed to open input: %w", err)
		}
		return in.Path, uri, nil
	}

	if uri == "" {
		uri = in.Path
	}
	f := p.Fetcher
	if f == nil {
		f = fetch.New(filepath.Join(scratch, "fetch"), nil, run.Logger)
	}
	local, err := f.Local(ctx, in.Path)
	if err != nil {
		return "", "", err
	}
	return local, uri, nil
}

func (p *Pipeline) prepareConfig(d baseid.Directive, scratch string) (string, error) {
	base := p.Options.Configuration
	if base == "" {
		dir := filepath.Join(scratch, "defaults")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrScratchConfig, err)
		}
		var err error
		if base, err = transform.WriteDefaults(dir); err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrScratchConfig, err)
		}
	}
	return transform.PrepareConfig(base, d, scratch)
}

func (p *Pipeline) apply(ctx context.Context, input, stylesheet, output string, params map[string]string) (string, error) {
	out, err := p.Transformer.Apply(ctx, input, stylesheet, output, params)
	if err != nil {
		return "", fmt.Errorf("failed to apply %s: %w", stylesheet, err)
	}
	info, err := os.Stat(out)
	if err != nil {
		return "", fmt.Errorf("failed to apply %s: %w", stylesheet, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%w: %s", core.ErrEmptyTransform, stylesheet)
	}
	return out, nil
}

func (p *Pipeline) stylesheet(name, builtin string) string {
	if name == "" {
		return builtin
	}
	return name
}

func (p *Pipeline) digitalObjects() string {
	if p.Options.RecordsForFiles {
		return transform.DigitalObjectsSeparated
	}
	return transform.DigitalObjectsIntegrated
}

// baseFolder defaults to the folder of a local source document. Remote
// documents have none unless configured.
func (p *Pipeline) baseFolder(source string) string {
	if p.Options.BaseFolder != "" || fetch.IsRemote(source) {
		return p.Options.BaseFolder
	}
	return filepath.Dir(source)
}

func (p *Pipeline) track(run *core.Run) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs++
	p.lastRun = run
}

func (p *Pipeline) fail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
}

// IsFatal reports whether err is one of the run-aborting conditions.
func IsFatal(err error) bool {
	for _, target := range []error{
		core.ErrEmptyInput,
		core.ErrInvalidXML,
		core.ErrNotEAD,
		core.ErrTooDeep,
		core.ErrScratchConfig,
		core.ErrEmptyTransform,
		core.ErrRecordType,
		core.ErrAction,
		core.ErrIdentifierField,
		core.ErrUnsafePath,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
