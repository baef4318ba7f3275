package platform

import (
	"log/slog"

	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/pipeline"
	"github.com/aretw0/eadimport/pkg/transform"
)

// Adapters known by Open.
const (
	AdapterFS     = "fs"
	AdapterMemory = "memory"
)

// options holds the configuration of the stores and pipelines built here.
type options struct {
	store       core.Store
	logger      *slog.Logger
	adapter     string
	autoInit    bool
	gitless     *bool
	forceTemp   bool
	mustExist   bool
	readOnly    bool
	devSafety   bool
	systemDir   string
	format      string
	vocabulary  []string
	transformer transform.Transformer
	xsltproc    string
	cacheDir    string
	importOpts  pipeline.Options
}

// Option configures Open and New.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		devSafety: true,
	}
}

func apply(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger of the store and the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore injects a store. The adapter options are then ignored.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter selects the store adapter by name, AdapterFS by default.
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithAutoInit creates the vault directory and its git repository.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithVersioning turns git versioning of the vault on or off. When unset it
// is detected from the vault directory.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		gitless := !enabled
		o.gitless = &gitless
	}
}

// WithForceTemp re-roots the vault into the temp directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithMustExist fails when the vault directory is missing.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly opens the vault read-only. Writes return core.ErrReadOnly and
// the dev sandbox is bypassed.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`. It is
// on by default.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithSystemDir names the hidden directory of the vault.
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithFormat selects the resource file format of the vault, json or yaml.
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithVocabularies loads vocabulary files on top of the embedded ones.
func WithVocabularies(paths ...string) Option {
	return func(o *options) {
		o.vocabulary = append(o.vocabulary, paths...)
	}
}

// WithTransformer replaces the transform engine.
func WithTransformer(t transform.Transformer) Option {
	return func(o *options) {
		o.transformer = t
	}
}

// WithXSLTProcessor sets the command run for stylesheet files.
func WithXSLTProcessor(command string) Option {
	return func(o *options) {
		o.xsltproc = command
	}
}

// WithCacheDir keeps fetched remote documents in dir between runs.
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

// WithImportOptions sets the option bundle of every run.
func WithImportOptions(opts pipeline.Options) Option {
	return func(o *options) {
		o.importOpts = opts
	}
}
