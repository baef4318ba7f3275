package eadimport

import (
	"log/slog"

	"github.com/aretw0/eadimport/internal/platform"
	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/pipeline"
	"github.com/aretw0/eadimport/pkg/transform"
)

// Version of the module.
const Version = "0.1.0"

// --- Types ---

// Pipeline imports EAD documents into a store.
type Pipeline = pipeline.Pipeline

// Options is the option bundle of an import.
type Options = pipeline.Options

// Input is a document to import.
type Input = pipeline.Input

// Result is the outcome of one import.
type Result = pipeline.Result

// --- Configuration ---

// Option configures New and Open.
type Option = platform.Option

// WithLogger sets the logger of the store and the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore injects a resource store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithAdapter selects the store adapter by name ("fs" or "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithAutoInit creates the vault directory and its git repository.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning turns git versioning of the vault on or off.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp re-roots the vault into the temp directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist fails when the vault directory is missing.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly opens the vault read-only.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithSystemDir names the hidden directory of the vault.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithFormat selects the resource file format, json or yaml.
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithVocabularies loads vocabulary files on top of the embedded ones.
func WithVocabularies(paths ...string) Option {
	return platform.WithVocabularies(paths...)
}

// WithTransformer replaces the transform engine.
func WithTransformer(t transform.Transformer) Option {
	return platform.WithTransformer(t)
}

// WithXSLTProcessor sets the command run for stylesheet files.
func WithXSLTProcessor(command string) Option {
	return platform.WithXSLTProcessor(command)
}

// WithCacheDir keeps fetched remote documents between runs.
func WithCacheDir(dir string) Option {
	return platform.WithCacheDir(dir)
}

// WithImportOptions sets the option bundle of every run.
func WithImportOptions(opts Options) Option {
	return platform.WithImportOptions(opts)
}

// --- Factory ---

// New opens the store at uri and returns a pipeline importing into it.
func New(uri string, opts ...Option) (*Pipeline, error) {
	return platform.New(uri, opts...)
}

// Open returns the initialized store at uri.
func Open(uri string, opts ...Option) (core.Store, error) {
	return platform.Open(uri, opts...)
}

// --- Safety & Utils ---

// ResolveVaultPath determines the vault path under the dev sandbox rules.
func ResolveVaultPath(userPath string, forceTemp bool) string {
	return platform.ResolveVaultPath(userPath, forceTemp)
}

// IsDevRun reports whether the process runs under `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindVaultRoot looks upwards for a vault root.
func FindVaultRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
