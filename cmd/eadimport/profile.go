package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/eadimport/internal/platform"
	"github.com/aretw0/eadimport/pkg/pipeline"
)

// Profile is the YAML run profile. Command line flags override it.
//
//	base_id: eadid
//	records_for_files: true
//	base_folder: /srv/ead/files
//	format: yaml
//	vocabularies: [custom.yaml]
type Profile struct {
	pipeline.Options `yaml:",inline"`

	Format       string   `yaml:"format"`
	Vocabularies []string `yaml:"vocabularies"`
	XSLTProc     string   `yaml:"xsltproc"`
	CacheDir     string   `yaml:"cache_dir"`
}

// loadProfile reads the profile at path. With an empty path it looks for
// platform.ProfileName at the vault root and returns an empty profile when
// there is none.
func loadProfile(path, vault string) (*Profile, error) {
	if path == "" {
		root, err := platform.FindRoot(vault)
		if err != nil {
			return &Profile{}, nil
		}
		path = filepath.Join(root, platform.ProfileName)
		if _, err := os.Stat(path); err != nil {
			return &Profile{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	// Paths in the profile are relative to it.
	dir := filepath.Dir(path)
	for _, s := range []*string{&p.Configuration, &p.BaseFolder, &p.CacheDir} {
		if *s != "" && !filepath.IsAbs(*s) {
			*s = filepath.Join(dir, *s)
		}
	}
	for i, v := range p.Vocabularies {
		if !filepath.IsAbs(v) {
			p.Vocabularies[i] = filepath.Join(dir, v)
		}
	}
	slog.Debug("run profile loaded", "path", path)
	return &p, nil
}

// options turns the profile into platform options.
func (p *Profile) options() []platform.Option {
	opts := []platform.Option{
		platform.WithLogger(slog.Default()),
		platform.WithImportOptions(p.Options),
		platform.WithVocabularies(p.Vocabularies...),
	}
	if p.Format != "" {
		opts = append(opts, platform.WithFormat(p.Format))
	}
	if p.XSLTProc != "" {
		opts = append(opts, platform.WithXSLTProcessor(p.XSLTProc))
	}
	if p.CacheDir != "" {
		opts = append(opts, platform.WithCacheDir(p.CacheDir))
	}
	return opts
}
