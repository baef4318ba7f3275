package platform

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/eadimport/pkg/fetch"
	"github.com/aretw0/eadimport/pkg/pipeline"
	"github.com/aretw0/eadimport/pkg/transform"
	"github.com/aretw0/eadimport/pkg/vocab"
)

// New opens the store at uri and returns a pipeline importing into it.
//
//	p, err := platform.New("./vault", platform.WithAutoInit(true))
func New(uri string, opts ...Option) (*pipeline.Pipeline, error) {
	o := apply(opts)

	store, err := open(uri, o)
	if err != nil {
		return nil, err
	}

	terms := vocab.Default()
	for _, path := range o.vocabulary {
		if err := terms.LoadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load vocabulary: %w", err)
		}
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	p := pipeline.New(store, terms, o.importOpts, logger)
	switch {
	case o.transformer != nil:
		p.Transformer = o.transformer
	case o.xsltproc != "":
		p.Transformer = transform.NewExec(o.xsltproc, "", logger)
	}
	if o.cacheDir != "" {
		p.Fetcher = fetch.New(o.cacheDir, nil, logger)
	}
	return p, nil
}
