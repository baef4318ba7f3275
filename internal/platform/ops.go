package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/eadimport/pkg/adapters/fs"
	"github.com/aretw0/eadimport/pkg/adapters/memory"
	"github.com/aretw0/eadimport/pkg/core"
)

// Open returns an initialized store. The uri is adapter specific: the vault
// directory for AdapterFS, ignored for AdapterMemory.
func Open(uri string, opts ...Option) (core.Store, error) {
	return open(uri, apply(opts))
}

func open(uri string, o *options) (core.Store, error) {
	if o.store != nil {
		return o.store, nil
	}

	switch o.adapter {
	case AdapterMemory:
		return memory.New(), nil
	case AdapterFS, "":
		vault, err := openVault(uri, o)
		if err != nil {
			return nil, err
		}
		if err := vault.Initialize(context.Background()); err != nil {
			return nil, err
		}
		return vault, nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

func openVault(path string, o *options) (*fs.Vault, error) {
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	bypass := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypass)
	resolved := ResolveVaultPath(path, useTemp)
	if useTemp {
		logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
	} else if IsDevRun() && !o.readOnly {
		logger.Warn("running in UNSAFE mode (dev sandbox bypassed)", "path", resolved)
	}

	systemDir := o.systemDir
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	var gitless bool
	if o.gitless != nil {
		gitless = *o.gitless
	} else {
		gitless = detectGitless(resolved, systemDir, o.autoInit)
		logger.Debug("versioning detected", "gitless", gitless)
	}

	return fs.NewVault(fs.Config{
		Path:      resolved,
		AutoInit:  o.autoInit,
		Gitless:   gitless,
		MustExist: o.mustExist || (!o.autoInit && !useTemp),
		ReadOnly:  o.readOnly,
		Logger:    logger,
		SystemDir: systemDir,
		Format:    o.format,
	})
}

// detectGitless keeps an existing vault in its mode. A fresh vault created
// with auto init is versioned.
func detectGitless(path, systemDir string, autoInit bool) bool {
	if hasFile(path, ".git") {
		return false
	}
	if !autoInit {
		return true
	}
	_, err := os.Stat(filepath.Join(path, systemDir))
	return err == nil
}
