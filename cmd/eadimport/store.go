package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/eadimport/internal/platform"
	"github.com/aretw0/eadimport/pkg/core"
)

// openReadOnly opens the existing vault for reading.
func openReadOnly() (core.Store, error) {
	store, err := platform.Open(vaultPath,
		platform.WithLogger(slog.Default()),
		platform.WithMustExist(true),
		platform.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	return store, nil
}

// parseRef reads "type/id" or a bare item id.
func parseRef(s string) (core.ResourceRef, error) {
	typ, id, ok := strings.Cut(s, "/")
	if !ok {
		typ, id = core.ResourceItems, s
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return core.ResourceRef{}, fmt.Errorf("invalid resource reference %q", s)
	}
	return core.ResourceRef{Type: typ, ID: core.ResourceID(n)}, nil
}

func tempCache() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, "eadimport")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return dir, nil
}
