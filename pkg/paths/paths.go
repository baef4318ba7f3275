// Package paths resolves the file references found in records against the
// base folder of an import.
package paths

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aretw0/eadimport/pkg/core"
)

// Resolved is a file reference after resolution.
type Resolved struct {
	// Path is an absolute filesystem path, or a URL.
	Path string
	// External is set when Path is a URL or lies outside the base folder.
	External bool
}

// Resolver resolves file references against BaseFolder.
type Resolver struct {
	BaseFolder string
}

// New returns a resolver rooted at the absolute form of base.
func New(base string) (*Resolver, error) {
	if base == "" {
		return &Resolver{}, nil
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base folder %s: %w", base, err)
	}
	return &Resolver{BaseFolder: abs}, nil
}

// Resolve turns p into an absolute path or URL. Any ".." segment is rejected
// with core.ErrUnsafePath. Absolute paths outside the base folder are
// accepted as external references.
func (r *Resolver) Resolve(p string) (Resolved, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return Resolved{}, fmt.Errorf("%w: empty path", core.ErrUnsafePath)
	}

	if u, err := url.Parse(p); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "ftp", "sftp":
			return Resolved{Path: p, External: true}, nil
		case "file":
			p = u.Path
		default:
			return Resolved{}, fmt.Errorf("%w: unsupported scheme in %q", core.ErrUnsafePath, p)
		}
	}

	if hasTraversal(p) {
		return Resolved{}, fmt.Errorf("%w: traversal in %q", core.ErrUnsafePath, p)
	}

	var abs string
	if filepath.IsAbs(p) {
		abs = filepath.Clean(p)
	} else {
		if r.BaseFolder == "" {
			return Resolved{}, fmt.Errorf("%w: relative path %q without base folder", core.ErrUnsafePath, p)
		}
		abs = filepath.Join(r.BaseFolder, p)
	}

	return Resolved{Path: abs, External: !r.Inside(abs)}, nil
}

// Inside reports whether abs lies within the base folder.
func (r *Resolver) Inside(abs string) bool {
	if r.BaseFolder == "" {
		return false
	}
	rel, err := filepath.Rel(r.BaseFolder, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Relative returns abs relative to the base folder, or abs unchanged when it
// is not inside it.
func (r *Resolver) Relative(abs string) string {
	if !r.Inside(abs) {
		return abs
	}
	rel, err := filepath.Rel(r.BaseFolder, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

func hasTraversal(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}
