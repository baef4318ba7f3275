// Package fs stores imported resources as files in a vault directory,
// optionally versioned with git.
//
// Layout:
//
//	{vault}/items/{id}.json
//	{vault}/item_sets/{id}.json
//	{vault}/media/{id}.json
//	{vault}/files/{id}.{ext}      copies of sideloaded media
//	{vault}/{SystemDir}/index.json id sequence and literal index
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/git"
)

// DefaultSystemDir holds the vault index.
const DefaultSystemDir = ".eadvault"

// MediaDir holds the copies of sideloaded files.
const MediaDir = "files"

// Config holds the configuration of a vault.
type Config struct {
	Path      string
	AutoInit  bool
	Gitless   bool
	MustExist bool
	ReadOnly  bool
	Logger    *slog.Logger
	SystemDir string // defaults to DefaultSystemDir
	Format    string // file extension of resource files, defaults to ".json"
}

// Vault implements core.Store on the filesystem.
type Vault struct {
	Path       string
	git        *git.Client
	cache      *cache
	config     Config
	serializer Serializer

	mu         sync.RWMutex
	commits    int
	lastCommit *time.Time
}

// NewVault creates a vault. Call Initialize before use.
func NewVault(config Config) (*Vault, error) {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Format == "" {
		config.Format = ".json"
	}
	if !strings.HasPrefix(config.Format, ".") {
		config.Format = "." + config.Format
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	s, ok := DefaultSerializers()[config.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported vault format %q", config.Format)
	}
	return &Vault{
		Path:       config.Path,
		git:        git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		cache:      newCache(config.Path, config.SystemDir),
		config:     config,
		serializer: s,
	}, nil
}

// Initialize creates the vault directory, sets up git when enabled and
// loads the index. An index missing next to existing resource files is
// rebuilt from them.
func (v *Vault) Initialize(ctx context.Context) error {
	if v.config.MustExist {
		info, err := os.Stat(v.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("vault path does not exist: %s", v.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", v.Path)
		}
	} else if err := os.MkdirAll(v.Path, 0755); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	if !v.config.Gitless {
		if err := v.initGit(); err != nil {
			return err
		}
	}

	if err := v.cache.Load(); err != nil {
		return err
	}
	if v.cache.Len() == 0 {
		if _, err := v.Reindex(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vault) initGit() error {
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !v.git.IsRepo() {
		if !v.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", v.Path)
		}
		if err := v.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := v.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := v.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := v.git.Commit(fmt.Sprintf("chore: configure %s ignore", v.config.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the index and the lock file out of git.
func (v *Vault) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(v.Path, ".gitignore")
	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}
	var missing []string
	for _, entry := range []string{v.config.SystemDir + "/", v.config.SystemDir + ".lock"} {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Begin starts a transaction. Its writes reach the disk, the index and git
// in one step on Commit.
func (v *Vault) Begin(ctx context.Context) (core.Transaction, error) {
	if v.config.ReadOnly {
		return nil, core.ErrReadOnly
	}
	return newTransaction(v), nil
}

// Create stores one resource and its media in its own commit.
func (v *Vault) Create(ctx context.Context, resourceType string, data core.ResourceData, nested []core.ResourceData) (core.ResourceRef, error) {
	tx, err := v.Begin(ctx)
	if err != nil {
		return core.ResourceRef{}, err
	}
	ref, err := tx.Create(ctx, resourceType, data, nested)
	if err != nil {
		_ = tx.Rollback(ctx)
		return ref, err
	}
	return ref, tx.Commit(ctx, changeReason(ctx, "create "+ref.String()))
}

// Update merges partial into a stored resource in its own commit.
func (v *Vault) Update(ctx context.Context, resourceType string, id core.ResourceID, partial core.ResourceData) (core.ResourceRef, error) {
	tx, err := v.Begin(ctx)
	if err != nil {
		return core.ResourceRef{}, err
	}
	ref, err := tx.Update(ctx, resourceType, id, partial)
	if err != nil {
		_ = tx.Rollback(ctx)
		return ref, err
	}
	return ref, tx.Commit(ctx, changeReason(ctx, "update "+ref.String()))
}

// Find looks the literal up in the index, in id order.
func (v *Vault) Find(ctx context.Context, c core.Criteria) (*core.ResourceRef, error) {
	var found *core.ResourceRef
	v.cache.Range(func(e *indexEntry) bool {
		if c.Type != "" && e.Ref.Type != c.Type {
			return true
		}
		for _, value := range e.Literals[c.Property] {
			if value == c.Value {
				ref := e.Ref
				found = &ref
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil, core.ErrNotFound
	}
	return found, nil
}

// Get reads a resource file.
func (v *Vault) Get(ctx context.Context, ref core.ResourceRef) (core.Resource, error) {
	rel := v.relPath(ref)
	if e, ok := v.cache.Get(ref); ok && e.File != "" {
		rel = e.File
	}
	data, err := os.ReadFile(filepath.Join(v.Path, rel))
	if os.IsNotExist(err) {
		return core.Resource{}, fmt.Errorf("failed to get %s: %w", ref, core.ErrNotFound)
	}
	if err != nil {
		return core.Resource{}, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	res, err := v.serializer.Parse(data)
	if err != nil {
		return core.Resource{}, fmt.Errorf("failed to parse %s: %w", rel, err)
	}
	res.Ref = ref
	return res, nil
}

// List reads every resource of a type in id order. An empty type lists
// everything.
func (v *Vault) List(ctx context.Context, resourceType string) ([]core.Resource, error) {
	var refs []core.ResourceRef
	v.cache.Range(func(e *indexEntry) bool {
		if resourceType == "" || e.Ref.Type == resourceType {
			refs = append(refs, e.Ref)
		}
		return true
	})

	out := make([]core.Resource, 0, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := v.Get(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Reindex rebuilds the index from the resource files on disk. It returns
// the number of resources found.
func (v *Vault) Reindex(ctx context.Context) (int, error) {
	keep := make(map[string]bool)
	for _, resourceType := range []string{core.ResourceItems, core.ResourceItemSets, core.ResourceMedia} {
		entries, err := os.ReadDir(filepath.Join(v.Path, resourceType))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", resourceType, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || filepath.Ext(name) != v.config.Format {
				continue
			}
			id, err := strconv.ParseInt(strings.TrimSuffix(name, v.config.Format), 10, 64)
			if err != nil {
				continue
			}
			ref := core.ResourceRef{Type: resourceType, ID: core.ResourceID(id)}
			res, err := v.Get(ctx, ref)
			if err != nil {
				v.config.Logger.Warn("skipping unreadable resource", "file", name, "error", err)
				continue
			}
			info, _ := entry.Info()
			modified := time.Time{}
			if info != nil {
				modified = info.ModTime()
			}
			v.cache.Set(&indexEntry{
				Ref:          ref,
				File:         v.relPath(ref),
				Literals:     literals(res.Data.Values),
				LastModified: modified,
			})
			keep[ref.String()] = true
		}
	}
	v.cache.Prune(keep)
	if err := v.saveIndex(); err != nil {
		return 0, err
	}
	return len(keep), nil
}

func (v *Vault) saveIndex() error {
	if v.config.ReadOnly {
		return nil
	}
	if err := v.cache.Save(); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	return nil
}

// relPath is the slash separated path of a resource file inside the vault.
func (v *Vault) relPath(ref core.ResourceRef) string {
	return ref.Type + "/" + strconv.FormatInt(int64(ref.ID), 10) + v.config.Format
}

func (v *Vault) recordCommit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := time.Now()
	v.commits++
	v.lastCommit = &now
}

// IsGitInstalled reports whether versioned vaults can be used.
func IsGitInstalled() bool {
	return git.IsInstalled()
}

func changeReason(ctx context.Context, fallback string) string {
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		return val
	}
	return fallback
}

var errClosed = errors.New("transaction closed")
