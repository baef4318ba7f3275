package fs

import (
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/eadimport/pkg/core"
)

// VaultState exposes internal state for observability.
type VaultState struct {
	Path       string     `json:"path"`
	SystemDir  string     `json:"system_dir"`
	Format     string     `json:"format"`
	IndexSize  int        `json:"index_size"`
	Gitless    bool       `json:"gitless"`
	ReadOnly   bool       `json:"read_only"`
	Commits    int        `json:"commits"`
	LastCommit *time.Time `json:"last_commit,omitempty"`
}

// State implements introspection.Introspectable.
func (v *Vault) State() any {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return VaultState{
		Path:       v.Path,
		SystemDir:  v.config.SystemDir,
		Format:     v.config.Format,
		IndexSize:  v.cache.Len(),
		Gitless:    v.config.Gitless,
		ReadOnly:   v.config.ReadOnly,
		Commits:    v.commits,
		LastCommit: v.lastCommit,
	}
}

// ComponentType implements introspection.Component.
func (v *Vault) ComponentType() string {
	return "vault"
}

var (
	_ introspection.Introspectable = (*Vault)(nil)
	_ introspection.Component      = (*Vault)(nil)
	_ core.Store                   = (*Vault)(nil)
	_ core.Transactional           = (*Vault)(nil)
)
