package pipeline

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/eadimport/pkg/core"
)

// PipelineState exposes the run counters of a pipeline.
type PipelineState struct {
	Runs    int            `json:"runs"`
	Failed  int            `json:"failed"`
	LastRun *core.RunState `json:"last_run,omitempty"`
}

// State implements introspection.Introspectable.
func (p *Pipeline) State() any {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := PipelineState{Runs: p.runs, Failed: p.failed}
	if p.lastRun != nil {
		last := p.lastRun.State().(core.RunState)
		state.LastRun = &last
	}
	return state
}

// ComponentType implements introspection.Component.
func (p *Pipeline) ComponentType() string {
	return "ead-pipeline"
}

var (
	_ introspection.Introspectable = (*Pipeline)(nil)
	_ introspection.Component      = (*Pipeline)(nil)
)
