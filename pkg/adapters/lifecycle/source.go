// Package lifecycle exposes import job events to a lifecycle control plane.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/eadimport/pkg/core"
)

type jobSource struct {
	events <-chan core.JobEvent
	out    chan lifecycle.Event
}

// NewSource returns a lifecycle.Source forwarding job events until events is
// closed or the context ends.
func NewSource(events <-chan core.JobEvent) lifecycle.Source {
	return &jobSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *jobSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *jobSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
