package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v3"
)

var ErrFlowNotFound = errors.New("reservation flow not found")

// Flow is one guest's booking flow for one cabin.
type Flow struct {
	ID      string
	CabinID uint
	*Context
}

// Registry keeps open flows in memory. A flow that is not touched for the
// idle TTL is dropped as abandoned.
type Registry struct {
	flows *ccache.Cache[*Flow]
	ttl   time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		flows: ccache.New(ccache.Configure[*Flow]().MaxSize(10000)),
		ttl:   ttl,
	}
}

// Open starts a fresh flow with an empty selection.
func (r *Registry) Open(cabinID uint) *Flow {
	flow := &Flow{
		ID:      uuid.NewString(),
		CabinID: cabinID,
		Context: NewContext(),
	}
	r.flows.Set(flow.ID, flow, r.ttl)
	return flow
}

func (r *Registry) Get(id string) (*Flow, error) {
	item := r.flows.Get(id)
	if item == nil || item.Expired() {
		return nil, ErrFlowNotFound
	}
	item.Extend(r.ttl)
	return item.Value(), nil
}

// Discard ends a flow. The next flow for the same cabin starts empty.
func (r *Registry) Discard(id string) {
	r.flows.Delete(id)
}

func (r *Registry) Stop() {
	r.flows.Stop()
}
