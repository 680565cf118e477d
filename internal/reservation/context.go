// Package reservation holds the range a guest is picking for one cabin.
// A Context belongs to a single booking flow and is never shared between flows.
package reservation

import (
	"sync"

	"github.com/gdg-garage/cabin-booking-api/internal/availability"
)

type Context struct {
	mu  sync.RWMutex
	rng availability.Range
}

func NewContext() *Context {
	return &Context{}
}

func (c *Context) Range() availability.Range {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rng
}

// SetRange replaces the selection. The previous value is not merged in.
func (c *Context) SetRange(r availability.Range) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng = r
}

func (c *Context) ResetRange() {
	c.SetRange(availability.Range{})
}
