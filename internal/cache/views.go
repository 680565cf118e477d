// Package cache keeps rendered views keyed by the path that serves them, so a
// mutation can drop exactly the views it made stale.
package cache

import (
	"time"

	"github.com/karlseguin/ccache/v3"
)

// Invalidator drops cached views by path.
type Invalidator interface {
	Invalidate(paths ...string)
}

type Views struct {
	local *ccache.Cache[any]
	ttl   time.Duration
}

func NewViews(ttl time.Duration) *Views {
	return &Views{
		local: ccache.New(ccache.Configure[any]().MaxSize(1000)),
		ttl:   ttl,
	}
}

func (v *Views) Get(path string) (any, bool) {
	item := v.local.Get(path)
	if item == nil || item.Expired() {
		return nil, false
	}
	return item.Value(), true
}

func (v *Views) Set(path string, value any) {
	v.local.Set(path, value, v.ttl)
}

func (v *Views) Invalidate(paths ...string) {
	for _, p := range paths {
		v.local.Delete(p)
	}
}

func (v *Views) Stop() {
	v.local.Stop()
}
