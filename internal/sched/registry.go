// internal/sched/registry.go

package sched

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// ResourceRegistry maps a resource name to a FIFO of blocked task ids, with
// wake-one semantics (spec §4.3). Backed by a red-black tree ordered by
// resource name — the teacher's vruntime-ordering dependency repurposed
// here to order the map itself — so Snapshot() walks resources in a
// deterministic order for diagnostics instead of Go's randomized map order.
// Empty queues may remain in the registry; Wait/Signal never remove them.
type ResourceRegistry struct {
	byName *redblacktree.Tree
}

// NewResourceRegistry creates an empty registry.
func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{byName: redblacktree.NewWith(utils.StringComparator)}
}

func (r *ResourceRegistry) queue(resource string) *linkedlistqueue.Queue {
	if v, ok := r.byName.Get(resource); ok {
		return v.(*linkedlistqueue.Queue)
	}
	q := linkedlistqueue.New()
	r.byName.Put(resource, q)
	return q
}

// Wait appends tid to resource's FIFO.
func (r *ResourceRegistry) Wait(resource string, tid TaskID) {
	r.queue(resource).Enqueue(tid)
}

// Signal pops resource's head, if any, and reports it. A resource that is
// empty or was never waited on is a no-op: no event, no side effect.
func (r *ResourceRegistry) Signal(resource string) (TaskID, bool) {
	v, ok := r.byName.Get(resource)
	if !ok {
		return NoTask, false
	}
	q := v.(*linkedlistqueue.Queue)
	head, ok := q.Dequeue()
	if !ok {
		return NoTask, false
	}
	return head.(TaskID), true
}

// Snapshot walks resources in resource-name order and returns each resource
// with a non-empty wait queue and the tids currently waiting on it. The
// result is a Go map, so iterating it does not keep that order.
func (r *ResourceRegistry) Snapshot() map[string][]TaskID {
	out := make(map[string][]TaskID)
	it := r.byName.Iterator()
	for it.Next() {
		resource := it.Key().(string)
		q := it.Value().(*linkedlistqueue.Queue)
		if q.Empty() {
			continue
		}
		values := q.Values()
		tids := make([]TaskID, len(values))
		for i, v := range values {
			tids[i] = v.(TaskID)
		}
		out[resource] = tids
	}
	return out
}

// names returns all resource names that have ever been waited on, in
// sorted order — used by tests that want a stable iteration.
func (r *ResourceRegistry) names() []string {
	var names []string
	it := r.byName.Iterator()
	for it.Next() {
		names = append(names, it.Key().(string))
	}
	return names
}
