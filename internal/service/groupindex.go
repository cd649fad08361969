package service

import (
	"strings"
	"sync"
)

// GroupIndex assigns stable numeric indexes to service group names. Tool
// keys are built as "<group>_<tool>", so an index gives UIs and logs a
// compact handle for each group without re-deriving it from the key.
//
// Indexes start at 1 and never change for the lifetime of the process; a
// group keeps the index it was first assigned regardless of registration
// order elsewhere.
type GroupIndex struct {
	mu      sync.RWMutex
	indexes map[string]int
	next    int
}

// NewGroupIndex creates an empty index.
func NewGroupIndex() *GroupIndex {
	return &GroupIndex{
		indexes: make(map[string]int),
		next:    1,
	}
}

// GetOrAssign returns the index for group, assigning the next free one on
// first sight. Safe for concurrent use; concurrent first sights of the same
// group receive the same index.
func (g *GroupIndex) GetOrAssign(group string) int {
	g.mu.RLock()
	idx, ok := g.indexes[group]
	g.mu.RUnlock()
	if ok {
		return idx
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if idx, ok := g.indexes[group]; ok {
		return idx
	}
	idx = g.next
	g.indexes[group] = idx
	g.next++
	return idx
}

// Contains reports whether group has been assigned an index.
func (g *GroupIndex) Contains(group string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.indexes[group]
	return ok
}

// Size returns the number of groups indexed so far.
func (g *GroupIndex) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.indexes)
}

// Reset drops all assignments. Subsequent GetOrAssign calls start over at 1.
func (g *GroupIndex) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.indexes = make(map[string]int)
	g.next = 1
}

// NormalizeToolKey rewrites a dotted tool reference ("group.tool") into the
// canonical underscore form ("group_tool"). Only the last dot separates the
// group from the tool name; group names may themselves contain dots.
// References without a dot are returned unchanged.
func NormalizeToolKey(ref string) string {
	i := strings.LastIndex(ref, ".")
	if i < 0 {
		return ref
	}
	return ref[:i] + "_" + ref[i+1:]
}
