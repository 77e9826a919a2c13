package graph

import (
	"context"
	"sort"
	"sync"

	"inkwell/internal/iam"
)

type allowEdge struct {
	scope  string
	access string
}

// Memory is an in-memory engine for tests and dev mode with the same
// semantics as the RedisGraph implementation, including the fail-silent
// assignment to unknown groups.
type Memory struct {
	mu      sync.RWMutex
	groups  map[string]struct{}
	scopes  map[string]struct{}
	allows  map[string]map[allowEdge]struct{}
	relates map[int64]map[string]struct{}
}

// NewMemory constructs an empty in-memory graph.
func NewMemory() *Memory {
	return &Memory{
		groups:  make(map[string]struct{}),
		scopes:  make(map[string]struct{}),
		allows:  make(map[string]map[allowEdge]struct{}),
		relates: make(map[int64]map[string]struct{}),
	}
}

func (m *Memory) IsGranted(_ context.Context, userID int64, scope iam.Scope, access iam.Access) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for group := range m.relates[userID] {
		if _, ok := m.allows[group][allowEdge{scope: string(scope), access: string(access)}]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListGroups(_ context.Context, userID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	groups := make([]string, 0, len(m.relates[userID]))
	for group := range m.relates[userID] {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	return groups, nil
}

func (m *Memory) AssignGroup(_ context.Context, userID int64, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[group]; !ok {
		// Unknown group: the MATCH side of the merge finds nothing.
		return nil
	}
	set, ok := m.relates[userID]
	if !ok {
		set = make(map[string]struct{})
		m.relates[userID] = set
	}
	set[group] = struct{}{}
	return nil
}

func (m *Memory) UnassignGroup(_ context.Context, userID int64, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.relates[userID], group)
	return nil
}

func (m *Memory) EnsureGroup(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[name] = struct{}{}
	return nil
}

func (m *Memory) EnsureScope(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scopes[name] = struct{}{}
	return nil
}

func (m *Memory) EnsureAllow(_ context.Context, group, scope, access string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	edges, ok := m.allows[group]
	if !ok {
		edges = make(map[allowEdge]struct{})
		m.allows[group] = edges
	}
	edges[allowEdge{scope: scope, access: access}] = struct{}{}
	return nil
}
