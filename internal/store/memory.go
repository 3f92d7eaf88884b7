package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ozsure/quoting/internal/engine"
	"github.com/ozsure/quoting/internal/rating"
	"github.com/ozsure/quoting/internal/rules"
)

// MemoryStore is an in-memory implementation of the Store interface. It
// uses maps guarded by an RWMutex and is suitable for development,
// testing, or single-instance deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	rules  map[string]rules.Rule
	tables map[rating.LineOfBusiness][]rating.Table
	seq    int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:  make(map[string]rules.Rule),
		tables: make(map[rating.LineOfBusiness][]rating.Table),
	}
}

// EffectiveRules filters to active, in-window, applicability-matched rules
// and orders them by priority then creation sequence.
func (m *MemoryStore) EffectiveRules(_ context.Context, q engine.RuleQuery) ([]rules.Rule, error) {
	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	wanted := make(map[rules.Category]struct{}, len(q.Categories))
	for _, c := range q.Categories {
		wanted[c] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]rules.Rule, 0, len(m.rules))
	for _, r := range m.rules {
		if len(wanted) > 0 {
			if _, ok := wanted[r.Category]; !ok {
				continue
			}
		}
		if !r.IsEffective(asOf) {
			continue
		}
		if q.EntityType != "" && !r.AppliesToEntity(q.EntityType) {
			continue
		}
		if q.LineOfBusiness != "" && !r.AppliesToLine(q.LineOfBusiness) {
			continue
		}
		if q.State != "" && !r.AppliesToState(q.State) {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

// ListRules returns every rule in creation order.
func (m *MemoryStore) ListRules(_ context.Context) ([]rules.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]rules.Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// GetRule returns a single rule by id.
func (m *MemoryStore) GetRule(_ context.Context, id string) (*rules.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	return &r, nil
}

// UpsertRule creates or replaces a rule. A replaced rule keeps its
// creation sequence so priority tie-breaking stays stable.
func (m *MemoryStore) UpsertRule(_ context.Context, r rules.Rule) error {
	if err := rules.ValidateRule(r); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.rules[r.ID]; ok {
		r.Seq = existing.Seq
	} else {
		m.seq++
		r.Seq = m.seq
	}
	if r.EffectiveFrom.IsZero() {
		r.EffectiveFrom = time.Now()
	}
	m.rules[r.ID] = r
	return nil
}

// DeleteRule removes a rule. Idempotent.
func (m *MemoryStore) DeleteRule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rules, id)
	return nil
}

// ActiveTable returns the highest-version active table for the line.
func (m *MemoryStore) ActiveTable(_ context.Context, line rating.LineOfBusiness) (*rating.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *rating.Table
	now := time.Now()
	for i := range m.tables[line] {
		t := m.tables[line][i]
		if !t.IsEffective(now) {
			continue
		}
		if best == nil || t.Version > best.Version {
			best = &t
		}
	}
	if best == nil {
		return nil, rating.ErrTableNotFound
	}
	copied := *best
	return &copied, nil
}

// UpsertTable stores a rating table version, replacing an existing one
// with the same line and version.
func (m *MemoryStore) UpsertTable(_ context.Context, t rating.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions := m.tables[t.LineOfBusiness]
	for i := range versions {
		if versions[i].Version == t.Version {
			versions[i] = t
			return nil
		}
	}
	m.tables[t.LineOfBusiness] = append(versions, t)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }
