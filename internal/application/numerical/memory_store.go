package numerical

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// MemoryStore is an in-process DataStore for the CLI and tests. Unknown
// tables are empty.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]Row)}
}

// Insert appends rows to table.
func (m *MemoryStore) Insert(table string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], rows...)
}

func (m *MemoryStore) Count(_ context.Context, table string, filters []Predicate) (int64, error) {
	rows, err := m.match(table, filters, 0)
	return int64(len(rows)), err
}

func (m *MemoryStore) Sum(_ context.Context, table, column string, filters []Predicate) (float64, error) {
	rows, err := m.match(table, filters, 0)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range rows {
		v, ok := toFloat(r[column])
		if !ok && r[column] != nil {
			return 0, errors.Newf(errors.ErrCodeUnknownColumn, "column %s is not numeric", column)
		}
		total += v
	}
	return total, nil
}

func (m *MemoryStore) Query(_ context.Context, table string, filters []Predicate, limit int) ([]Row, error) {
	return m.match(table, filters, limit)
}

func (m *MemoryStore) match(table string, filters []Predicate, limit int) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Row
	for _, r := range m.tables[table] {
		ok, err := matches(r, filters)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func matches(r Row, filters []Predicate) (bool, error) {
	for _, p := range filters {
		v, present := r[p.Column]
		switch p.Operator {
		case FilterEq:
			if !present || !equal(v, p.Value) {
				return false, nil
			}
		case FilterNe:
			if present && equal(v, p.Value) {
				return false, nil
			}
		case FilterGte, FilterLt:
			t, ok := v.(time.Time)
			bound, bok := p.Value.(time.Time)
			if !ok || !bok {
				return false, nil
			}
			if p.Operator == FilterGte && t.Before(bound) {
				return false, nil
			}
			if p.Operator == FilterLt && !t.Before(bound) {
				return false, nil
			}
		default:
			return false, errors.Newf(errors.ErrCodeInvalidFilter, "unsupported operator %s", p.Operator)
		}
	}
	return true, nil
}

func equal(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

//Personal.AI order the ending
