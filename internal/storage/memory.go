package storage

import (
	"context"
	"fmt"
	"sync"
)

// Memory — хранилище в памяти для тестов и локальных прогонов.
type Memory struct {
	mu     sync.Mutex
	tables map[string][][]string
	order  []string
}

// NewMemory создаёт пустое хранилище в памяти
func NewMemory() *Memory {
	return &Memory{tables: make(map[string][][]string)}
}

func (m *Memory) TableNames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.order))
	copy(names, m.order)
	return names, nil
}

func (m *Memory) CreateTable(ctx context.Context, name string) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[name]; !ok {
		m.tables[name] = nil
		m.order = append(m.order, name)
	}
	return &memoryTable{store: m, name: name}, nil
}

func (m *Memory) Table(ctx context.Context, name string) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return &memoryTable{store: m, name: name}, nil
}

func (m *Memory) Close() error { return nil }

type memoryTable struct {
	store *Memory
	name  string
}

func (t *memoryTable) Name() string { return t.name }

func (t *memoryTable) Rows(ctx context.Context) ([][]string, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	rows, ok := t.store.tables[t.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, t.name)
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (t *memoryTable) AppendRow(ctx context.Context, values []string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.tables[t.name]; !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, t.name)
	}
	t.store.tables[t.name] = append(t.store.tables[t.name], append([]string(nil), values...))
	return nil
}

func (t *memoryTable) ReplaceRow(ctx context.Context, index int, values []string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	rows, ok := t.store.tables[t.name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, t.name)
	}
	if index < 1 {
		return fmt.Errorf("неверный номер строки: %d", index)
	}
	for len(rows) < index {
		rows = append(rows, nil)
	}
	rows[index-1] = append([]string(nil), values...)
	t.store.tables[t.name] = rows
	return nil
}

func (t *memoryTable) UpdateCells(ctx context.Context, index int, updates map[int]string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	rows, ok := t.store.tables[t.name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, t.name)
	}
	if index < 1 || index > len(rows) {
		return fmt.Errorf("неверный номер строки: %d", index)
	}
	row := rows[index-1]
	for col, val := range updates {
		if col < 1 {
			return fmt.Errorf("неверный номер колонки: %d", col)
		}
		for len(row) < col {
			row = append(row, "")
		}
		row[col-1] = val
	}
	rows[index-1] = row
	return nil
}
