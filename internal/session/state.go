// Package session отслеживает единственное ожидаемое действие пользователя
// между независимыми доставками вебхука (таблица state, одна строка на
// пользователя).
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Maxim19822003/bot-hudey/internal/schema"
	"github.com/Maxim19822003/bot-hudey/internal/storage"
)

// Machine — конечный автомат сессии: Idle ↔ AwaitingMeal, без очередей.
// Новый Set всегда затирает прежнее состояние (last-write-wins).
type Machine struct {
	store storage.Store
	mu    sync.Mutex
}

// New создаёт автомат поверх хранилища
func New(store storage.Store) *Machine {
	return &Machine{store: store}
}

// Set ставит пользователю ожидаемое действие (upsert строки state)
func (m *Machine) Set(ctx context.Context, userID, action, prompt string) error {
	if userID == "" {
		return fmt.Errorf("пустой user_id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tbl, rowIndex, err := m.find(ctx, userID)
	if err != nil {
		return err
	}

	row := []string{userID, action, time.Now().UTC().Format(time.RFC3339), prompt}
	if rowIndex == 0 {
		return tbl.AppendRow(ctx, row)
	}
	return tbl.ReplaceRow(ctx, rowIndex, row)
}

// Get возвращает текущее действие; пустая строка — состояние Idle.
// Строка короче двух колонок тоже считается Idle.
func (m *Machine) Get(ctx context.Context, userID string) (string, error) {
	tbl, err := schema.EnsureTable(ctx, m.store, schema.TableState)
	if err != nil {
		return "", err
	}
	rows, err := tbl.Rows(ctx)
	if err != nil {
		return "", err
	}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || row[schema.StateColUserID] != userID {
			continue
		}
		if len(row) < 2 {
			return "", nil
		}
		return row[schema.StateColAction], nil
	}
	return "", nil
}

// Clear гасит ожидаемое действие: поля обнуляются, строка остаётся —
// иначе сломается поиск по ключевой колонке. Нет строки — ничего не делаем.
func (m *Machine) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tbl, rowIndex, err := m.find(ctx, userID)
	if err != nil {
		return err
	}
	if rowIndex == 0 {
		return nil
	}
	return tbl.ReplaceRow(ctx, rowIndex, []string{userID, "", "", ""})
}

func (m *Machine) find(ctx context.Context, userID string) (storage.Table, int, error) {
	tbl, err := schema.EnsureTable(ctx, m.store, schema.TableState)
	if err != nil {
		return nil, 0, err
	}
	rows, err := tbl.Rows(ctx)
	if err != nil {
		return nil, 0, err
	}
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > 0 && rows[i][schema.StateColUserID] == userID {
			return tbl, i + 1, nil
		}
	}
	return tbl, 0, nil
}
