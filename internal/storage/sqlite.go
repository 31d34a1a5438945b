package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLite — локальный вариант хранилища. Таблицы лежат в двух физических
// таблицах: реестр имён и строки, ячейки сериализуются в JSON.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite открывает файл базы и применяет схему
func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть базу данных: %w", err)
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("не удалось применить схему: %w", err)
	}

	return &SQLite{conn: conn}, nil
}

func (s *SQLite) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT name FROM sheets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка таблиц: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLite) CreateTable(ctx context.Context, name string) (Table, error) {
	_, err := s.conn.ExecContext(ctx, `INSERT OR IGNORE INTO sheets(name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать таблицу %s: %w", name, err)
	}
	return &sqliteTable{conn: s.conn, name: name}, nil
}

func (s *SQLite) Table(ctx context.Context, name string) (Table, error) {
	var found string
	err := s.conn.QueryRowContext(ctx, `SELECT name FROM sheets WHERE name = ?`, name).Scan(&found)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &sqliteTable{conn: s.conn, name: name}, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

type sqliteTable struct {
	conn *sql.DB
	name string
}

func (t *sqliteTable) Name() string { return t.name }

func (t *sqliteTable) Rows(ctx context.Context) ([][]string, error) {
	rows, err := t.conn.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY pos`, t.name)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения строк %s: %w", t.name, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			// битую строку отдаём пустой, скан не прерываем
			cells = nil
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

func (t *sqliteTable) AppendRow(ctx context.Context, values []string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = t.conn.ExecContext(ctx,
		`INSERT INTO sheet_rows(sheet, pos, cells)
		 SELECT ?, COALESCE(MAX(pos), 0) + 1, ? FROM sheet_rows WHERE sheet = ?`,
		t.name, string(raw), t.name)
	if err != nil {
		return fmt.Errorf("ошибка добавления строки в %s: %w", t.name, err)
	}
	return nil
}

func (t *sqliteTable) ReplaceRow(ctx context.Context, index int, values []string) error {
	if index < 1 {
		return fmt.Errorf("неверный номер строки: %d", index)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = t.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO sheet_rows(sheet, pos, cells) VALUES (?, ?, ?)`,
		t.name, index, string(raw))
	if err != nil {
		return fmt.Errorf("ошибка замены строки %d в %s: %w", index, t.name, err)
	}
	return nil
}

func (t *sqliteTable) UpdateCells(ctx context.Context, index int, updates map[int]string) error {
	if index < 1 {
		return fmt.Errorf("неверный номер строки: %d", index)
	}

	// читаем-правим-пишем в одной транзакции, чтобы не потерять чужие ячейки
	tx, err := t.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = ? AND pos = ?`, t.name, index).Scan(&raw)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	var cells []string
	if raw != "" {
		if uerr := json.Unmarshal([]byte(raw), &cells); uerr != nil {
			cells = nil
		}
	}

	for col, val := range updates {
		if col < 1 {
			return fmt.Errorf("неверный номер колонки: %d", col)
		}
		for len(cells) < col {
			cells = append(cells, "")
		}
		cells[col-1] = val
	}

	out, err := json.Marshal(cells)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sheet_rows(sheet, pos, cells) VALUES (?, ?, ?)`,
		t.name, index, string(out)); err != nil {
		return fmt.Errorf("ошибка обновления ячеек %s: %w", t.name, err)
	}
	return tx.Commit()
}
