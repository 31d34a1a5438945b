// Package storage описывает узкий интерфейс строчно-ориентированного
// хранилища: именованные таблицы, строка заголовка, добавление и замена строк.
// Реализации: Google Sheets (боевая), SQLite (локальная), Memory (тесты).
package storage

import (
	"context"
	"errors"
)

// ErrTableNotFound возвращается при обращении к несуществующей таблице.
var ErrTableNotFound = errors.New("таблица не найдена")

// Table — одна именованная таблица. Индексация строк и колонок с единицы,
// строка 1 — заголовок (как в листах Google Sheets).
type Table interface {
	// Name возвращает имя таблицы
	Name() string

	// Rows возвращает все строки, включая заголовок. Строки могут быть
	// разной длины — потребитель обязан это терпеть.
	Rows(ctx context.Context) ([][]string, error)

	// AppendRow дописывает строку в конец таблицы
	AppendRow(ctx context.Context, values []string) error

	// ReplaceRow целиком заменяет строку index
	ReplaceRow(ctx context.Context, index int, values []string) error

	// UpdateCells меняет несколько ячеек строки index одним обращением
	// к хранилищу: updates — колонка (с 1) → новое значение.
	UpdateCells(ctx context.Context, index int, updates map[int]string) error
}

// Store — хранилище таблиц. Реализации безопасны для конкурентного
// использования; передаётся в компоненты явно, без глобального состояния.
type Store interface {
	TableNames(ctx context.Context) ([]string, error)
	CreateTable(ctx context.Context, name string) (Table, error)
	Table(ctx context.Context, name string) (Table, error)
	Close() error
}
