package storage

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// callTimeout ограничивает каждое обращение к Sheets API
const callTimeout = 15 * time.Second

// Sheets — боевое хранилище поверх Google Sheets: одна электронная таблица,
// каждый лист — логическая таблица.
type Sheets struct {
	srv           *sheets.Service
	spreadsheetID string
}

// NewSheets авторизуется по JSON сервисного аккаунта и открывает таблицу
func NewSheets(ctx context.Context, spreadsheetID string, credsJSON []byte) (*Sheets, error) {
	creds, err := google.CredentialsFromJSON(ctx, credsJSON,
		sheets.SpreadsheetsScope,
		sheets.DriveScope,
	)
	if err != nil {
		return nil, fmt.Errorf("неверный GOOGLE_CREDS_JSON: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать клиент Sheets: %w", err)
	}

	return &Sheets{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, callTimeout)
}

func (s *Sheets) TableNames(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	resp, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка листов: %w", err)
	}

	var names []string
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			names = append(names, sh.Properties.Title)
		}
	}
	return names, nil
}

func (s *Sheets) CreateTable(ctx context.Context, name string) (Table, error) {
	names, err := s.TableNames(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if n == name {
			return &sheetsTable{store: s, name: name}, nil
		}
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}
	if _, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("не удалось создать лист %s: %w", name, err)
	}
	return &sheetsTable{store: s, name: name}, nil
}

func (s *Sheets) Table(ctx context.Context, name string) (Table, error) {
	names, err := s.TableNames(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if n == name {
			return &sheetsTable{store: s, name: name}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
}

func (s *Sheets) Close() error { return nil }

type sheetsTable struct {
	store *Sheets
	name  string
}

func (t *sheetsTable) Name() string { return t.name }

func (t *sheetsTable) Rows(ctx context.Context) ([][]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	resp, err := t.store.srv.Spreadsheets.Values.Get(t.store.spreadsheetID, t.name).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа %s: %w", t.name, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (t *sheetsTable) AppendRow(ctx context.Context, values []string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	vr := &sheets.ValueRange{Values: [][]interface{}{toInterfaces(values)}}
	_, err := t.store.srv.Spreadsheets.Values.Append(t.store.spreadsheetID, t.name, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ошибка добавления строки в %s: %w", t.name, err)
	}
	return nil
}

func (t *sheetsTable) ReplaceRow(ctx context.Context, index int, values []string) error {
	if index < 1 {
		return fmt.Errorf("неверный номер строки: %d", index)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	vr := &sheets.ValueRange{Values: [][]interface{}{toInterfaces(values)}}
	_, err := t.store.srv.Spreadsheets.Values.Update(
		t.store.spreadsheetID,
		fmt.Sprintf("%s!A%d", t.name, index),
		vr,
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ошибка замены строки %d в %s: %w", index, t.name, err)
	}
	return nil
}

// UpdateCells пишет несколько ячеек одной строки одним batchUpdate —
// поле и updated_at уезжают в хранилище единым вызовом.
func (t *sheetsTable) UpdateCells(ctx context.Context, index int, updates map[int]string) error {
	if index < 1 {
		return fmt.Errorf("неверный номер строки: %d", index)
	}
	if len(updates) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var data []*sheets.ValueRange
	for col, val := range updates {
		if col < 1 {
			return fmt.Errorf("неверный номер колонки: %d", col)
		}
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", t.name, columnLetter(col), index),
			Values: [][]interface{}{{val}},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}
	_, err := t.store.srv.Spreadsheets.Values.BatchUpdate(t.store.spreadsheetID, req).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ошибка обновления ячеек %s: %w", t.name, err)
	}
	return nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// columnLetter переводит номер колонки (с 1) в буквенный адрес: 1 → A, 27 → AA
func columnLetter(col int) string {
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}
