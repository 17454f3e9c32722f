package remote

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	appErrors "github.com/unclebandit/clinic-crm/internal/errors"
	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/normalize"
)

const (
	customersSheet = "Customers"
	usersSheet     = "Users"
)

// WorkbookSource reads an .xlsx export of the sheet. The first row of each
// sheet is the header. Status pushes are written back into the file.
type WorkbookSource struct {
	Path string
	mu   sync.Mutex
}

func NewWorkbookSource(path string) *WorkbookSource {
	return &WorkbookSource{Path: path}
}

func (s *WorkbookSource) Customers(ctx context.Context) ([]normalize.Record, error) {
	return s.read(ActionGetCustomers, customersSheet, true)
}

func (s *WorkbookSource) Users(ctx context.Context) ([]normalize.Record, error) {
	return s.read(ActionGetUsers, usersSheet, false)
}

func (s *WorkbookSource) read(action, name string, firstAsFallback bool) ([]normalize.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, &appErrors.TransportError{Action: action, Err: err}
	}
	defer func() { _ = f.Close() }()

	sheet := findSheet(f.GetSheetList(), name, firstAsFallback)
	if sheet == "" {
		return nil, &appErrors.TransportError{Action: action, Err: fmt.Errorf("worksheet %q not found", name)}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &appErrors.TransportError{Action: action, Err: err}
	}
	return rowsToRecords(rows), nil
}

// PushUpdate rewrites status and notes on every row whose id matches.
func (s *WorkbookSource) PushUpdate(ctx context.Context, update model.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := model.UpdateCustomerAction
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return &appErrors.TransportError{Action: action, Err: err}
	}
	defer func() { _ = f.Close() }()

	sheet := findSheet(f.GetSheetList(), customersSheet, true)
	if sheet == "" {
		return &appErrors.TransportError{Action: action, Err: fmt.Errorf("worksheet %q not found", customersSheet)}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return &appErrors.TransportError{Action: action, Err: err}
	}
	if len(rows) == 0 {
		return &appErrors.TransportError{Action: action, Err: fmt.Errorf("worksheet is empty")}
	}

	header := rows[0]
	idCol := columnIndex(header, "id")
	if idCol < 0 {
		return &appErrors.TransportError{Action: action, Err: fmt.Errorf("no id column")}
	}
	statusCol, err := s.ensureColumn(f, sheet, &header, "status")
	if err != nil {
		return &appErrors.TransportError{Action: action, Err: err}
	}
	notesCol, err := s.ensureColumn(f, sheet, &header, "notes")
	if err != nil {
		return &appErrors.TransportError{Action: action, Err: err}
	}

	for i, row := range rows[1:] {
		if cellValue(row, idCol) != update.ID {
			continue
		}
		line := i + 2
		if err := setCell(f, sheet, statusCol, line, string(update.Status)); err != nil {
			return &appErrors.TransportError{Action: action, Err: err}
		}
		if err := setCell(f, sheet, notesCol, line, update.Notes); err != nil {
			return &appErrors.TransportError{Action: action, Err: err}
		}
	}

	if err := f.Save(); err != nil {
		return &appErrors.TransportError{Action: action, Err: err}
	}
	return nil
}

// ensureColumn returns the index of field in header, appending a header
// cell when the sheet has no such column yet.
func (s *WorkbookSource) ensureColumn(f *excelize.File, sheet string, header *[]string, field string) (int, error) {
	if idx := columnIndex(*header, field); idx >= 0 {
		return idx, nil
	}
	idx := len(*header)
	if err := setCell(f, sheet, idx, 1, field); err != nil {
		return -1, fmt.Errorf("add %s column: %w", field, err)
	}
	*header = append(*header, field)
	return idx, nil
}

func setCell(f *excelize.File, sheet string, col, line int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col+1, line)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

// XLSSource reads a legacy .xls workbook. It cannot be written back.
type XLSSource struct {
	Path string
}

func NewXLSSource(path string) *XLSSource {
	return &XLSSource{Path: path}
}

func (s *XLSSource) Customers(ctx context.Context) ([]normalize.Record, error) {
	return s.read(ActionGetCustomers, customersSheet, true)
}

func (s *XLSSource) Users(ctx context.Context) ([]normalize.Record, error) {
	return s.read(ActionGetUsers, usersSheet, false)
}

func (s *XLSSource) PushUpdate(ctx context.Context, update model.StatusUpdate) error {
	return appErrors.ErrReadOnlySource
}

func (s *XLSSource) read(action, name string, firstAsFallback bool) ([]normalize.Record, error) {
	wb, err := xls.Open(s.Path, "utf-8")
	if err != nil {
		return nil, &appErrors.TransportError{Action: action, Err: err}
	}

	var names []string
	sheets := map[string]*xls.WorkSheet{}
	for i := 0; i < wb.NumSheets(); i++ {
		sh := wb.GetSheet(i)
		if sh == nil {
			continue
		}
		names = append(names, sh.Name)
		sheets[sh.Name] = sh
	}
	sheet := findSheet(names, name, firstAsFallback)
	if sheet == "" {
		return nil, &appErrors.TransportError{Action: action, Err: fmt.Errorf("worksheet %q not found", name)}
	}

	sh := sheets[sheet]
	var rows [][]string
	for r := 0; r <= int(sh.MaxRow); r++ {
		row := sh.Row(r)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		rows = append(rows, cells)
	}
	return rowsToRecords(rows), nil
}

func findSheet(names []string, want string, firstAsFallback bool) string {
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), want) {
			return n
		}
	}
	if firstAsFallback && len(names) > 0 {
		return names[0]
	}
	return ""
}

// rowsToRecords keys every data row by the header row. Blank rows are
// dropped and cells past the end of a short row are left out.
func rowsToRecords(rows [][]string) []normalize.Record {
	records := []normalize.Record{}
	if len(rows) == 0 {
		return records
	}
	header := rows[0]
	for _, row := range rows[1:] {
		rec := normalize.Record{}
		blank := true
		for j, key := range header {
			key = strings.TrimSpace(key)
			if key == "" || j >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[j])
			if v != "" {
				blank = false
			}
			rec[key] = v
		}
		if !blank {
			records = append(records, rec)
		}
	}
	return records
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func columnIndex(header []string, field string) int {
	want := normalizeHeader(field)
	for i, h := range header {
		if normalizeHeader(h) == want {
			return i
		}
	}
	return -1
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var (
	_ Source = (*WorkbookSource)(nil)
	_ Source = (*XLSSource)(nil)
)
