package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aniladanir/lr-gateway/internal/domain"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type excelRepo struct {
	path string
	mu   sync.Mutex
}

// NewExcelRepository keeps the log in a single workbook at path with one
// sheet per IST month.
func NewExcelRepository(path string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &excelRepo{path: path}, nil
}

func (r *excelRepo) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	return f, nil
}

// save writes to a temp file next to the workbook and renames it into place.
func (r *excelRepo) save(f *excelize.File) error {
	tmp := filepath.Join(filepath.Dir(r.path), "."+uuid.NewString()+".xlsx")
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

func (r *excelRepo) Append(_ context.Context, rec *domain.LRRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.open()
	if err != nil {
		return err
	}
	defer f.Close()

	sheet, row, err := appendRow(f, *rec)
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	if err := r.save(f); err != nil {
		return err
	}
	rec.Sheet, rec.Row = sheet, row
	return nil
}

func (r *excelRepo) FindBySender(_ context.Context, mobile string, from, to time.Time) ([]domain.LRRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []domain.LRRecord
	for _, sheet := range f.GetSheetList() {
		rows, err := readSheet(f, sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for _, rec := range rows {
			if sameSender(rec, mobile) && inWindow(rec, from, to) {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (r *excelRepo) MarkCancelled(_ context.Context, mobile string, target domain.LRRecord, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	updated := 0
	for _, sheet := range f.GetSheetList() {
		rows, err := readSheet(f, sheet)
		if err != nil {
			return 0, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for _, rec := range rows {
			if rec.Cancelled || !sameSender(rec, mobile) || !domain.WithinRecentWindow(rec, now) || !sameEntry(rec, target) {
				continue
			}
			if err := markRow(f, rec); err != nil {
				return 0, fmt.Errorf("mark row %s!%d: %w", sheet, rec.Row, err)
			}
			updated++
		}
	}

	if updated > 0 {
		if err := r.save(f); err != nil {
			return 0, err
		}
	}
	return updated, nil
}

func (r *excelRepo) Export(_ context.Context, w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		f, err := buildWorkbook(nil)
		if err != nil {
			return err
		}
		defer f.Close()
		return f.Write(w)
	}

	f, err := r.open()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func (r *excelRepo) Close() error {
	return nil
}
