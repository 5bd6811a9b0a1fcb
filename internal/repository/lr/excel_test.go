package repository

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aniladanir/lr-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func record(mobile, truck, weight string, at time.Time) domain.LRRecord {
	return domain.NewLRRecord(domain.LRFields{
		TruckNumber: truck,
		From:        "Indore",
		To:          "Nagpur",
		Weight:      weight,
		Description: "Aluminium Scrap",
	}, mobile, 1, at)
}

func setupExcel(t *testing.T) (Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "generatedLogs.xlsx")
	repo, err := NewExcelRepository(path)
	require.NoError(t, err)
	return repo, path
}

func TestExcelAppendAndFind(t *testing.T) {
	repo, path := setupExcel(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, domain.IST)

	old := record("+919876543210", "MH09HH4512", "7300", now.Add(-30*time.Hour))
	recent := record("+919876543210", "MH09HH4512", "7300", now.Add(-2*time.Hour))
	other := record("+919123456789", "GJ01AB1234", "9000", now.Add(-time.Hour))
	for _, r := range []*domain.LRRecord{&old, &recent, &other} {
		require.NoError(t, repo.Append(ctx, r))
	}
	assert.Equal(t, "Oct 2026", recent.Sheet)
	assert.Equal(t, 3, recent.Row)

	got, err := repo.FindBySender(ctx, "91 98765 43210", now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, recent.Time, got[0].Time)
	assert.Equal(t, "Oct 2026", got[0].Sheet)
	assert.Equal(t, 3, got[0].Row)
	assert.False(t, got[0].Cancelled)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Oct 2026")
	require.NoError(t, err)
	assert.Equal(t, header, rows[0])
	assert.Len(t, rows, 4)
}

func TestExcelMonthSheets(t *testing.T) {
	repo, path := setupExcel(t)
	ctx := context.Background()

	sep := record("+919876543210", "MH09HH4512", "7300", time.Date(2026, 9, 30, 23, 0, 0, 0, domain.IST))
	oct := record("+919876543210", "MH09HH4512", "7300", time.Date(2026, 10, 1, 1, 0, 0, 0, domain.IST))
	require.NoError(t, repo.Append(ctx, &sep))
	require.NoError(t, repo.Append(ctx, &oct))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sep 2026", "Oct 2026"}, f.GetSheetList())
}

func TestExcelMarkCancelled(t *testing.T) {
	repo, _ := setupExcel(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, domain.IST)

	target := record("+919876543210", "MH09HH4512", "7300", now.Add(-time.Hour))
	sameTruckOtherWeight := record("+919876543210", "MH09HH4512", "8000", now.Add(-time.Hour))
	otherSender := record("+919123456789", "MH09HH4512", "7300", now.Add(-time.Hour))
	for _, r := range []*domain.LRRecord{&target, &sameTruckOtherWeight, &otherSender} {
		require.NoError(t, repo.Append(ctx, r))
	}

	n, err := repo.MarkCancelled(ctx, "+919876543210", target, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.MarkCancelled(ctx, "+919876543210", target, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := repo.FindBySender(ctx, "+919876543210", now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Cancelled)
	assert.Equal(t, "Cancelled", got[0].Status)
	assert.False(t, got[1].Cancelled)

	others, err := repo.FindBySender(ctx, "+919123456789", now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.False(t, others[0].Cancelled)
}

func TestExcelMarkCancelledOutsideWindow(t *testing.T) {
	repo, _ := setupExcel(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, domain.IST)

	stale := record("+919876543210", "MH09HH4512", "7300", now.Add(-25*time.Hour))
	require.NoError(t, repo.Append(ctx, &stale))

	n, err := repo.MarkCancelled(ctx, "+919876543210", stale, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestExcelExport(t *testing.T) {
	repo, _ := setupExcel(t)
	ctx := context.Background()

	var empty bytes.Buffer
	require.NoError(t, repo.Export(ctx, &empty))
	f, err := excelize.OpenReader(&empty)
	require.NoError(t, err)
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, [][]string{header}, rows)
	f.Close()

	r := record("+919876543210", "MH09HH4512", "7300", time.Now())
	require.NoError(t, repo.Append(ctx, &r))

	var buf bytes.Buffer
	require.NoError(t, repo.Export(ctx, &buf))
	f, err = excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	recs, err := readSheet(f, sheetFor(r))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "MH09HH4512", recs[0].TruckNumber)
}
