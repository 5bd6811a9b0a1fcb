package repository

import (
	"fmt"
	"path/filepath"

	"github.com/aniladanir/lr-gateway/internal/domain"
	"github.com/aniladanir/lr-gateway/internal/persistant/postgresql"
)

// Open selects the log store: "excel" keeps a workbook under dataDir,
// "postgres" uses dsn.
func Open(driver, dataDir, dsn string) (Repository, error) {
	switch driver {
	case "", "excel":
		return NewExcelRepository(filepath.Join(dataDir, "generatedLogs.xlsx"))
	case "postgres":
		db, err := postgresql.Initialize(dsn, []any{&domain.LRRecord{}})
		if err != nil {
			return nil, fmt.Errorf("initialize postgres: %w", err)
		}
		return NewPostgresRepository(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
