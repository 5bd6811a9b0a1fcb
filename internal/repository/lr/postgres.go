package repository

import (
	"context"
	"io"
	"time"

	"github.com/aniladanir/lr-gateway/internal/domain"
	"github.com/aniladanir/lr-gateway/internal/persistant/postgresql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// createdSlack widens the created_at prefilter; the stored IST date and time
// decide membership.
const createdSlack = time.Hour

type pgRepo struct {
	db *gorm.DB
}

// NewPostgresRepository keeps the log in the lr_records table.
func NewPostgresRepository(db *gorm.DB) Repository {
	return &pgRepo{db: db}
}

func (r *pgRepo) Append(ctx context.Context, rec *domain.LRRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *pgRepo) FindBySender(ctx context.Context, mobile string, from, to time.Time) ([]domain.LRRecord, error) {
	var rows []domain.LRRecord
	err := r.db.WithContext(ctx).
		Where("regexp_replace(mobile, '\\D', '', 'g') = ? AND created_at >= ?", domain.DigitsOnly(mobile), from.Add(-createdSlack)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := rows[:0]
	for _, rec := range rows {
		if inWindow(rec, from, to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *pgRepo) MarkCancelled(ctx context.Context, mobile string, target domain.LRRecord, now time.Time) (int, error) {
	updated := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []domain.LRRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("regexp_replace(mobile, '\\D', '', 'g') = ? AND cancelled = ? AND truck_number = ? AND weight = ? AND time = ?",
				domain.DigitsOnly(mobile), false, target.TruckNumber, target.Weight, target.Time).
			Find(&rows).Error; err != nil {
			return err
		}

		ts := now.UTC()
		for _, rec := range rows {
			if !domain.WithinRecentWindow(rec, now) {
				continue
			}
			if err := tx.Model(&domain.LRRecord{}).
				Where("id = ?", rec.ID).
				Updates(map[string]any{
					"cancelled":  true,
					"status":     domain.CancelStatus(rec.Status),
					"updated_at": &ts,
				}).Error; err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (r *pgRepo) Export(ctx context.Context, w io.Writer) error {
	var rows []domain.LRRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return err
	}
	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func (r *pgRepo) Close() error {
	return postgresql.Close(r.db)
}
