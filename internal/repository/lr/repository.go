// Package repository persists logged lorry receipts.
package repository

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aniladanir/lr-gateway/internal/domain"
)

var ErrUnknownDriver = errors.New("unknown log store driver")

// Repository is the LR log. Records are looked up by sender and by their
// stored IST date and time, never by insertion time.
type Repository interface {
	Append(ctx context.Context, rec *domain.LRRecord) error
	// FindBySender returns the sender's records whose stored date and time
	// fall in [from, to], in log order. mobile is compared digits only.
	FindBySender(ctx context.Context, mobile string, from, to time.Time) ([]domain.LRRecord, error)
	// MarkCancelled cancels the sender's not yet cancelled records from the
	// last 24 hours that agree with target on truck number, weight and time.
	MarkCancelled(ctx context.Context, mobile string, target domain.LRRecord, now time.Time) (int, error)
	// Export writes the whole log as an xlsx workbook, one sheet per month.
	Export(ctx context.Context, w io.Writer) error
	Close() error
}

// sameEntry is the cancellation tie-break.
func sameEntry(a, b domain.LRRecord) bool {
	return strings.TrimSpace(a.TruckNumber) == strings.TrimSpace(b.TruckNumber) &&
		strings.TrimSpace(a.Weight) == strings.TrimSpace(b.Weight) &&
		strings.TrimSpace(a.Time) == strings.TrimSpace(b.Time)
}

func inWindow(r domain.LRRecord, from, to time.Time) bool {
	at, ok := domain.ParseIST(r.Date, r.Time)
	if !ok {
		return false
	}
	return !at.Before(from) && !at.After(to)
}

func sameSender(r domain.LRRecord, mobile string) bool {
	d := domain.DigitsOnly(mobile)
	return d != "" && domain.DigitsOnly(r.Mobile) == d
}
