package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aniladanir/lr-gateway/internal/conversation"
	"github.com/aniladanir/lr-gateway/internal/domain"
)

// findRecent returns the sender's records from the last 24 hours IST.
func (s *service) findRecent(ctx context.Context, sender string) ([]domain.LRRecord, error) {
	now := s.store.Now()
	return s.repo.FindBySender(ctx, sender, now.Add(-domain.RecentWindow), now)
}

func (s *service) startCancel(ctx context.Context, r *request) error {
	records, err := s.findRecent(ctx, r.from)
	if err != nil {
		return fmt.Errorf("find recent records: %w", err)
	}
	if len(records) == 0 {
		s.store.Clear(r.from)
		s.reply(ctx, r.from, "ℹ️ No LR records found in the last 24 hours.")
		return nil
	}

	s.store.Set(r.from, conversation.State{
		Kind:      conversation.AwaitingCancelSelection,
		Items:     records,
		ExpiresAt: s.store.Now().Add(s.opts.CancelTTL),
	})

	var b strings.Builder
	b.WriteString("🗂 *Your LRs from the last 24 hours:*\n")
	for i, rec := range records {
		fmt.Fprintf(&b, "\n%d. %s", i+1, describe(rec))
		if rec.Cancelled {
			b.WriteString(" (cancelled)")
		}
	}
	fmt.Fprintf(&b, "\n\nReply with the number to cancel (valid for %s).", humanDuration(s.opts.CancelTTL))
	s.reply(ctx, r.from, b.String())
	return nil
}

func (s *service) selectCancel(ctx context.Context, r *request) error {
	items := r.state.Items
	n, err := strconv.Atoi(strings.TrimSpace(r.text))
	if err != nil || n < 1 || n > len(items) {
		s.reply(ctx, r.from, fmt.Sprintf("⚠️ Invalid selection. Reply with a number between 1 and %d.", len(items)))
		return nil
	}
	s.store.Clear(r.from)

	target := items[n-1]
	if target.Cancelled {
		s.reply(ctx, r.from, fmt.Sprintf("ℹ️ LR %s is already cancelled.", target.TruckNumber))
		return nil
	}

	updated, err := s.repo.MarkCancelled(ctx, r.from, target, s.store.Now())
	if err != nil {
		r.logger.Error("failed to mark record cancelled", "error", err.Error())
		s.notifyAdmin(ctx, fmt.Sprintf("❌ Cancel failed for %s (%s): %s", r.from, describe(target), err.Error()))
		s.reply(ctx, r.from, "❌ Could not cancel the LR right now. The admin has been informed.")
		return nil
	}
	if updated == 0 {
		s.reply(ctx, r.from, fmt.Sprintf("ℹ️ LR %s is already cancelled or older than 24 hours.", target.TruckNumber))
		return nil
	}

	r.logger.Info("record cancelled", slog.String("truck", target.TruckNumber), slog.Int("rows", updated))
	s.reply(ctx, r.from, fmt.Sprintf("✅ LR %s cancelled.", target.TruckNumber))
	s.notifyStaff(ctx, r.from, fmt.Sprintf("🚫 LR cancelled by %s\n%s", r.from, describe(target)))
	return nil
}

func describe(rec domain.LRRecord) string {
	route := rec.To
	if rec.From != "" {
		route = rec.From + " → " + rec.To
	}
	return fmt.Sprintf("%s | %s | %s | %s | %s %s",
		rec.TruckNumber, route, rec.Weight, rec.Description, rec.Date, rec.Time)
}
