package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aniladanir/lr-gateway/internal/classify"
	"github.com/aniladanir/lr-gateway/internal/domain"
)

// submitLR runs one LR submission. It never retries: a failed step is
// reported to the first admin and the message is done.
func (s *service) submitLR(ctx context.Context, r *request) error {
	fields := s.extractor.Extract(ctx, r.text)
	if !classify.IsStructured(fields) {
		r.logger.Info("ignoring unstructured lr", slog.String("missing", strings.Join(classify.Missing(fields), ", ")))
		s.notifyAdmin(ctx, fmt.Sprintf("⚠️ Ignored unstructured LR from %s\n\nMissing: %s\n\nParsed:\n%s\n\nMessage: %s",
			r.from, strings.Join(classify.Missing(fields), ", "), formatFields(fields), r.text))
		return nil
	}

	template := s.app.Template()
	rec := domain.NewLRRecord(fields, r.from, template, s.store.Now())

	path, err := s.renderer.RenderLR(ctx, template, rec, r.text)
	if err != nil {
		r.logger.Error("failed to render pdf", "error", err.Error())
		s.notifyAdmin(ctx, fmt.Sprintf("❌ Failed to generate PDF for %s\n%s\n\n%s", r.from, describe(rec), err.Error()))
		return nil
	}

	if err := s.repo.Append(ctx, &rec); err != nil {
		r.logger.Error("failed to log record", "error", err.Error())
		s.notifyAdmin(ctx, fmt.Sprintf("❌ LR for %s was not logged\n%s\n\n%s", r.from, describe(rec), err.Error()))
	}

	mediaID, err := s.messenger.UploadMedia(ctx, path)
	if err != nil {
		r.logger.Error("failed to upload pdf", "error", err.Error())
		s.notifyAdmin(ctx, fmt.Sprintf("❌ Failed to send PDF to %s\n%s\n\n%s", r.from, describe(rec), err.Error()))
		return nil
	}

	filename := fmt.Sprintf("LR-%s.pdf", rec.TruckNumber)
	caption := "LR " + rec.TruckNumber
	if _, err := s.messenger.SendDocument(ctx, r.from, mediaID, filename, caption); err != nil {
		r.logger.Error("failed to send pdf", "error", err.Error())
		s.notifyAdmin(ctx, fmt.Sprintf("❌ Failed to send PDF to %s\n%s\n\n%s", r.from, describe(rec), err.Error()))
		return nil
	}
	s.app.RecordSent(r.from)

	s.broadcast(ctx, "lr copy", s.staffExcept(r.from), func(ctx context.Context, to string) error {
		_, err := s.messenger.SendDocument(ctx, to, mediaID, filename, caption)
		return err
	})

	r.logger.Info("lr delivered",
		slog.String("truck", rec.TruckNumber),
		slog.Int("template", template))
	return nil
}

func formatFields(f domain.LRFields) string {
	return fmt.Sprintf("Truck: %s\nFrom: %s\nTo: %s\nWeight: %s\nDescription: %s\nName: %s",
		f.TruckNumber, f.From, f.To, f.Weight, f.Description, f.Name)
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
