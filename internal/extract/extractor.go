// Package extract turns free-text freight messages into LR fields. A language
// model is asked first and local pattern rules take over when it gives nothing
// usable.
package extract

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aniladanir/lr-gateway/internal/domain"
)

// Tier identifies which strategy produced a result.
type Tier string

const (
	TierModel Tier = "model"
	TierRules Tier = "rules"
	TierNone  Tier = "none"
)

// Extractor runs the two extraction tiers.
type Extractor struct {
	model   Completer
	timeout time.Duration
	logger  *slog.Logger
}

// NewExtractor creates an extractor. model may be nil, in which case only the
// rules tier runs.
func NewExtractor(model Completer, timeout time.Duration, logger *slog.Logger) *Extractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Extractor{model: model, timeout: timeout, logger: logger}
}

// Extract never fails; an unreadable message yields empty fields.
func (e *Extractor) Extract(ctx context.Context, message string) domain.LRFields {
	f, _ := e.ExtractWithTier(ctx, message)
	return f
}

// ExtractWithTier also reports which tier produced the result.
func (e *Extractor) ExtractWithTier(ctx context.Context, message string) (domain.LRFields, Tier) {
	if strings.TrimSpace(message) == "" {
		return domain.LRFields{}, TierNone
	}

	if f, ok := e.fromModel(ctx, message); ok {
		return Normalize(f), TierModel
	}

	f := ruleExtract(message)
	if f == (domain.LRFields{}) {
		return f, TierNone
	}
	return Normalize(f), TierRules
}

func (e *Extractor) fromModel(ctx context.Context, message string) (domain.LRFields, bool) {
	if e.model == nil {
		return domain.LRFields{}, false
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	text, err := e.model.Complete(callCtx, BuildPrompt(message))
	if err != nil {
		e.logger.Warn("model extraction failed, using rules", "error", err.Error())
		return domain.LRFields{}, false
	}
	if strings.TrimSpace(text) == "" {
		e.logger.Warn("model returned empty response, using rules")
		return domain.LRFields{}, false
	}

	obj, ok := RecoverObject(text)
	if !ok {
		e.logger.Warn("could not parse model output, using rules", "output", truncate(text, 200))
		return domain.LRFields{}, false
	}

	f := domain.LRFields{
		TruckNumber: str(obj["truckNumber"]),
		From:        str(obj["from"]),
		To:          str(obj["to"]),
		Weight:      str(obj["weight"]),
		Description: str(obj["description"]),
		Name:        str(obj["name"]),
	}
	if f == (domain.LRFields{}) {
		e.logger.Warn("model returned no fields, using rules")
		return f, false
	}

	e.logger.Debug("model extraction done", slog.Duration("took", time.Since(start)))
	return f, true
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
