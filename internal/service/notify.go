package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const waMaxLen = 4096

// broadcast calls send for every recipient. One failed recipient never stops
// the others; failures are counted in a single summary line.
func (s *service) broadcast(ctx context.Context, what string, recipients []string, send func(ctx context.Context, to string) error) {
	failed := 0
	for _, to := range recipients {
		if err := send(ctx, to); err != nil {
			failed++
			s.logger.Warn("broadcast delivery failed", slog.String("what", what), slog.String("to", to), "error", err.Error())
		}
	}
	if len(recipients) == 0 {
		return
	}
	s.logger.Info("broadcast done",
		slog.String("what", what),
		slog.Int("recipients", len(recipients)),
		slog.Int("failed", failed))
}

// send delivers text to one recipient, split into WhatsApp sized chunks.
func (s *service) send(ctx context.Context, to, text string) error {
	for _, chunk := range splitMessage(text, waMaxLen) {
		if _, err := s.messenger.SendText(ctx, to, chunk); err != nil {
			return err
		}
	}
	return nil
}

// reply is send for conversational answers. A failed reply is logged and
// does not fail the inbound message.
func (s *service) reply(ctx context.Context, to, text string) {
	if err := s.send(ctx, to, text); err != nil {
		s.logger.Error("failed to send reply", slog.String("to", to), "error", err.Error())
	}
}

// notifyAdmin sends a triage notice to the first configured admin.
func (s *service) notifyAdmin(ctx context.Context, text string) {
	admins := s.registry.Admins()
	if len(admins) == 0 {
		s.logger.Warn("no admin configured for notice", slog.String("notice", truncate(text, 50)))
		return
	}
	s.reply(ctx, admins[0], text)
}

// notifyStaff sends text to every admin and subadmin except skip.
func (s *service) notifyStaff(ctx context.Context, skip, text string) {
	s.broadcast(ctx, "staff notice", s.staffExcept(skip), func(ctx context.Context, to string) error {
		return s.send(ctx, to, text)
	})
}

func (s *service) staffExcept(skip string) []string {
	var out []string
	for _, p := range s.registry.Staff() {
		if p != skip {
			out = append(out, p)
		}
	}
	return out
}

// splitMessage splits text into chunks of at most maxLen bytes, preferring
// line breaks.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	minSplit := maxLen / 4
	var chunks []string

	for len(text) > maxLen {
		chunk := text[:maxLen]

		if i := strings.LastIndex(chunk, "\n"); i >= minSplit {
			chunks = append(chunks, strings.TrimSpace(text[:i]))
			text = strings.TrimSpace(text[i:])
			continue
		}
		if i := strings.LastIndex(chunk, " "); i >= minSplit {
			chunks = append(chunks, strings.TrimSpace(text[:i]))
			text = strings.TrimSpace(text[i:])
			continue
		}

		cut := maxLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxLen
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}

	if text != "" {
		chunks = append(chunks, strings.TrimSpace(text))
	}
	return chunks
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
