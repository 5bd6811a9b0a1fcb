package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/aniladanir/lr-gateway/internal/auth"
	"github.com/aniladanir/lr-gateway/internal/conversation"
	"github.com/aniladanir/lr-gateway/internal/domain"
	"github.com/google/uuid"
)

// nationalNumber is the only format add and new accept.
var nationalNumber = regexp.MustCompile(`^91\d{10}$`)

const templateMenu = "📂 *Choose your PDF Template:*\n\n" +
	"1️⃣ Template 1\n2️⃣ Template 2\n3️⃣ Template 3\n4️⃣ Template 4\n" +
	"5️⃣ Template 5\n6️⃣ Template 6\n7️⃣ Template 7\n8️⃣ Template 8\n\n" +
	"🟢 Reply with a number (1–8) to select."

const helpMenu = "🛠 *Admin Menu*\n\n" +
	"1️⃣ Change Template\n" +
	"2️⃣ Add Number\n" +
	"3️⃣ Remove Number\n" +
	"4️⃣ List Allowed Numbers\n" +
	"5️⃣ Get LR Log Workbook\n" +
	"6️⃣ Add Subadmin\n" +
	"7️⃣ Remove Subadmin\n" +
	"8️⃣ List Subadmins\n\n" +
	"🟢 Reply with a number (1–8)."

func (s *service) showTemplates(ctx context.Context, r *request) error {
	s.store.Set(r.from, conversation.State{Kind: conversation.AwaitingTemplateSelection})
	s.reply(ctx, r.from, templateMenu)
	return nil
}

func (s *service) selectTemplate(ctx context.Context, r *request) error {
	n, _ := strconv.Atoi(r.args[0])
	if err := s.app.SetTemplate(n); err != nil {
		return err
	}
	s.store.Clear(r.from)
	r.logger.Info("template changed", slog.Int("template", n))
	s.reply(ctx, r.from, fmt.Sprintf("✅ Template %d selected.", n))
	return nil
}

func (s *service) showHelp(ctx context.Context, r *request) error {
	s.store.Set(r.from, conversation.State{Kind: conversation.AwaitingHelpMenuSelection})
	s.reply(ctx, r.from, helpMenu)
	return nil
}

func (s *service) selectHelpOption(ctx context.Context, r *request) error {
	s.store.Clear(r.from)

	switch r.args[0] {
	case "1":
		return s.showTemplates(ctx, r)
	case "2":
		s.reply(ctx, r.from, "➕ To add a number send:\nadd 91XXXXXXXXXX")
		return nil
	case "3":
		s.reply(ctx, r.from, "➖ To remove a number send:\nremove 91XXXXXXXXXX")
		return nil
	case "4":
		s.reply(ctx, r.from, numberList("📋 *Allowed Numbers*", s.registry.ListAllowed()))
		return nil
	case "5":
		return s.sendLogWorkbook(ctx, r)
	case "6":
		s.reply(ctx, r.from, "➕ To add a subadmin send:\nnew 91XXXXXXXXXX")
		return nil
	case "7":
		s.reply(ctx, r.from, "➖ To remove a subadmin send:\ndelete 91XXXXXXXXXX")
		return nil
	default:
		s.reply(ctx, r.from, numberList("📋 *Subadmins*", s.registry.ListSubadmins()))
		return nil
	}
}

func (s *service) unknownHelpOption(ctx context.Context, r *request) error {
	s.store.Clear(r.from)
	s.reply(ctx, r.from, "❓ Unknown option. Send *help* to see the menu again.")
	return nil
}

func numberList(title string, numbers []string) string {
	if len(numbers) == 0 {
		return title + "\n\n(none)"
	}
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for i, p := range numbers {
		fmt.Fprintf(&b, "\n%d. %s", i+1, p)
	}
	return b.String()
}

// sendLogWorkbook exports the LR log and sends it to the requesting admin.
func (s *service) sendLogWorkbook(ctx context.Context, r *request) error {
	if err := os.MkdirAll(s.opts.ExportDir, 0o755); err != nil {
		r.logger.Error("failed to create export dir", "error", err.Error())
		s.reply(ctx, r.from, "❌ Could not export the LR log: "+err.Error())
		return nil
	}

	date, _ := domain.FormatIST(s.store.Now())
	filename := "generatedLogs-" + strings.ReplaceAll(date, "/", "-") + ".xlsx"
	path := filepath.Join(s.opts.ExportDir, uuid.NewString()+".xlsx")

	if err := s.exportTo(ctx, path); err != nil {
		r.logger.Error("failed to export log", "error", err.Error())
		s.reply(ctx, r.from, "❌ Could not export the LR log: "+err.Error())
		return nil
	}
	defer os.Remove(path)

	mediaID, err := s.messenger.UploadMedia(ctx, path)
	if err != nil {
		r.logger.Error("failed to upload log workbook", "error", err.Error())
		s.reply(ctx, r.from, "❌ Could not upload the LR log: "+err.Error())
		return nil
	}
	if _, err := s.messenger.SendDocument(ctx, r.from, mediaID, filename, "LR log"); err != nil {
		r.logger.Error("failed to send log workbook", "error", err.Error())
	}
	return nil
}

func (s *service) exportTo(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.repo.Export(ctx, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// argNumber validates a number argument of add or new.
func (s *service) argNumber(arg string) (string, bool) {
	if !nationalNumber.MatchString(arg) {
		return "", false
	}
	return s.normalizer.Normalize(arg)
}

// confirmKey is what the admin must send back to finish a removal.
func confirmKey(action, p string) string {
	return action + " " + strings.TrimPrefix(p, "+")
}

func (s *service) addAllowed(ctx context.Context, r *request) error {
	p, ok := s.argNumber(r.args[0])
	if !ok {
		s.reply(ctx, r.from, "⚠️ Invalid number. Use the format: add 91XXXXXXXXXX")
		return nil
	}
	return s.applyEdit(ctx, r, s.registry.AddAllowed(p),
		fmt.Sprintf("✅ %s added to allowed numbers.", p),
		fmt.Sprintf("ℹ️ %s is already allowed.", p))
}

func (s *service) addSubadmin(ctx context.Context, r *request) error {
	p, ok := s.argNumber(r.args[0])
	if !ok {
		s.reply(ctx, r.from, "⚠️ Invalid number. Use the format: new 91XXXXXXXXXX")
		return nil
	}
	return s.applyEdit(ctx, r, s.registry.AddSubadmin(p),
		fmt.Sprintf("✅ %s added as subadmin.", p),
		fmt.Sprintf("ℹ️ %s is already a subadmin.", p))
}

func (s *service) requestRemoveAllowed(ctx context.Context, r *request) error {
	return s.requestRemoval(ctx, r, "remove", s.registry.IsAllowed, "allowed numbers")
}

func (s *service) requestDeleteSubadmin(ctx context.Context, r *request) error {
	return s.requestRemoval(ctx, r, "delete", s.registry.IsSubadmin, "subadmins")
}

// requestRemoval is the first step of a destructive edit: it only records
// what the admin has to send back.
func (s *service) requestRemoval(ctx context.Context, r *request, action string, member func(string) bool, listName string) error {
	p, ok := s.normalizer.Normalize(r.args[0])
	if !ok {
		s.reply(ctx, r.from, fmt.Sprintf("⚠️ Invalid number. Use the format: %s 91XXXXXXXXXX", action))
		return nil
	}
	if !member(p) {
		s.reply(ctx, r.from, fmt.Sprintf("ℹ️ %s is not in %s.", p, listName))
		return nil
	}
	key := confirmKey(action, p)
	s.store.Expect(r.from, key, s.opts.ConfirmTTL)
	s.reply(ctx, r.from, fmt.Sprintf("⚠️ To remove %s from %s send:\nconfirm %s", p, listName, key))
	return nil
}

func (s *service) confirmRemoveAllowed(ctx context.Context, r *request) error {
	return s.confirmRemoval(ctx, r, "remove", s.registry.RemoveAllowed,
		"✅ %s removed from allowed numbers.")
}

func (s *service) confirmDeleteSubadmin(ctx context.Context, r *request) error {
	return s.confirmRemoval(ctx, r, "delete", s.registry.RemoveSubadmin,
		"✅ %s removed from subadmins.")
}

func (s *service) confirmRemoval(ctx context.Context, r *request, action string, remove func(string) error, done string) error {
	p, ok := s.normalizer.Normalize(r.args[0])
	if !ok || !s.store.Confirm(r.from, confirmKey(action, p)) {
		s.reply(ctx, r.from, fmt.Sprintf("⚠️ No pending request. Send *%s 91XXXXXXXXXX* first.", action))
		return nil
	}
	return s.applyEdit(ctx, r, remove(p), fmt.Sprintf(done, p), fmt.Sprintf("ℹ️ %s was already removed.", p))
}

// applyEdit reports the result of a registry mutation to the admin.
func (s *service) applyEdit(ctx context.Context, r *request, err error, ok, noop string) error {
	switch {
	case err == nil:
		r.logger.Info("registry updated", slog.String("result", ok))
		s.reply(ctx, r.from, ok)
		return nil
	case errors.Is(err, auth.ErrDuplicate), errors.Is(err, auth.ErrNotFound):
		s.reply(ctx, r.from, noop)
		return nil
	default:
		r.logger.Error("failed to persist registry change", "error", err.Error())
		s.reply(ctx, r.from, "❌ Could not save the change: "+err.Error())
		return nil
	}
}
