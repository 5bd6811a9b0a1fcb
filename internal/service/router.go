package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aniladanir/lr-gateway/internal/auth"
	"github.com/aniladanir/lr-gateway/internal/classify"
	"github.com/aniladanir/lr-gateway/internal/conversation"
	"github.com/aniladanir/lr-gateway/internal/domain"
	"github.com/aniladanir/lr-gateway/internal/phone"
	repository "github.com/aniladanir/lr-gateway/internal/repository/lr"
	"github.com/aniladanir/lr-gateway/internal/whatsapp"
)

// Messenger delivers outbound WhatsApp messages.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (string, error)
	SendDocument(ctx context.Context, to, mediaID, filename, caption string) (string, error)
	UploadMedia(ctx context.Context, path string) (string, error)
}

// Renderer turns a record into a PDF file and returns its path.
type Renderer interface {
	RenderLR(ctx context.Context, templateID int, rec domain.LRRecord, raw string) (string, error)
}

type Extractor interface {
	Extract(ctx context.Context, message string) domain.LRFields
}

// Dispatcher handles inbound chat messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg whatsapp.Inbound) error
	SentNumbers() []string
}

type Options struct {
	// CancelTTL bounds how long a cancel selection list stays answerable.
	CancelTTL time.Duration
	// ConfirmTTL bounds how long a remove/delete waits for its confirm.
	ConfirmTTL time.Duration
	// ExportDir receives log workbooks before they are uploaded.
	ExportDir string
}

type service struct {
	app        *AppContext
	registry   *auth.Registry
	store      *conversation.Store
	normalizer *phone.Normalizer
	extractor  Extractor
	renderer   Renderer
	messenger  Messenger
	repo       repository.Repository
	opts       Options
	commands   []command
	logger     *slog.Logger
}

func NewService(
	app *AppContext,
	registry *auth.Registry,
	store *conversation.Store,
	normalizer *phone.Normalizer,
	extractor Extractor,
	renderer Renderer,
	messenger Messenger,
	repo repository.Repository,
	opts Options,
	logger *slog.Logger,
) Dispatcher {
	if opts.CancelTTL <= 0 {
		opts.CancelTTL = 5 * time.Minute
	}
	if opts.ConfirmTTL <= 0 {
		opts.ConfirmTTL = 5 * time.Minute
	}
	s := &service{
		app:        app,
		registry:   registry,
		store:      store,
		normalizer: normalizer,
		extractor:  extractor,
		renderer:   renderer,
		messenger:  messenger,
		repo:       repo,
		opts:       opts,
		logger:     logger,
	}
	s.commands = s.commandTable()
	return s
}

func (s *service) SentNumbers() []string {
	return s.app.SentNumbers()
}

// request is one inbound message as seen by a command handler.
type request struct {
	id     string
	from   string
	text   string
	lower  string
	role   auth.Role
	state  conversation.State
	args   []string
	logger *slog.Logger
}

// anyState matches a sender in any conversation state, Idle included.
const anyState conversation.Kind = -1

type command struct {
	name   string
	who    func(s *service, r *request) bool
	state  conversation.Kind
	match  func(lower string) ([]string, bool)
	handle func(s *service, ctx context.Context, r *request) error
}

func admin(_ *service, r *request) bool { return r.role == auth.RoleAdmin }
func known(_ *service, r *request) bool { return r.role != auth.RoleUnknown }
func allowed(s *service, r *request) bool {
	return s.registry.IsAllowed(r.from)
}

func pattern(expr string) func(string) ([]string, bool) {
	re := regexp.MustCompile(expr)
	return func(lower string) ([]string, bool) {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			return nil, false
		}
		return m[1:], true
	}
}

func anything(string) ([]string, bool) { return nil, true }

func goods(lower string) ([]string, bool) {
	return nil, classify.IsGoodsCandidate(lower)
}

// commandTable lists every command in priority order. The first entry whose
// role, pending state and pattern all match handles the message.
func (s *service) commandTable() []command {
	return []command{
		{"template menu", admin, anyState, pattern(`^(?:change template|home)$`), (*service).showTemplates},
		{"help menu", admin, anyState, pattern(`^help$`), (*service).showHelp},
		{"select template", admin, conversation.AwaitingTemplateSelection, pattern(`^([1-8])$`), (*service).selectTemplate},
		{"select help option", admin, conversation.AwaitingHelpMenuSelection, pattern(`^([1-8])$`), (*service).selectHelpOption},

		{"add allowed", admin, anyState, pattern(`^add\s+(\S+)$`), (*service).addAllowed},
		{"remove allowed", admin, anyState, pattern(`^remove\s+(\S+)$`), (*service).requestRemoveAllowed},
		{"confirm remove allowed", admin, anyState, pattern(`^confirm\s+remove\s+(\S+)$`), (*service).confirmRemoveAllowed},
		{"add subadmin", admin, anyState, pattern(`^new\s+(\S+)$`), (*service).addSubadmin},
		{"delete subadmin", admin, anyState, pattern(`^delete\s+(\S+)$`), (*service).requestDeleteSubadmin},
		{"confirm delete subadmin", admin, anyState, pattern(`^confirm\s+delete\s+(\S+)$`), (*service).confirmDeleteSubadmin},

		{"cancel", known, anyState, pattern(`^(?:cancel|cancle)$`), (*service).startCancel},
		{"select cancel", known, conversation.AwaitingCancelSelection, anything, (*service).selectCancel},

		{"unknown help option", admin, conversation.AwaitingHelpMenuSelection, anything, (*service).unknownHelpOption},

		{"submit lr", allowed, anyState, goods, (*service).submitLR},
	}
}

// Dispatch routes one inbound message. Messages from numbers that cannot be
// normalized or hold no role are dropped without a reply. The returned error
// is reserved for failures nobody could be told about.
func (s *service) Dispatch(ctx context.Context, msg whatsapp.Inbound) error {
	msgLogger := s.logger.With(slog.String("messageId", msg.ID))

	from, ok := s.normalizer.Normalize(msg.From)
	if !ok {
		msgLogger.Warn("dropping message from invalid number", slog.String("raw", msg.From))
		return nil
	}
	msgLogger = msgLogger.With(slog.String("from", from))

	role := s.registry.Role(from)
	if role == auth.RoleUnknown {
		msgLogger.Info("dropping message from unauthorized number")
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	unlock := s.store.Lock(from)
	defer unlock()

	r := &request{
		id:     msg.ID,
		from:   from,
		text:   text,
		lower:  strings.ToLower(text),
		role:   role,
		logger: msgLogger,
	}
	if st, ok := s.store.Get(from); ok {
		r.state = st
	}

	for _, cmd := range s.commands {
		if !cmd.who(s, r) {
			continue
		}
		if cmd.state != anyState && cmd.state != r.state.Kind {
			continue
		}
		args, ok := cmd.match(r.lower)
		if !ok {
			continue
		}
		r.args = args
		r.logger.Info("handling message",
			slog.String("command", cmd.name),
			slog.String("role", role.String()),
			slog.String("text", truncate(text, 50)))
		if err := cmd.handle(s, ctx, r); err != nil {
			return fmt.Errorf("%s: %w", cmd.name, err)
		}
		return nil
	}

	r.logger.Debug("no command matched", slog.String("text", truncate(text, 50)))
	return nil
}
