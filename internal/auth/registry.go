// Package auth holds the admin, subadmin and allowed-sender sets.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aniladanir/lr-gateway/internal/phone"
)

var (
	ErrDuplicate     = errors.New("number already present")
	ErrNotFound      = errors.New("number not present")
	ErrInvalidNumber = errors.New("invalid phone number")
)

// Role is derived per message from the registry sets.
type Role int

const (
	RoleUnknown Role = iota
	RoleAllowed
	RoleSubadmin
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSubadmin:
		return "subadmin"
	case RoleAllowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// list is an insertion-ordered set persisted as a JSON array.
type list struct {
	path  string
	items []string
}

func (l *list) contains(p string) bool {
	return slices.Contains(l.items, p)
}

// Registry answers membership questions and applies admin edits. Every edit
// is written to disk before it becomes visible; a failed write leaves both
// memory and disk unchanged.
type Registry struct {
	mu        sync.RWMutex
	admins    []string
	subadmins *list
	allowed   *list
}

// NewRegistry loads the persisted lists. Admins come from configuration and
// are never edited at runtime. Entries that fail normalization are dropped.
func NewRegistry(norm *phone.Normalizer, admins []string, allowedPath, subadminPath string) (*Registry, error) {
	allowed, err := loadList(norm, allowedPath)
	if err != nil {
		return nil, fmt.Errorf("load allowed numbers: %w", err)
	}
	subadmins, err := loadList(norm, subadminPath)
	if err != nil {
		return nil, fmt.Errorf("load subadmins: %w", err)
	}

	return &Registry{
		admins:    norm.NormalizeAll(admins),
		subadmins: subadmins,
		allowed:   allowed,
	}, nil
}

func loadList(norm *phone.Normalizer, path string) (*list, error) {
	raw, err := readList(path)
	if err != nil {
		return nil, err
	}
	return &list{path: path, items: norm.NormalizeAll(raw)}, nil
}

func (r *Registry) IsAdmin(p string) bool {
	return slices.Contains(r.admins, p)
}

func (r *Registry) IsSubadmin(p string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subadmins.contains(p)
}

func (r *Registry) IsAllowed(p string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allowed.contains(p)
}

// Role returns the highest role held by p.
func (r *Registry) Role(p string) Role {
	switch {
	case r.IsAdmin(p):
		return RoleAdmin
	case r.IsSubadmin(p):
		return RoleSubadmin
	case r.IsAllowed(p):
		return RoleAllowed
	default:
		return RoleUnknown
	}
}

func (r *Registry) AddAllowed(p string) error    { return r.add(r.allowed, p) }
func (r *Registry) RemoveAllowed(p string) error { return r.remove(r.allowed, p) }
func (r *Registry) AddSubadmin(p string) error   { return r.add(r.subadmins, p) }
func (r *Registry) RemoveSubadmin(p string) error {
	return r.remove(r.subadmins, p)
}

// ListAllowed returns a snapshot in insertion order.
func (r *Registry) ListAllowed() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.allowed.items)
}

// ListSubadmins returns a snapshot in insertion order.
func (r *Registry) ListSubadmins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.subadmins.items)
}

// Admins returns the configured admins; the first one receives triage
// notices.
func (r *Registry) Admins() []string {
	return slices.Clone(r.admins)
}

// Staff returns admins followed by subadmins without duplicates.
func (r *Registry) Staff() []string {
	out := slices.Clone(r.admins)
	for _, p := range r.ListSubadmins() {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) add(l *list, p string) error {
	if p == "" {
		return ErrInvalidNumber
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if l.contains(p) {
		return ErrDuplicate
	}
	next := append(slices.Clone(l.items), p)
	if err := writeList(l.path, next); err != nil {
		return fmt.Errorf("persist %s: %w", l.path, err)
	}
	l.items = next
	return nil
}

func (r *Registry) remove(l *list, p string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(l.items, p)
	if i < 0 {
		return ErrNotFound
	}
	next := slices.Delete(slices.Clone(l.items), i, i+1)
	if err := writeList(l.path, next); err != nil {
		return fmt.Errorf("persist %s: %w", l.path, err)
	}
	l.items = next
	return nil
}
