package service

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aniladanir/lr-gateway/internal/pdf"
)

// AppContext is the process wide state the router reads and admins change.
// Concurrent template changes are last write wins.
type AppContext struct {
	mu       sync.RWMutex
	template int
	sent     []string
}

func NewAppContext(template int) (*AppContext, error) {
	a := &AppContext{}
	if err := a.SetTemplate(template); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *AppContext) Template() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.template
}

func (a *AppContext) SetTemplate(n int) error {
	if n < pdf.MinTemplate || n > pdf.MaxTemplate {
		return fmt.Errorf("template %d out of range %d-%d", n, pdf.MinTemplate, pdf.MaxTemplate)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.template = n
	return nil
}

// RecordSent remembers that p received an LR document.
func (a *AppContext) RecordSent(p string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !slices.Contains(a.sent, p) {
		a.sent = append(a.sent, p)
	}
}

// SentNumbers returns the distinct recipients of LR documents since start.
func (a *AppContext) SentNumbers() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.sent)
}
