// Package declarant models the participant who fills in and submits declarations.
package declarant

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/customs"
	"github.com/OpenNSW/customs/internal/declaration"
	"github.com/OpenNSW/customs/internal/processor"
)

// Dispatcher queues a pending declaration into an office pool.
type Dispatcher interface {
	Dispatch(p declaration.Pending) (processor.Placement, error)
}

// Declarant keeps a personal archive of declarations in any state.
type Declarant struct {
	mu           sync.RWMutex
	id           uuid.UUID
	name         string
	declarations map[uuid.UUID]declaration.Document
}

func New(name string) *Declarant {
	id := uuid.New()
	slog.Debug("creating declarant", "declarantID", id)
	return Load(id, name)
}

func Load(id uuid.UUID, name string) *Declarant {
	return &Declarant{
		id:           id,
		name:         name,
		declarations: make(map[uuid.UUID]declaration.Document),
	}
}

func (d *Declarant) ID() uuid.UUID { return d.id }
func (d *Declarant) Name() string  { return d.name }

// NewDraft creates a draft signed by this declarant and files it in the archive.
func (d *Declarant) NewDraft() declaration.Draft {
	draft := declaration.New()
	draft.SignBy(d.id)
	d.UpdateDeclaration(draft.Document())
	return draft
}

// UpdateDeclaration files a declaration of any state and returns the entry it replaced.
func (d *Declarant) UpdateDeclaration(doc declaration.Document) (declaration.Document, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	slog.Debug("updating declaration", "declarationID", doc.ID(), "declarantID", d.id, "state", doc.State())
	prev, ok := d.declarations[doc.ID()]
	d.declarations[doc.ID()] = doc
	return prev, ok
}

func (d *Declarant) GetDeclaration(id uuid.UUID) (declaration.Document, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	doc, ok := d.declarations[id]
	return doc, ok
}

// Declarations lists the archive, newest first.
func (d *Declarant) Declarations() []declaration.Document {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]declaration.Document, 0, len(d.declarations))
	for _, doc := range d.declarations {
		out = append(out, doc)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt().After(out[b].CreatedAt()) })
	return out
}

// SendDocs validates an archived draft, dispatches it and files its pending form in
// place of the draft. It returns the office the declaration was queued at.
func (d *Declarant) SendDocs(dispatcher Dispatcher, id uuid.UUID) (declaration.Pending, *customs.Office, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.declarations[id]
	if !ok {
		slog.Error("declaration not found", "declarationID", id, "declarantID", d.id)
		return declaration.Pending{}, nil, &declaration.NotFoundError{ID: id}
	}
	draft, err := doc.Draft()
	if err != nil {
		return declaration.Pending{}, nil, err
	}
	pending, err := draft.Validate()
	if err != nil {
		return declaration.Pending{}, nil, err
	}
	placed, err := dispatcher.Dispatch(pending)
	if err != nil {
		return declaration.Pending{}, nil, fmt.Errorf("failed to send declaration %s: %w", id, err)
	}
	d.declarations[id] = pending.Document()
	slog.Info("declaration sent", "declarationID", id, "declarantID", d.id)
	return pending, placed.Office, nil
}
