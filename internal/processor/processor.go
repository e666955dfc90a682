// Package processor routes pending declarations among the connected customs offices.
package processor

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/customs"
	"github.com/OpenNSW/customs/internal/declaration"
	"github.com/OpenNSW/customs/internal/sentinel"
)

// ErrNoOffices is returned by Dispatch when no office is connected.
var ErrNoOffices = fmt.Errorf("no customs offices connected: %w", sentinel.ErrNotFound)

// OfficeNotFoundError is returned when no connected office has the id.
type OfficeNotFoundError struct {
	ID uuid.UUID
}

func (e *OfficeNotFoundError) Error() string {
	return fmt.Sprintf("customs office %s not found", e.ID)
}

func (e *OfficeNotFoundError) Unwrap() error { return sentinel.ErrNotFound }

// CannotBorrowOfficeError is returned when the office chosen for a declaration is not
// connected at the moment it is acquired.
type CannotBorrowOfficeError struct {
	ID uuid.UUID
}

func (e *CannotBorrowOfficeError) Error() string {
	return fmt.Sprintf("cannot borrow customs office %s", e.ID)
}

func (e *CannotBorrowOfficeError) Unwrap() error { return sentinel.ErrConflict }

// OfficeBusyError is returned when disconnecting an office that still holds declarations.
type OfficeBusyError struct {
	ID       uuid.UUID
	Pending  int
	InReview int
}

func (e *OfficeBusyError) Error() string {
	return fmt.Sprintf("customs office %s still holds %d pending and %d in review declaration(s)", e.ID, e.Pending, e.InReview)
}

func (e *OfficeBusyError) Unwrap() error { return sentinel.ErrConflict }

// Placement reports where Dispatch queued a declaration and the entry it replaced.
type Placement struct {
	Office   *customs.Office
	Previous declaration.Pending
	Replaced bool
}

var _ customs.Router = (*Processor)(nil)

// Processor owns every connected office.
type Processor struct {
	mu      sync.RWMutex
	offices map[uuid.UUID]*customs.Office
	policy  SelectionPolicy
}

// New creates a processor. A nil policy selects offices at random.
func New(policy SelectionPolicy) *Processor {
	if policy == nil {
		policy = NewRandomPolicy(time.Now().UnixNano())
	}
	return &Processor{
		offices: make(map[uuid.UUID]*customs.Office),
		policy:  policy,
	}
}

// Connect adds an office, replacing and returning any office with the same id.
func (p *Processor) Connect(o *customs.Office) (*customs.Office, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev, ok := p.offices[o.ID()]
	p.offices[o.ID()] = o
	if ok {
		slog.Warn("customs office already exists, overwriting", "officeID", o.ID())
	} else {
		slog.Info("customs office connected", "officeID", o.ID())
	}
	return prev, ok
}

// Disconnect removes an office and returns it. Offices whose pending pool or inspector
// pools are not empty stay connected.
func (p *Processor) Disconnect(id uuid.UUID) (*customs.Office, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.offices[id]
	if !ok {
		return nil, &OfficeNotFoundError{ID: id}
	}
	if pending, inReview := o.Backlog(); pending > 0 || inReview > 0 {
		return nil, &OfficeBusyError{ID: id, Pending: pending, InReview: inReview}
	}
	delete(p.offices, id)
	slog.Info("customs office disconnected", "officeID", id)
	return o, nil
}

func (p *Processor) Office(id uuid.UUID) (*customs.Office, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	o, ok := p.offices[id]
	if !ok {
		return nil, &OfficeNotFoundError{ID: id}
	}
	return o, nil
}

// Offices lists the connected offices ordered by id.
func (p *Processor) Offices() []*customs.Office {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*customs.Office, 0, len(p.offices))
	for _, id := range p.sortedIDs() {
		out = append(out, p.offices[id])
	}
	return out
}

// Inspector finds an inspector among all connected offices.
func (p *Processor) Inspector(id uuid.UUID) (*customs.Office, *customs.Inspector, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, oid := range p.sortedIDs() {
		o := p.offices[oid]
		if i, err := o.Inspector(id); err == nil {
			return o, i, nil
		}
	}
	return nil, nil, &customs.InspectorNotFoundError{ID: id}
}

// Dispatch upserts a pending declaration into an office pool and reports the office and
// the entry it replaced. A declaration already pending somewhere is updated in place, so
// dispatching the same id twice never spreads it over two pools.
func (p *Processor) Dispatch(d declaration.Pending) (Placement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, err := p.route(d)
	if err != nil {
		return Placement{}, err
	}
	slog.Info("sending declaration to customs office", "declarationID", d.ID(), "officeID", o.ID())
	prev, ok := o.UpsertPending(d)
	return Placement{Office: o, Previous: prev, Replaced: ok}, nil
}

// Route selects the office a declaration goes to without queueing it.
func (p *Processor) Route(d declaration.Pending) (*customs.Office, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.route(d)
}

func (p *Processor) route(d declaration.Pending) (*customs.Office, error) {
	if len(p.offices) == 0 {
		return nil, ErrNoOffices
	}
	ids := p.sortedIDs()
	for _, id := range ids {
		if _, ok := p.offices[id].GetPending(d.ID()); ok {
			return p.offices[id], nil
		}
	}

	id, err := p.policy.Select(ids, d)
	if err != nil {
		return nil, fmt.Errorf("failed to select customs office for declaration %s: %w", d.ID(), err)
	}
	o, ok := p.offices[id]
	if !ok {
		return nil, &CannotBorrowOfficeError{ID: id}
	}
	return o, nil
}

// Locate searches the pending pools of every office. Declarations under review are
// not visible here.
func (p *Processor) Locate(id uuid.UUID) (declaration.Document, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	slog.Debug("requested declaration", "declarationID", id)
	for _, o := range p.offices {
		if d, ok := o.GetPending(id); ok {
			return d.Document(), true
		}
	}
	slog.Debug("declaration not found", "declarationID", id)
	return declaration.Document{}, false
}

func (p *Processor) sortedIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.offices))
	for id := range p.offices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a].String() < ids[b].String() })
	return ids
}
