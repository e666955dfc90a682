// Package customs models customs offices, their inspectors and operators, fee
// schedules and tax assessment.
//
// Every Office and every Inspector guards its own pool. Operations that touch both
// always take the office guard first, so a declaration moving between a pending pool
// and an in-review pool is never observed in neither or in both.
package customs

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/declaration"
)

// Office owns a pending pool plus its inspector and operator rosters.
type Office struct {
	mu         sync.RWMutex
	id         uuid.UUID
	profile    Profile
	params     Params
	pending    map[uuid.UUID]declaration.Pending
	inspectors map[uuid.UUID]*Inspector
	operators  map[uuid.UUID]Operator
}

// NewOffice creates an office with a fresh id, open 09:00 to 20:00.
func NewOffice(name string, location Location) *Office {
	hours := DefaultWorkHours
	return LoadOffice(uuid.New(), Profile{Name: name, Location: &location, WorkHours: &hours}, Params{})
}

// LoadOffice creates an office with a known id and empty pools.
func LoadOffice(id uuid.UUID, profile Profile, params Params) *Office {
	return &Office{
		id:         id,
		profile:    profile,
		params:     params,
		pending:    make(map[uuid.UUID]declaration.Pending),
		inspectors: make(map[uuid.UUID]*Inspector),
		operators:  make(map[uuid.UUID]Operator),
	}
}

func (o *Office) ID() uuid.UUID { return o.id }

func (o *Office) Profile() Profile {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.profile
}

func (o *Office) SetProfile(p Profile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.profile = p
}

func (o *Office) Params() Params {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.params
}

func (o *Office) SetParams(p Params) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.params = p
}

// UpsertPending inserts or replaces a pending declaration and returns the entry it replaced.
func (o *Office) UpsertPending(p declaration.Pending) (declaration.Pending, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := p.ID()
	slog.Info("updating declaration", "declarationID", id, "officeID", o.id)
	prev, ok := o.pending[id]
	o.pending[id] = p
	if ok {
		slog.Info("declaration was updated", "declarationID", id, "officeID", o.id)
	} else {
		slog.Info("declaration was added", "declarationID", id, "officeID", o.id)
	}
	return prev, ok
}

// GetPending returns a copy of a pending declaration.
func (o *Office) GetPending(id uuid.UUID) (declaration.Pending, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.pending[id]
	return p, ok
}

// RemovePending drops a pending declaration and returns it.
func (o *Office) RemovePending(id uuid.UUID) (declaration.Pending, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.pending[id]
	if ok {
		delete(o.pending, id)
	}
	return p, ok
}

// PendingDeclarations lists the pending pool, oldest first.
func (o *Office) PendingDeclarations() []declaration.Pending {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]declaration.Pending, 0, len(o.pending))
	for _, p := range o.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt().Equal(out[b].CreatedAt()) {
			return out[a].CreatedAt().Before(out[b].CreatedAt())
		}
		return out[a].ID().String() < out[b].ID().String()
	})
	return out
}

// Backlog counts the declarations held by the pending pool and by the in-review pools
// of the roster.
func (o *Office) Backlog() (pending, inReview int) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, i := range o.inspectors {
		inReview += i.InReview()
	}
	return len(o.pending), inReview
}

// AddInspector joins an inspector to the roster.
func (o *Office) AddInspector(i *Inspector) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.inspectors[i.id]; ok {
		return &AlreadyExistsError{Kind: "inspector", ID: i.id}
	}
	o.inspectors[i.id] = i
	slog.Info("inspector added", "inspectorID", i.id, "officeID", o.id)
	return nil
}

func (o *Office) Inspector(id uuid.UUID) (*Inspector, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	i, ok := o.inspectors[id]
	if !ok {
		return nil, &InspectorNotFoundError{ID: id}
	}
	return i, nil
}

// RemoveInspector drops an inspector whose in-review pool is empty.
func (o *Office) RemoveInspector(id uuid.UUID) (*Inspector, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	i, ok := o.inspectors[id]
	if !ok {
		return nil, &InspectorNotFoundError{ID: id}
	}
	if n := i.InReview(); n > 0 {
		return nil, &InspectorBusyError{ID: id, InReview: n}
	}
	delete(o.inspectors, id)
	return i, nil
}

// Inspectors lists the roster ordered by id.
func (o *Office) Inspectors() []*Inspector {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*Inspector, 0, len(o.inspectors))
	for _, i := range o.inspectors {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].id.String() < out[b].id.String() })
	return out
}

// AddOperator joins an operator to the roster.
func (o *Office) AddOperator(op Operator) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.operators[op.ID]; ok {
		return &AlreadyExistsError{Kind: "operator", ID: op.ID}
	}
	o.operators[op.ID] = op
	return nil
}

func (o *Office) Operator(id uuid.UUID) (Operator, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	op, ok := o.operators[id]
	if !ok {
		return Operator{}, &OperatorNotFoundError{ID: id}
	}
	return op, nil
}

func (o *Office) RemoveOperator(id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.operators[id]; !ok {
		return &OperatorNotFoundError{ID: id}
	}
	delete(o.operators, id)
	return nil
}

// Operators lists the roster ordered by id.
func (o *Office) Operators() []Operator {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Operator, 0, len(o.operators))
	for _, op := range o.operators {
		out = append(out, op)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID.String() < out[b].ID.String() })
	return out
}

// AssignToInspector moves a declaration from the pending pool into the in-review pool
// of one of this office's inspectors.
func (o *Office) AssignToInspector(declarationID, inspectorID uuid.UUID) (declaration.Inspecting, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	i, ok := o.inspectors[inspectorID]
	if !ok {
		return declaration.Inspecting{}, &InspectorNotFoundError{ID: inspectorID}
	}
	p, ok := o.pending[declarationID]
	if !ok {
		return declaration.Inspecting{}, &declaration.NotFoundError{ID: declarationID}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	delete(o.pending, declarationID)
	return i.fetchLocked(p), nil
}
