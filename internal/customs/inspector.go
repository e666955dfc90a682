package customs

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/declaration"
	"github.com/OpenNSW/customs/internal/sentinel"
)

// Router chooses the office a pending declaration is queued into.
type Router interface {
	Route(p declaration.Pending) (*Office, error)
}

// Inspector reviews declarations held in its own in-review pool.
type Inspector struct {
	mu           sync.Mutex
	id           uuid.UUID
	name         string
	rank         string
	post         string
	declarations map[uuid.UUID]declaration.Inspecting
}

// NewInspector creates an inspector with a fresh id and an empty pool.
func NewInspector(name, post, rank string) *Inspector {
	return LoadInspector(uuid.New(), name, post, rank)
}

// LoadInspector creates an inspector with a known id.
func LoadInspector(id uuid.UUID, name, post, rank string) *Inspector {
	return &Inspector{
		id:           id,
		name:         name,
		post:         post,
		rank:         rank,
		declarations: make(map[uuid.UUID]declaration.Inspecting),
	}
}

func (i *Inspector) ID() uuid.UUID { return i.id }
func (i *Inspector) Name() string  { return i.name }
func (i *Inspector) Rank() string  { return i.rank }
func (i *Inspector) Post() string  { return i.post }

// Fetch takes a pending declaration into review, replacing any entry under its id.
func (i *Inspector) Fetch(p declaration.Pending) declaration.Inspecting {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.fetchLocked(p)
}

func (i *Inspector) fetchLocked(p declaration.Pending) declaration.Inspecting {
	d := p.Fetch(i.id)
	i.declarations[d.ID()] = d
	slog.Info("declaration state changed to inspecting", "declarationID", d.ID(), "inspectorID", i.id)
	return d
}

// GetInspecting returns a copy of a declaration under review.
func (i *Inspector) GetInspecting(id uuid.UUID) (declaration.Inspecting, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	d, ok := i.declarations[id]
	return d, ok
}

// UpdateInspecting stores a corrected declaration, stamping this inspector on it, and
// returns the entry it replaced.
func (i *Inspector) UpdateInspecting(d declaration.Inspecting) (declaration.Inspecting, bool) {
	d = d.Reassign(i.id)
	i.mu.Lock()
	defer i.mu.Unlock()
	prev, ok := i.declarations[d.ID()]
	i.declarations[d.ID()] = d
	slog.Info("declaration values changed", "declarationID", d.ID(), "inspectorID", i.id)
	return prev, ok
}

// RemoveInspecting drops a declaration from review and returns it.
func (i *Inspector) RemoveInspecting(id uuid.UUID) (declaration.Inspecting, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	d, ok := i.declarations[id]
	if ok {
		delete(i.declarations, id)
	}
	return d, ok
}

// Declarations lists the in-review pool ordered by id.
func (i *Inspector) Declarations() []declaration.Inspecting {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]declaration.Inspecting, 0, len(i.declarations))
	for _, d := range i.declarations {
		out = append(out, d)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID().String() < out[b].ID().String() })
	return out
}

// InReview returns the size of the in-review pool.
func (i *Inspector) InReview() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.declarations)
}

// Assess computes the tax for the corrections made to a declaration under review.
func (i *Inspector) Assess(original declaration.Declaration, corrected declaration.Inspecting, fee FeeSchedule) TaxAssessment {
	tax := Assess(i.id, original, corrected, fee)
	slog.Info("tax calculated",
		"declarationID", tax.DeclarationID,
		"inspectorID", i.id,
		"incorrectFields", tax.IncorrectFields,
		"price", tax.Price)
	return tax
}

// Correct applies an inspector's corrections to a declaration under review. The entry
// is read, edited and stored under one guard hold, so a declaration that has left the
// pool is never written back.
func (i *Inspector) Correct(id uuid.UUID, patch declaration.Patch) (declaration.Inspecting, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	d, ok := i.declarations[id]
	if !ok {
		return declaration.Inspecting{}, &declaration.NotFoundError{ID: id}
	}
	d.Edit().Apply(patch)
	d = d.Reassign(i.id)
	i.declarations[id] = d
	slog.Info("declaration values changed", "declarationID", id, "inspectorID", i.id)
	return d, nil
}

// Requeue sends a declaration under review back to a pending pool chosen by the router
// and returns the requeued declaration with the office now holding it. The entry leaves
// this pool and enters the office pool under both guards.
func (i *Inspector) Requeue(id uuid.UUID, router Router) (declaration.Pending, *Office, error) {
	d, ok := i.GetInspecting(id)
	if !ok {
		slog.Error("declaration not found", "declarationID", id, "inspectorID", i.id)
		return declaration.Pending{}, nil, &declaration.NotFoundError{ID: id}
	}

	office, err := router.Route(d.Requeue())
	if err != nil {
		return declaration.Pending{}, nil, fmt.Errorf("failed to requeue declaration %s: %w", id, err)
	}

	office.mu.Lock()
	defer office.mu.Unlock()
	i.mu.Lock()
	defer i.mu.Unlock()

	// Re-read: the entry may have been finalized while the office was chosen.
	d, ok = i.declarations[id]
	if !ok {
		return declaration.Pending{}, nil, &declaration.NotFoundError{ID: id}
	}
	delete(i.declarations, id)
	p := d.Requeue()
	office.pending[id] = p
	slog.Info("reprocessing declaration", "declarationID", id, "inspectorID", i.id, "officeID", office.id)
	return p, office, nil
}

// Finalize ends the review of a declaration with the verdict chosen by the policy and
// returns the Approved or Rejected document. The entry stays in review when the policy
// fails.
func (i *Inspector) Finalize(id uuid.UUID, policy VerdictPolicy, assessment *TaxAssessment) (declaration.Document, error) {
	if policy == nil {
		return declaration.Document{}, fmt.Errorf("a verdict policy is required: %w", sentinel.ErrInvalidField)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	d, ok := i.declarations[id]
	if !ok {
		return declaration.Document{}, &declaration.NotFoundError{ID: id}
	}
	verdict, err := policy.Decide(d, assessment)
	if err != nil {
		return declaration.Document{}, fmt.Errorf("failed to decide verdict for declaration %s: %w", id, err)
	}

	var doc declaration.Document
	switch verdict {
	case VerdictApprove:
		doc = d.Approve().Document()
	case VerdictReject:
		doc = d.Reject().Document()
	default:
		return declaration.Document{}, &InvalidFieldError{Field: "verdict", Value: string(verdict), Reason: "unknown verdict"}
	}
	delete(i.declarations, id)
	slog.Info("declaration finalized", "declarationID", id, "inspectorID", i.id, "state", doc.State())
	return doc, nil
}
