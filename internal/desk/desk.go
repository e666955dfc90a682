// Package desk runs the customs workflow end to end: it drives the processor, offices
// and inspectors and records every step in the store, the archive, the event channel
// and the metrics.
package desk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/archive"
	"github.com/OpenNSW/customs/internal/customs"
	"github.com/OpenNSW/customs/internal/declarant"
	"github.com/OpenNSW/customs/internal/declaration"
	"github.com/OpenNSW/customs/internal/events"
	"github.com/OpenNSW/customs/internal/metrics"
	"github.com/OpenNSW/customs/internal/processor"
	"github.com/OpenNSW/customs/internal/sentinel"
)

// Repository is the persistence the desk needs. *store.Repository implements it.
type Repository interface {
	SaveDeclaration(ctx context.Context, doc declaration.Declaration) error
	GetDeclaration(ctx context.Context, id uuid.UUID) (declaration.Document, error)
	SaveSubmission(ctx context.Context, p declaration.Pending) error
	GetSubmission(ctx context.Context, id uuid.UUID) (declaration.Pending, error)
	SaveDeclarant(ctx context.Context, d *declarant.Declarant) error
	LoadDeclarant(ctx context.Context, id uuid.UUID) (*declarant.Declarant, error)
	SaveOffice(ctx context.Context, o *customs.Office) error
	DeleteOffice(ctx context.Context, id uuid.UUID) error
	SaveAssessment(ctx context.Context, a customs.TaxAssessment) error
	ListAssessments(ctx context.Context, declarationID uuid.UUID) ([]customs.TaxAssessment, error)
}

// Archive stores dossiers of finalized declarations. *archive.Archiver implements it.
type Archive interface {
	Store(ctx context.Context, d archive.Dossier) (*archive.Receipt, error)
	Load(ctx context.Context, declarationID uuid.UUID) (*archive.Dossier, error)
	URL(ctx context.Context, declarationID uuid.UUID, expires time.Duration) (string, error)
}

// ErrNoArchive is returned by dossier lookups when no archive is configured.
var ErrNoArchive = fmt.Errorf("dossier archive is not configured: %w", sentinel.ErrNotFound)

// Finalized is the outcome of a review. Receipt is nil when archiving failed.
type Finalized struct {
	Declaration declaration.Document `json:"declaration"`
	Receipt     *archive.Receipt     `json:"receipt,omitempty"`
}

// Service coordinates the customs workflow.
type Service struct {
	processor *processor.Processor
	repo      Repository
	archive   Archive
	publisher events.Publisher
	metrics   *metrics.Metrics

	mu         sync.Mutex
	declarants map[uuid.UUID]*declarant.Declarant
}

// New creates a desk. arc, publisher and m may be nil.
func New(p *processor.Processor, repo Repository, arc Archive, publisher events.Publisher, m *metrics.Metrics) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		processor:  p,
		repo:       repo,
		archive:    arc,
		publisher:  publisher,
		metrics:    m,
		declarants: make(map[uuid.UUID]*declarant.Declarant),
	}
}

func (s *Service) Processor() *processor.Processor { return s.processor }

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "failed to publish lifecycle event", "type", e.Type, "declarationID", e.DeclarationID, "error", err)
	}
}

// CreateOffice validates and connects a new office. Offices without work hours get the
// default 09:00 to 20:00.
func (s *Service) CreateOffice(ctx context.Context, profile customs.Profile, params customs.Params) (*customs.Office, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if profile.WorkHours == nil {
		hours := customs.DefaultWorkHours
		profile.WorkHours = &hours
	}
	o := customs.LoadOffice(uuid.New(), profile, params)
	if err := s.repo.SaveOffice(ctx, o); err != nil {
		return nil, err
	}
	s.processor.Connect(o)
	slog.InfoContext(ctx, "customs office created", "officeID", o.ID(), "name", profile.Name, "fee", params.Fee.String())
	return o, nil
}

// UpdateOffice replaces an office's profile and params.
func (s *Service) UpdateOffice(ctx context.Context, officeID uuid.UUID, profile customs.Profile, params customs.Params) (*customs.Office, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	o, err := s.processor.Office(officeID)
	if err != nil {
		return nil, err
	}
	o.SetProfile(profile)
	o.SetParams(params)
	if err := s.repo.SaveOffice(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// CloseOffice disconnects an empty office and deletes it from the store.
func (s *Service) CloseOffice(ctx context.Context, id uuid.UUID) error {
	o, err := s.processor.Disconnect(id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteOffice(ctx, id); err != nil {
		s.processor.Connect(o)
		return err
	}
	slog.InfoContext(ctx, "customs office closed", "officeID", id)
	return nil
}

func (s *Service) Office(id uuid.UUID) (*customs.Office, error) {
	return s.processor.Office(id)
}

func (s *Service) Offices() []*customs.Office {
	return s.processor.Offices()
}

// AddInspector appoints a new inspector to an office.
func (s *Service) AddInspector(ctx context.Context, officeID uuid.UUID, name, post, rank string) (*customs.Inspector, error) {
	if name == "" {
		return nil, &customs.InvalidFieldError{Field: "name", Reason: "must not be empty"}
	}
	o, err := s.processor.Office(officeID)
	if err != nil {
		return nil, err
	}
	i := customs.NewInspector(name, post, rank)
	if err := o.AddInspector(i); err != nil {
		return nil, err
	}
	if err := s.repo.SaveOffice(ctx, o); err != nil {
		return nil, err
	}
	return i, nil
}

// AddOperator appoints a new operator to an office.
func (s *Service) AddOperator(ctx context.Context, officeID uuid.UUID, name, post string) (customs.Operator, error) {
	if name == "" {
		return customs.Operator{}, &customs.InvalidFieldError{Field: "name", Reason: "must not be empty"}
	}
	o, err := s.processor.Office(officeID)
	if err != nil {
		return customs.Operator{}, err
	}
	op := customs.NewOperator(name, post)
	if err := o.AddOperator(op); err != nil {
		return customs.Operator{}, err
	}
	if err := s.repo.SaveOffice(ctx, o); err != nil {
		return customs.Operator{}, err
	}
	return op, nil
}

// RegisterDeclarant creates a declarant with an empty archive.
func (s *Service) RegisterDeclarant(ctx context.Context, name string) (*declarant.Declarant, error) {
	if name == "" {
		return nil, &customs.InvalidFieldError{Field: "name", Reason: "must not be empty"}
	}
	d := declarant.New(name)
	if err := s.repo.SaveDeclarant(ctx, d); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.declarants[d.ID()] = d
	s.mu.Unlock()
	return d, nil
}

// Declarant returns a declarant, loading their archive from the store on first use.
func (s *Service) Declarant(ctx context.Context, id uuid.UUID) (*declarant.Declarant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.declarants[id]; ok {
		return d, nil
	}
	d, err := s.repo.LoadDeclarant(ctx, id)
	if err != nil {
		return nil, err
	}
	s.declarants[id] = d
	return d, nil
}

// CreateDraft opens a draft for a declarant and applies the initial values.
func (s *Service) CreateDraft(ctx context.Context, declarantID uuid.UUID, patch declaration.Patch) (declaration.Draft, error) {
	d, err := s.Declarant(ctx, declarantID)
	if err != nil {
		return declaration.Draft{}, err
	}
	draft := d.NewDraft()
	draft.Edit().Apply(patch)
	d.UpdateDeclaration(draft.Document())
	if err := s.repo.SaveDeclaration(ctx, draft); err != nil {
		return declaration.Draft{}, err
	}
	return draft, nil
}

func (s *Service) owner(ctx context.Context, id uuid.UUID) (*declarant.Declarant, error) {
	doc, err := s.repo.GetDeclaration(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Declarant(ctx, doc.SignedBy())
}

// EditDraft applies changes to a draft. Declarations past the draft state cannot be
// edited by their declarant.
func (s *Service) EditDraft(ctx context.Context, id uuid.UUID, patch declaration.Patch) (declaration.Draft, error) {
	d, err := s.owner(ctx, id)
	if err != nil {
		return declaration.Draft{}, err
	}
	doc, ok := d.GetDeclaration(id)
	if !ok {
		return declaration.Draft{}, &declaration.NotFoundError{ID: id}
	}
	draft, err := doc.Draft()
	if err != nil {
		return declaration.Draft{}, err
	}
	draft.Edit().Apply(patch)
	d.UpdateDeclaration(draft.Document())
	if err := s.repo.SaveDeclaration(ctx, draft); err != nil {
		return declaration.Draft{}, err
	}
	return draft, nil
}

// Submit validates a draft and queues it at the office chosen by the processor. The
// submitted form is recorded as soon as dispatch succeeds. It is the baseline of every
// later assessment.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (declaration.Pending, *customs.Office, error) {
	d, err := s.owner(ctx, id)
	if err != nil {
		return declaration.Pending{}, nil, err
	}
	p, o, err := d.SendDocs(s.processor, id)
	if err != nil {
		s.metrics.IncrementDispatch("failed")
		return declaration.Pending{}, nil, err
	}
	s.metrics.IncrementDispatch("queued")

	if err := s.repo.SaveSubmission(ctx, p); err != nil {
		return declaration.Pending{}, nil, err
	}
	if err := s.repo.SaveOffice(ctx, o); err != nil {
		return declaration.Pending{}, nil, err
	}
	slog.InfoContext(ctx, "declaration submitted", "declarationID", id, "officeID", o.ID())
	s.publish(ctx, events.New(events.TypeSubmitted, p).WithOffice(o.ID()))
	return p, o, nil
}

// GetDeclaration looks a declaration up in the office pools first and falls back to
// the store for drafts, declarations under review and finalized ones.
func (s *Service) GetDeclaration(ctx context.Context, id uuid.UUID) (declaration.Document, error) {
	if doc, ok := s.processor.Locate(id); ok {
		return doc, nil
	}
	return s.repo.GetDeclaration(ctx, id)
}

// Screen checks a declaration against an office's ban lists.
func (s *Service) Screen(ctx context.Context, officeID, id uuid.UUID, flow customs.TradeFlow) error {
	o, err := s.processor.Office(officeID)
	if err != nil {
		return err
	}
	doc, err := s.GetDeclaration(ctx, id)
	if err != nil {
		return err
	}
	return o.Params().Screen(flow, doc)
}

// Fetch moves a pending declaration of the inspector's office into their review pool.
func (s *Service) Fetch(ctx context.Context, inspectorID, id uuid.UUID) (declaration.Inspecting, error) {
	o, _, err := s.processor.Inspector(inspectorID)
	if err != nil {
		return declaration.Inspecting{}, err
	}
	d, err := o.AssignToInspector(id, inspectorID)
	if err != nil {
		return declaration.Inspecting{}, err
	}
	s.metrics.IncrementFetch()
	if err := s.repo.SaveOffice(ctx, o); err != nil {
		return declaration.Inspecting{}, err
	}
	s.publish(ctx, events.New(events.TypeFetched, d).WithOffice(o.ID()))
	return d, nil
}

// Correct applies an inspector's corrections to a declaration under review.
func (s *Service) Correct(ctx context.Context, inspectorID, id uuid.UUID, patch declaration.Patch) (declaration.Inspecting, error) {
	o, i, err := s.processor.Inspector(inspectorID)
	if err != nil {
		return declaration.Inspecting{}, err
	}
	d, err := i.Correct(id, patch)
	if err != nil {
		return declaration.Inspecting{}, err
	}
	if err := s.repo.SaveDeclaration(ctx, d); err != nil {
		return declaration.Inspecting{}, err
	}
	s.publish(ctx, events.New(events.TypeCorrected, d).WithOffice(o.ID()))
	return d, nil
}

// Assess prices the corrections made to a declaration under review with the fee
// schedule of the inspector's office.
func (s *Service) Assess(ctx context.Context, inspectorID, id uuid.UUID) (customs.TaxAssessment, error) {
	o, i, err := s.processor.Inspector(inspectorID)
	if err != nil {
		return customs.TaxAssessment{}, err
	}
	corrected, ok := i.GetInspecting(id)
	if !ok {
		return customs.TaxAssessment{}, &declaration.NotFoundError{ID: id}
	}
	original, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		return customs.TaxAssessment{}, err
	}
	a := i.Assess(original, corrected, o.Params().Fee)
	if err := s.repo.SaveAssessment(ctx, a); err != nil {
		return customs.TaxAssessment{}, err
	}
	s.metrics.ObserveAssessment(a.IncorrectFields, a.Price)
	s.publish(ctx, events.New(events.TypeAssessed, corrected).WithOffice(o.ID()))
	return a, nil
}

// Requeue returns a declaration under review to a pending pool chosen by the processor.
func (s *Service) Requeue(ctx context.Context, inspectorID, id uuid.UUID) (declaration.Pending, *customs.Office, error) {
	from, i, err := s.processor.Inspector(inspectorID)
	if err != nil {
		return declaration.Pending{}, nil, err
	}
	p, to, err := i.Requeue(id, s.processor)
	if err != nil {
		return declaration.Pending{}, nil, err
	}
	s.metrics.IncrementRequeue()

	if err := s.repo.SaveOffice(ctx, to); err != nil {
		return declaration.Pending{}, nil, err
	}
	if from.ID() != to.ID() {
		if err := s.repo.SaveOffice(ctx, from); err != nil {
			return declaration.Pending{}, nil, err
		}
	}
	s.publish(ctx, events.New(events.TypeRequeued, p).WithOffice(to.ID()))
	return p, to, nil
}

// Finalize ends a review with the inspector's verdict, records it and archives the
// dossier. The latest assessment, if any, is handed to the verdict policy.
func (s *Service) Finalize(ctx context.Context, inspectorID, id uuid.UUID, verdict customs.Verdict) (*Finalized, error) {
	o, i, err := s.processor.Inspector(inspectorID)
	if err != nil {
		return nil, err
	}
	if _, ok := i.GetInspecting(id); !ok {
		return nil, &declaration.NotFoundError{ID: id}
	}
	assessments, err := s.repo.ListAssessments(ctx, id)
	if err != nil {
		return nil, err
	}
	var latest *customs.TaxAssessment
	if n := len(assessments); n > 0 {
		latest = &assessments[n-1]
	}

	doc, err := i.Finalize(id, customs.StaticVerdict(verdict), latest)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementVerdict(doc.State().String())
	if err := s.repo.SaveDeclaration(ctx, doc); err != nil {
		return nil, err
	}
	if d, err := s.Declarant(ctx, doc.SignedBy()); err == nil {
		d.UpdateDeclaration(doc)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}
	s.publish(ctx, events.New(events.TypeFinalized, doc).WithOffice(o.ID()))

	out := &Finalized{Declaration: doc}
	if s.archive == nil {
		return out, nil
	}
	receipt, err := s.archive.Store(ctx, archive.Dossier{
		Declaration: doc,
		OfficeID:    o.ID(),
		Assessments: assessments,
		ArchivedAt:  time.Now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to archive dossier", "declarationID", id, "error", err)
		return out, nil
	}
	out.Receipt = receipt
	return out, nil
}

// Assessments lists the tax assessments of a declaration, oldest first.
func (s *Service) Assessments(ctx context.Context, id uuid.UUID) ([]customs.TaxAssessment, error) {
	assessments, err := s.repo.ListAssessments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments of %s: %w", id, err)
	}
	return assessments, nil
}

// Dossier reads back the archived dossier of a finalized declaration.
func (s *Service) Dossier(ctx context.Context, id uuid.UUID) (*archive.Dossier, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}
	return s.archive.Load(ctx, id)
}

// DossierURL returns a link to the archived dossier, valid for at least expires.
func (s *Service) DossierURL(ctx context.Context, id uuid.UUID, expires time.Duration) (string, error) {
	if s.archive == nil {
		return "", ErrNoArchive
	}
	if _, err := s.archive.Load(ctx, id); err != nil {
		return "", err
	}
	return s.archive.URL(ctx, id, expires)
}
