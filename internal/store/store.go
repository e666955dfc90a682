// Package store persists declarations, offices and tax assessments with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OpenNSW/customs/internal/customs"
	"github.com/OpenNSW/customs/internal/declarant"
	"github.com/OpenNSW/customs/internal/declaration"
	"github.com/OpenNSW/customs/internal/processor"
	"github.com/OpenNSW/customs/internal/sentinel"
)

// declarationContent lists the columns overwritten when a declaration is saved. Pool
// membership (office_id) is owned by SaveOffice.
var declarationContent = []string{
	"signed_by", "inspected_by", "state",
	"product_name", "product_code", "product_price", "product_quantity", "product_weight",
	"product_description", "transport_type", "transport_name", "sender_name",
	"receiver_name", "destination", "departure", "created_at", "updated_at",
}

// Repository handles database operations for the customs domain.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates every table the repository uses.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&DeclarantRecord{},
		&DeclarationRecord{},
		&OfficeRecord{},
		&InspectorRecord{},
		&OperatorRecord{},
		&TaxAssessmentRecord{},
		&SubmissionRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SaveDeclaration inserts or updates a declaration's contents and state.
func (r *Repository) SaveDeclaration(ctx context.Context, doc declaration.Declaration) error {
	return saveDeclaration(r.db.WithContext(ctx), doc.Document(), nil)
}

func saveDeclaration(tx *gorm.DB, doc declaration.Document, officeID *uuid.UUID) error {
	rec := declarationRecord(doc, officeID)
	columns := declarationContent
	if officeID != nil {
		columns = append(append([]string(nil), declarationContent...), "office_id")
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save declaration %s: %w", rec.ID, err)
	}
	return nil
}

// GetDeclaration loads a declaration in whatever state it was last saved.
func (r *Repository) GetDeclaration(ctx context.Context, id uuid.UUID) (declaration.Document, error) {
	var rec DeclarationRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return declaration.Document{}, &declaration.NotFoundError{ID: id}
		}
		return declaration.Document{}, fmt.Errorf("failed to get declaration %s: %w", id, err)
	}
	return rec.Document()
}

// ListDeclarations returns the declarations signed by a declarant, newest first.
func (r *Repository) ListDeclarations(ctx context.Context, signedBy uuid.UUID) ([]declaration.Document, error) {
	var recs []DeclarationRecord
	if err := r.db.WithContext(ctx).
		Where("signed_by = ?", signedBy).
		Order("created_at DESC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list declarations: %w", err)
	}
	docs := make([]declaration.Document, 0, len(recs))
	for _, rec := range recs {
		doc, err := rec.Document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SaveDeclarant stores a declarant and every declaration in their archive.
func (r *Repository) SaveDeclarant(ctx context.Context, d *declarant.Declarant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := DeclarantRecord{ID: d.ID(), Name: d.Name()}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to save declarant %s: %w", d.ID(), err)
		}
		for _, doc := range d.Declarations() {
			if err := saveDeclaration(tx, doc, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadDeclarant rebuilds a declarant and their archive.
func (r *Repository) LoadDeclarant(ctx context.Context, id uuid.UUID) (*declarant.Declarant, error) {
	var rec DeclarantRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("declarant %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get declarant %s: %w", id, err)
	}
	docs, err := r.ListDeclarations(ctx, id)
	if err != nil {
		return nil, err
	}
	d := declarant.Load(rec.ID, rec.Name)
	for _, doc := range docs {
		d.UpdateDeclaration(doc)
	}
	return d, nil
}

// SaveOffice stores an office's profile and params, replaces its rosters and records
// every declaration currently held in its pools.
func (r *Repository) SaveOffice(ctx context.Context, o *customs.Office) error {
	officeID := o.ID()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := OfficeRecord{ID: officeID, Profile: o.Profile(), Params: o.Params()}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"profile", "params", "updated_at"}),
		}).Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to save office %s: %w", officeID, err)
		}

		inspectors := o.Inspectors()
		if err := tx.Where("office_id = ?", officeID).Delete(&InspectorRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear inspectors: %w", err)
		}
		if len(inspectors) > 0 {
			recs := make([]InspectorRecord, 0, len(inspectors))
			for _, i := range inspectors {
				recs = append(recs, InspectorRecord{ID: i.ID(), OfficeID: officeID, Name: i.Name(), Rank: i.Rank(), Post: i.Post()})
			}
			if err := tx.Create(&recs).Error; err != nil {
				return fmt.Errorf("failed to save inspectors: %w", err)
			}
		}

		operators := o.Operators()
		if err := tx.Where("office_id = ?", officeID).Delete(&OperatorRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear operators: %w", err)
		}
		if len(operators) > 0 {
			recs := make([]OperatorRecord, 0, len(operators))
			for _, op := range operators {
				recs = append(recs, OperatorRecord{ID: op.ID, OfficeID: officeID, Name: op.Name, Post: op.Post})
			}
			if err := tx.Create(&recs).Error; err != nil {
				return fmt.Errorf("failed to save operators: %w", err)
			}
		}

		for _, p := range o.PendingDeclarations() {
			if err := saveDeclaration(tx, p.Document(), &officeID); err != nil {
				return err
			}
		}
		for _, i := range inspectors {
			for _, d := range i.Declarations() {
				if err := saveDeclaration(tx, d.Document(), &officeID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// DeleteOffice removes an office with its rosters. Declarations keep their rows with the
// office reference cleared.
func (r *Repository) DeleteOffice(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("office_id = ?", id).Delete(&InspectorRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete inspectors: %w", err)
		}
		if err := tx.Where("office_id = ?", id).Delete(&OperatorRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete operators: %w", err)
		}
		if err := tx.Model(&DeclarationRecord{}).Where("office_id = ?", id).Update("office_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach declarations: %w", err)
		}
		res := tx.Delete(&OfficeRecord{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete office %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("office %s: %w", id, sentinel.ErrNotFound)
		}
		return nil
	})
}

// SaveSubmission keeps the submitted form of a declaration. A re-submission replaces
// the earlier copy.
func (r *Repository) SaveSubmission(ctx context.Context, p declaration.Pending) error {
	rec := SubmissionRecord{DeclarationID: p.ID(), Snapshot: p.Snapshot(), SubmittedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "declaration_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"snapshot", "submitted_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save submission %s: %w", p.ID(), err)
	}
	return nil
}

// GetSubmission returns a declaration as it was submitted.
func (r *Repository) GetSubmission(ctx context.Context, id uuid.UUID) (declaration.Pending, error) {
	var rec SubmissionRecord
	if err := r.db.WithContext(ctx).First(&rec, "declaration_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return declaration.Pending{}, &declaration.NotFoundError{ID: id}
		}
		return declaration.Pending{}, fmt.Errorf("failed to get submission %s: %w", id, err)
	}
	doc, err := declaration.Restore(rec.Snapshot)
	if err != nil {
		return declaration.Pending{}, err
	}
	return doc.Pending()
}

// SaveAssessment records a tax assessment.
func (r *Repository) SaveAssessment(ctx context.Context, a customs.TaxAssessment) error {
	rec := assessmentRecord(a)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to save tax assessment: %w", err)
	}
	return nil
}

// ListAssessments returns the assessments of a declaration, oldest first.
func (r *Repository) ListAssessments(ctx context.Context, declarationID uuid.UUID) ([]customs.TaxAssessment, error) {
	var recs []TaxAssessmentRecord
	if err := r.db.WithContext(ctx).
		Where("declaration_id = ?", declarationID).
		Order("created_at ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list tax assessments: %w", err)
	}
	out := make([]customs.TaxAssessment, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Assessment())
	}
	return out, nil
}

// LoadProcessor rebuilds every stored office with its rosters and pools and connects
// them to a new processor. Pending declarations return to the office that last held
// them, declarations under review to the inspector stamped on them.
func (r *Repository) LoadProcessor(ctx context.Context, policy processor.SelectionPolicy) (*processor.Processor, error) {
	db := r.db.WithContext(ctx)

	var officeRecs []OfficeRecord
	if err := db.Find(&officeRecs).Error; err != nil {
		return nil, fmt.Errorf("failed to load offices: %w", err)
	}
	var inspectorRecs []InspectorRecord
	if err := db.Find(&inspectorRecs).Error; err != nil {
		return nil, fmt.Errorf("failed to load inspectors: %w", err)
	}
	var operatorRecs []OperatorRecord
	if err := db.Find(&operatorRecs).Error; err != nil {
		return nil, fmt.Errorf("failed to load operators: %w", err)
	}
	var pooled []DeclarationRecord
	if err := db.Where("state IN ?", []string{string(declaration.StatePending), string(declaration.StateInspecting)}).
		Find(&pooled).Error; err != nil {
		return nil, fmt.Errorf("failed to load pooled declarations: %w", err)
	}

	offices := make(map[uuid.UUID]*customs.Office, len(officeRecs))
	for _, rec := range officeRecs {
		offices[rec.ID] = customs.LoadOffice(rec.ID, rec.Profile, rec.Params)
	}
	inspectors := make(map[uuid.UUID]*customs.Inspector, len(inspectorRecs))
	for _, rec := range inspectorRecs {
		o, ok := offices[rec.OfficeID]
		if !ok {
			slog.WarnContext(ctx, "skipping inspector of unknown office", "inspectorID", rec.ID, "officeID", rec.OfficeID)
			continue
		}
		i := customs.LoadInspector(rec.ID, rec.Name, rec.Post, rec.Rank)
		if err := o.AddInspector(i); err != nil {
			return nil, err
		}
		inspectors[rec.ID] = i
	}
	for _, rec := range operatorRecs {
		o, ok := offices[rec.OfficeID]
		if !ok {
			slog.WarnContext(ctx, "skipping operator of unknown office", "operatorID", rec.ID, "officeID", rec.OfficeID)
			continue
		}
		if err := o.AddOperator(customs.Operator{ID: rec.ID, Name: rec.Name, Post: rec.Post}); err != nil {
			return nil, err
		}
	}

	for _, rec := range pooled {
		doc, err := rec.Document()
		if err != nil {
			return nil, err
		}
		switch doc.State() {
		case declaration.StatePending:
			o, ok := lookup(offices, rec.OfficeID)
			if !ok {
				slog.WarnContext(ctx, "pending declaration has no office", "declarationID", rec.ID)
				continue
			}
			p, _ := doc.Pending()
			o.UpsertPending(p)
		case declaration.StateInspecting:
			i, ok := lookup(inspectors, rec.InspectedBy)
			if !ok {
				slog.WarnContext(ctx, "declaration under review has no inspector", "declarationID", rec.ID)
				continue
			}
			d, _ := doc.Inspecting()
			i.UpdateInspecting(d)
		}
	}

	p := processor.New(policy)
	for _, o := range offices {
		p.Connect(o)
	}
	slog.InfoContext(ctx, "processor restored", "offices", len(offices), "inspectors", len(inspectors), "declarations", len(pooled))
	return p, nil
}

func lookup[T any](m map[uuid.UUID]T, id *uuid.UUID) (T, bool) {
	var zero T
	if id == nil {
		return zero, false
	}
	v, ok := m[*id]
	return v, ok
}
