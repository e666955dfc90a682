package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/customs"
	"github.com/OpenNSW/customs/internal/declaration"
)

// DeclarationRecord is one declaration in any lifecycle state. OfficeID names the office
// whose pending pool last held it.
type DeclarationRecord struct {
	ID                 uuid.UUID  `gorm:"type:uuid;column:id;primaryKey"`
	SignedBy           uuid.UUID  `gorm:"type:uuid;column:signed_by;index;not null"`
	InspectedBy        *uuid.UUID `gorm:"type:uuid;column:inspected_by;index"`
	OfficeID           *uuid.UUID `gorm:"type:uuid;column:office_id;index"`
	State              string     `gorm:"type:varchar(20);column:state;index;not null"`
	ProductName        string     `gorm:"type:varchar(255);column:product_name"`
	ProductCode        string     `gorm:"type:varchar(64);column:product_code"`
	ProductPrice       float64    `gorm:"column:product_price"`
	ProductQuantity    int64      `gorm:"column:product_quantity"`
	ProductWeight      float64    `gorm:"column:product_weight"`
	ProductDescription string     `gorm:"type:text;column:product_description"`
	TransportType      string     `gorm:"type:varchar(64);column:transport_type"`
	TransportName      string     `gorm:"type:varchar(255);column:transport_name"`
	SenderName         string     `gorm:"type:varchar(255);column:sender_name"`
	ReceiverName       string     `gorm:"type:varchar(255);column:receiver_name"`
	Destination        string     `gorm:"type:varchar(64);column:destination"`
	Departure          string     `gorm:"type:varchar(64);column:departure"`
	CreatedAt          time.Time  `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (DeclarationRecord) TableName() string {
	return "declarations"
}

// OfficeRecord stores an office's profile and params as JSON documents.
type OfficeRecord struct {
	ID        uuid.UUID       `gorm:"type:uuid;column:id;primaryKey"`
	Profile   customs.Profile `gorm:"type:jsonb;column:profile;serializer:json;not null"`
	Params    customs.Params  `gorm:"type:jsonb;column:params;serializer:json;not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (OfficeRecord) TableName() string {
	return "offices"
}

type InspectorRecord struct {
	ID       uuid.UUID `gorm:"type:uuid;column:id;primaryKey"`
	OfficeID uuid.UUID `gorm:"type:uuid;column:office_id;index;not null"`
	Name     string    `gorm:"type:varchar(255);column:name;not null"`
	Rank     string    `gorm:"type:varchar(100);column:rank"`
	Post     string    `gorm:"type:varchar(100);column:post"`
}

func (InspectorRecord) TableName() string {
	return "inspectors"
}

type OperatorRecord struct {
	ID       uuid.UUID `gorm:"type:uuid;column:id;primaryKey"`
	OfficeID uuid.UUID `gorm:"type:uuid;column:office_id;index;not null"`
	Name     string    `gorm:"type:varchar(255);column:name;not null"`
	Post     string    `gorm:"type:varchar(100);column:post"`
}

func (OperatorRecord) TableName() string {
	return "operators"
}

type DeclarantRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;column:id;primaryKey"`
	Name      string    `gorm:"type:varchar(255);column:name;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (DeclarantRecord) TableName() string {
	return "declarants"
}

type TaxAssessmentRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;column:id;primaryKey"`
	DeclarationID   uuid.UUID `gorm:"type:uuid;column:declaration_id;index;not null"`
	InspectorID     uuid.UUID `gorm:"type:uuid;column:inspector_id;not null"`
	PayerID         uuid.UUID `gorm:"type:uuid;column:payer_id;index;not null"`
	IncorrectFields int       `gorm:"column:incorrect_fields;not null"`
	Price           float64   `gorm:"column:price;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
}

func (TaxAssessmentRecord) TableName() string {
	return "tax_assessments"
}

func declarationRecord(doc declaration.Document, officeID *uuid.UUID) DeclarationRecord {
	s := doc.Snapshot()
	return DeclarationRecord{
		ID:                 s.ID,
		SignedBy:           s.SignedBy,
		InspectedBy:        s.InspectedBy,
		OfficeID:           officeID,
		State:              string(s.State),
		ProductName:        s.ProductName,
		ProductCode:        s.ProductCode,
		ProductPrice:       s.ProductPrice,
		ProductQuantity:    s.ProductQuantity,
		ProductWeight:      s.ProductWeight,
		ProductDescription: s.ProductDescription,
		TransportType:      s.TransportType,
		TransportName:      s.TransportName,
		SenderName:         s.SenderName,
		ReceiverName:       s.ReceiverName,
		Destination:        s.Destination,
		Departure:          s.Departure,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// Document rebuilds the typed declaration named by the state label.
func (r DeclarationRecord) Document() (declaration.Document, error) {
	return declaration.Restore(declaration.Snapshot{
		ID:                 r.ID,
		SignedBy:           r.SignedBy,
		InspectedBy:        r.InspectedBy,
		ProductName:        r.ProductName,
		ProductCode:        r.ProductCode,
		ProductPrice:       r.ProductPrice,
		ProductQuantity:    r.ProductQuantity,
		ProductWeight:      r.ProductWeight,
		ProductDescription: r.ProductDescription,
		TransportType:      r.TransportType,
		TransportName:      r.TransportName,
		SenderName:         r.SenderName,
		ReceiverName:       r.ReceiverName,
		Destination:        r.Destination,
		Departure:          r.Departure,
		State:              declaration.State(r.State),
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	})
}

func assessmentRecord(a customs.TaxAssessment) TaxAssessmentRecord {
	return TaxAssessmentRecord{
		ID:              a.ID,
		DeclarationID:   a.DeclarationID,
		InspectorID:     a.InspectorID,
		PayerID:         a.PayerID,
		IncorrectFields: a.IncorrectFields,
		Price:           a.Price,
		CreatedAt:       a.CreatedAt,
	}
}

func (r TaxAssessmentRecord) Assessment() customs.TaxAssessment {
	return customs.TaxAssessment{
		ID:              r.ID,
		DeclarationID:   r.DeclarationID,
		InspectorID:     r.InspectorID,
		PayerID:         r.PayerID,
		IncorrectFields: r.IncorrectFields,
		Price:           r.Price,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

// SubmissionRecord keeps the declaration exactly as its declarant submitted it.
// Assessments compare corrections against this copy.
type SubmissionRecord struct {
	DeclarationID uuid.UUID            `gorm:"type:uuid;column:declaration_id;primaryKey"`
	Snapshot      declaration.Snapshot `gorm:"type:jsonb;column:snapshot;serializer:json;not null"`
	SubmittedAt   time.Time            `gorm:"column:submitted_at;not null"`
}

func (SubmissionRecord) TableName() string {
	return "submissions"
}
