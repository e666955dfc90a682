// Package declaration models the customs declaration and its lifecycle.
//
// Every lifecycle state is its own type (Draft, Pending, Inspecting, Approved,
// Rejected). A value can only move along the legal edges of the graph
//
//	Draft -> Pending -> Inspecting -> Pending | Approved | Rejected
//
// through one conversion method per edge. Conversions copy the contents into a new
// value and never mutate the receiver. Document is the tagged union used wherever
// declarations of mixed state share a collection.
package declaration

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Declaration is the read-only view every lifecycle variant and Document provide.
type Declaration interface {
	ID() uuid.UUID
	State() State
	SignedBy() uuid.UUID
	InspectedBy() (uuid.UUID, bool)
	ProductName() string
	ProductCode() string
	ProductPrice() float64
	ProductQuantity() int64
	ProductWeight() float64
	ProductDescription() string
	TransportType() string
	TransportName() string
	SenderName() string
	ReceiverName() string
	Destination() string
	Departure() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Fields() Fields
	Snapshot() Snapshot
	Document() Document
}

// Draft is a declaration being filled in by its declarant. The zero value is an empty draft.
type Draft struct{ record }

// Pending is a validated declaration waiting in an office pool. It is immutable.
type Pending struct{ record }

// Inspecting is a declaration under review by one inspector, who may correct it.
type Inspecting struct{ record }

// Approved is a terminal, accepted declaration.
type Approved struct{ record }

// Rejected is a terminal, refused declaration.
type Rejected struct{ record }

// New creates an empty draft with a fresh identifier.
func New() Draft {
	now := time.Now().UTC()
	d := Draft{record{id: uuid.New(), createdAt: now, updatedAt: now}}
	slog.Debug("declaration created", "declarationID", d.id)
	return d
}

func (Draft) State() State      { return StateDraft }
func (Pending) State() State    { return StatePending }
func (Inspecting) State() State { return StateInspecting }
func (Approved) State() State   { return StateApproved }
func (Rejected) State() State   { return StateRejected }

func (d Draft) Document() Document      { return Document{record: d.record, state: StateDraft} }
func (p Pending) Document() Document    { return Document{record: p.record, state: StatePending} }
func (i Inspecting) Document() Document { return Document{record: i.record, state: StateInspecting} }
func (a Approved) Document() Document   { return Document{record: a.record, state: StateApproved} }
func (r Rejected) Document() Document   { return Document{record: r.record, state: StateRejected} }

func (d Draft) Snapshot() Snapshot      { return d.record.snapshot(StateDraft) }
func (p Pending) Snapshot() Snapshot    { return p.record.snapshot(StatePending) }
func (i Inspecting) Snapshot() Snapshot { return i.record.snapshot(StateInspecting) }
func (a Approved) Snapshot() Snapshot   { return a.record.snapshot(StateApproved) }
func (r Rejected) Snapshot() Snapshot   { return r.record.snapshot(StateRejected) }

// IsFilled reports whether every text field is non-empty and every numeric field non-zero.
func (d Draft) IsFilled() bool {
	return len(d.missingFields()) == 0
}

// Validate converts a complete draft into a pending declaration with identical contents.
func (d Draft) Validate() (Pending, error) {
	if missing := d.missingFields(); len(missing) > 0 {
		return Pending{}, &NotCompleteError{ID: d.id, Missing: missing}
	}
	return Pending{d.record}, nil
}

// SignBy sets the declarant that signs the draft.
func (d *Draft) SignBy(declarantID uuid.UUID) *Draft {
	d.signedBy = declarantID
	d.updatedAt = time.Now().UTC()
	return d
}

// Edit returns an editor over the draft's contents.
func (d *Draft) Edit() *Editor {
	return &Editor{rec: &d.record}
}

// Fetch moves a pending declaration into review by the given inspector.
func (p Pending) Fetch(inspectorID uuid.UUID) Inspecting {
	r := p.record
	r.inspectedBy = uuid.NullUUID{UUID: inspectorID, Valid: true}
	return Inspecting{r}
}

// Edit returns an editor for inspector corrections.
func (i *Inspecting) Edit() *Editor {
	return &Editor{rec: &i.record}
}

// Requeue sends a declaration under review back to the pending state.
func (i Inspecting) Requeue() Pending {
	return Pending{i.record}
}

// Approve finalizes a declaration under review as accepted.
func (i Inspecting) Approve() Approved {
	return Approved{i.record}
}

// Reject finalizes a declaration under review as refused.
func (i Inspecting) Reject() Rejected {
	return Rejected{i.record}
}

// Reassign re-stamps the reviewing inspector on a copy of the declaration.
func (i Inspecting) Reassign(inspectorID uuid.UUID) Inspecting {
	i.inspectedBy = uuid.NullUUID{UUID: inspectorID, Valid: true}
	return i
}
