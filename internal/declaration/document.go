package declaration

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document holds exactly one declaration of any lifecycle state. It is used for
// collections of mixed state, such as a declarant's archive or a store row. The zero
// value is an empty Draft.
type Document struct {
	record
	state State
}

// Snapshot is the flat, serialisable form of a declaration including its state label.
type Snapshot struct {
	ID                 uuid.UUID  `json:"id"`
	SignedBy           uuid.UUID  `json:"signedBy"`
	InspectedBy        *uuid.UUID `json:"inspectedBy,omitempty"`
	ProductName        string     `json:"productName"`
	ProductCode        string     `json:"productCode"`
	ProductPrice       float64    `json:"productPrice"`
	ProductQuantity    int64      `json:"productQuantity"`
	ProductWeight      float64    `json:"productWeight"`
	ProductDescription string     `json:"productDescription"`
	TransportType      string     `json:"transportType"`
	TransportName      string     `json:"transportName"`
	SenderName         string     `json:"senderName"`
	ReceiverName       string     `json:"receiverName"`
	Destination        string     `json:"destination"`
	Departure          string     `json:"departure"`
	State              State      `json:"state"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (r record) snapshot(state State) Snapshot {
	s := Snapshot{
		ID:                 r.id,
		SignedBy:           r.signedBy,
		ProductName:        r.productName,
		ProductCode:        r.productCode,
		ProductPrice:       r.productPrice,
		ProductQuantity:    r.productQuantity,
		ProductWeight:      r.productWeight,
		ProductDescription: r.productDescription,
		TransportType:      r.transportType,
		TransportName:      r.transportName,
		SenderName:         r.senderName,
		ReceiverName:       r.receiverName,
		Destination:        r.destination,
		Departure:          r.departure,
		State:              state,
		CreatedAt:          r.createdAt,
		UpdatedAt:          r.updatedAt,
	}
	if r.inspectedBy.Valid {
		id := r.inspectedBy.UUID
		s.InspectedBy = &id
	}
	return s
}

// Restore rebuilds a declaration from its snapshot, reconstructing the variant named
// by the state label.
func Restore(s Snapshot) (Document, error) {
	state, ok := ParseState(string(s.State))
	if !ok {
		return Document{}, &IncorrectStateError{ID: s.ID, Actual: string(s.State)}
	}
	r := record{
		id:                 s.ID,
		signedBy:           s.SignedBy,
		productName:        s.ProductName,
		productCode:        s.ProductCode,
		productPrice:       s.ProductPrice,
		productQuantity:    s.ProductQuantity,
		productWeight:      s.ProductWeight,
		productDescription: s.ProductDescription,
		transportType:      s.TransportType,
		transportName:      s.TransportName,
		senderName:         s.SenderName,
		receiverName:       s.ReceiverName,
		destination:        s.Destination,
		departure:          s.Departure,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
	}
	if s.InspectedBy != nil {
		r.inspectedBy = uuid.NullUUID{UUID: *s.InspectedBy, Valid: true}
	}
	return Document{record: r, state: state}, nil
}

// State returns the lifecycle tag of the wrapped declaration.
func (d Document) State() State {
	if d.state == "" {
		return StateDraft
	}
	return d.state
}

func (d Document) Document() Document { return d }
func (d Document) Snapshot() Snapshot { return d.record.snapshot(d.State()) }

// Declaration returns the wrapped typed variant.
func (d Document) Declaration() Declaration {
	switch d.State() {
	case StatePending:
		return Pending{d.record}
	case StateInspecting:
		return Inspecting{d.record}
	case StateApproved:
		return Approved{d.record}
	case StateRejected:
		return Rejected{d.record}
	default:
		return Draft{d.record}
	}
}

func (d Document) expect(want State) error {
	if d.State() != want {
		return &IncorrectStateError{ID: d.id, Actual: d.State().String()}
	}
	return nil
}

// Draft unwraps a Draft, or fails with IncorrectStateError.
func (d Document) Draft() (Draft, error) {
	if err := d.expect(StateDraft); err != nil {
		return Draft{}, err
	}
	return Draft{d.record}, nil
}

// Pending unwraps a Pending declaration, or fails with IncorrectStateError.
func (d Document) Pending() (Pending, error) {
	if err := d.expect(StatePending); err != nil {
		return Pending{}, err
	}
	return Pending{d.record}, nil
}

// Inspecting unwraps an Inspecting declaration, or fails with IncorrectStateError.
func (d Document) Inspecting() (Inspecting, error) {
	if err := d.expect(StateInspecting); err != nil {
		return Inspecting{}, err
	}
	return Inspecting{d.record}, nil
}

// Approved unwraps an Approved declaration, or fails with IncorrectStateError.
func (d Document) Approved() (Approved, error) {
	if err := d.expect(StateApproved); err != nil {
		return Approved{}, err
	}
	return Approved{d.record}, nil
}

// Rejected unwraps a Rejected declaration, or fails with IncorrectStateError.
func (d Document) Rejected() (Rejected, error) {
	if err := d.expect(StateRejected); err != nil {
		return Rejected{}, err
	}
	return Rejected{d.record}, nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Snapshot())
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to decode declaration: %w", err)
	}
	doc, err := Restore(s)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}
