package customs

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/declaration"
)

// TaxAssessment is the fee charged for the fields an inspector had to correct.
type TaxAssessment struct {
	ID              uuid.UUID `json:"id"`
	DeclarationID   uuid.UUID `json:"declarationId"`
	InspectorID     uuid.UUID `json:"inspectorId"`
	PayerID         uuid.UUID `json:"payerId"`
	IncorrectFields int       `json:"incorrectFields"`
	Price           float64   `json:"price"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Assess compares the submitted contents against the inspector's corrections. Every
// mismatching field adds one fee, priced on the corrected product price. Text and
// integer fields compare exactly; floats mismatch when they differ by more than the
// float64 machine epsilon. The signer of the corrected declaration pays.
func Assess(inspectorID uuid.UUID, original declaration.Declaration, corrected declaration.Inspecting, fee FeeSchedule) TaxAssessment {
	feePerItem := fee.Calculate(corrected.ProductPrice())
	before, after := original.Fields(), corrected.Fields()

	incorrect, price := 0, 0.0
	for i := range before.Text {
		if before.Text[i] != after.Text[i] {
			incorrect++
			price += feePerItem
		}
	}
	for i := range before.Floats {
		if math.Abs(before.Floats[i]-after.Floats[i]) > epsilon {
			incorrect++
			price += feePerItem
		}
	}
	for i := range before.Ints {
		if before.Ints[i] != after.Ints[i] {
			incorrect++
			price += feePerItem
		}
	}

	return TaxAssessment{
		ID:              uuid.New(),
		DeclarationID:   corrected.ID(),
		InspectorID:     inspectorID,
		PayerID:         corrected.SignedBy(),
		IncorrectFields: incorrect,
		Price:           price,
		CreatedAt:       time.Now().UTC(),
	}
}

// epsilon is the difference between 1.0 and the next representable float64.
const epsilon = 0x1p-52
