package declaration

import (
	"time"

	"github.com/google/uuid"
)

// Text field order used by Fields and by validation messages.
var TextFieldNames = [9]string{
	"productName",
	"productCode",
	"productDescription",
	"transportType",
	"transportName",
	"senderName",
	"receiverName",
	"destination",
	"departure",
}

// Float field order used by Fields.
var FloatFieldNames = [2]string{"productPrice", "productWeight"}

// Integer field order used by Fields.
var IntFieldNames = [1]string{"productQuantity"}

// Fields is the diffable snapshot of a declaration's contents.
type Fields struct {
	Text   [9]string
	Floats [2]float64
	Ints   [1]int64
}

// record holds the contents shared by every lifecycle variant. Variants embed it by
// value, so converting between states copies it.
type record struct {
	id                 uuid.UUID
	signedBy           uuid.UUID
	inspectedBy        uuid.NullUUID
	productName        string
	productCode        string
	productPrice       float64
	productQuantity    int64
	productWeight      float64
	productDescription string
	transportType      string
	transportName      string
	senderName         string
	receiverName       string
	destination        string
	departure          string
	createdAt          time.Time
	updatedAt          time.Time
}

func (r record) ID() uuid.UUID              { return r.id }
func (r record) SignedBy() uuid.UUID        { return r.signedBy }
func (r record) ProductName() string        { return r.productName }
func (r record) ProductCode() string        { return r.productCode }
func (r record) ProductPrice() float64      { return r.productPrice }
func (r record) ProductQuantity() int64     { return r.productQuantity }
func (r record) ProductWeight() float64     { return r.productWeight }
func (r record) ProductDescription() string { return r.productDescription }
func (r record) TransportType() string      { return r.transportType }
func (r record) TransportName() string      { return r.transportName }
func (r record) SenderName() string         { return r.senderName }
func (r record) ReceiverName() string       { return r.receiverName }
func (r record) Destination() string        { return r.destination }
func (r record) Departure() string          { return r.departure }
func (r record) CreatedAt() time.Time       { return r.createdAt }
func (r record) UpdatedAt() time.Time       { return r.updatedAt }

// InspectedBy returns the inspector the declaration was last assigned to, if any.
func (r record) InspectedBy() (uuid.UUID, bool) {
	return r.inspectedBy.UUID, r.inspectedBy.Valid
}

// Fields returns the 9 text, 2 float and 1 integer attributes used for diffing.
func (r record) Fields() Fields {
	return Fields{
		Text: [9]string{
			r.productName,
			r.productCode,
			r.productDescription,
			r.transportType,
			r.transportName,
			r.senderName,
			r.receiverName,
			r.destination,
			r.departure,
		},
		Floats: [2]float64{r.productPrice, r.productWeight},
		Ints:   [1]int64{r.productQuantity},
	}
}

// missingFields lists every text field that is empty and every numeric field that is zero.
func (r record) missingFields() []string {
	f := r.Fields()
	var missing []string
	for i, v := range f.Text {
		if v == "" {
			missing = append(missing, TextFieldNames[i])
		}
	}
	for i, v := range f.Floats {
		if v == 0 {
			missing = append(missing, FloatFieldNames[i])
		}
	}
	for i, v := range f.Ints {
		if v == 0 {
			missing = append(missing, IntFieldNames[i])
		}
	}
	return missing
}
