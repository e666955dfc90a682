package declaration

import "time"

// Editor mutates the contents of a Draft or of an Inspecting declaration in place.
// Pending and terminal declarations never hand one out.
type Editor struct {
	rec *record
}

// Patch carries optional field updates. Nil fields are left untouched.
type Patch struct {
	ProductName        *string  `json:"productName,omitempty"`
	ProductCode        *string  `json:"productCode,omitempty"`
	ProductPrice       *float64 `json:"productPrice,omitempty"`
	ProductQuantity    *int64   `json:"productQuantity,omitempty"`
	ProductWeight      *float64 `json:"productWeight,omitempty"`
	ProductDescription *string  `json:"productDescription,omitempty"`
	TransportType      *string  `json:"transportType,omitempty"`
	TransportName      *string  `json:"transportName,omitempty"`
	SenderName         *string  `json:"senderName,omitempty"`
	ReceiverName       *string  `json:"receiverName,omitempty"`
	Destination        *string  `json:"destination,omitempty"`
	Departure          *string  `json:"departure,omitempty"`
}

func (e *Editor) touch() *Editor {
	e.rec.updatedAt = time.Now().UTC()
	return e
}

func (e *Editor) SetProductName(v string) *Editor {
	e.rec.productName = v
	return e.touch()
}

func (e *Editor) SetProductCode(v string) *Editor {
	e.rec.productCode = v
	return e.touch()
}

func (e *Editor) SetProductPrice(v float64) *Editor {
	e.rec.productPrice = v
	return e.touch()
}

func (e *Editor) SetProductQuantity(v int64) *Editor {
	e.rec.productQuantity = v
	return e.touch()
}

func (e *Editor) SetProductWeight(v float64) *Editor {
	e.rec.productWeight = v
	return e.touch()
}

func (e *Editor) SetProductDescription(v string) *Editor {
	e.rec.productDescription = v
	return e.touch()
}

func (e *Editor) SetTransportType(v string) *Editor {
	e.rec.transportType = v
	return e.touch()
}

func (e *Editor) SetTransportName(v string) *Editor {
	e.rec.transportName = v
	return e.touch()
}

func (e *Editor) SetSenderName(v string) *Editor {
	e.rec.senderName = v
	return e.touch()
}

func (e *Editor) SetReceiverName(v string) *Editor {
	e.rec.receiverName = v
	return e.touch()
}

func (e *Editor) SetDestination(v string) *Editor {
	e.rec.destination = v
	return e.touch()
}

func (e *Editor) SetDeparture(v string) *Editor {
	e.rec.departure = v
	return e.touch()
}

// Apply sets every non-nil field of the patch.
func (e *Editor) Apply(p Patch) *Editor {
	if p.ProductName != nil {
		e.SetProductName(*p.ProductName)
	}
	if p.ProductCode != nil {
		e.SetProductCode(*p.ProductCode)
	}
	if p.ProductPrice != nil {
		e.SetProductPrice(*p.ProductPrice)
	}
	if p.ProductQuantity != nil {
		e.SetProductQuantity(*p.ProductQuantity)
	}
	if p.ProductWeight != nil {
		e.SetProductWeight(*p.ProductWeight)
	}
	if p.ProductDescription != nil {
		e.SetProductDescription(*p.ProductDescription)
	}
	if p.TransportType != nil {
		e.SetTransportType(*p.TransportType)
	}
	if p.TransportName != nil {
		e.SetTransportName(*p.TransportName)
	}
	if p.SenderName != nil {
		e.SetSenderName(*p.SenderName)
	}
	if p.ReceiverName != nil {
		e.SetReceiverName(*p.ReceiverName)
	}
	if p.Destination != nil {
		e.SetDestination(*p.Destination)
	}
	if p.Departure != nil {
		e.SetDeparture(*p.Departure)
	}
	return e
}
