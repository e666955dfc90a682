package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/customs"
	"github.com/OpenNSW/customs/internal/declaration"
)

type OfficeRequest struct {
	Profile customs.Profile `json:"profile"`
	Params  customs.Params  `json:"params"`
}

type InspectorRequest struct {
	Name string `json:"name" binding:"required"`
	Post string `json:"post"`
	Rank string `json:"rank"`
}

type OperatorRequest struct {
	Name string `json:"name" binding:"required"`
	Post string `json:"post"`
}

type DeclarantRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateDeclarationRequest opens a draft for a declarant with optional initial values.
type CreateDeclarationRequest struct {
	DeclarantID uuid.UUID `json:"declarantId" binding:"required"`
	declaration.Patch
}

type FinalizeRequest struct {
	Verdict string `json:"verdict" binding:"required"`
}

type InspectorResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Rank     string    `json:"rank"`
	Post     string    `json:"post"`
	InReview int       `json:"inReview"`
}

type OfficeResponse struct {
	ID         uuid.UUID              `json:"id"`
	Profile    customs.Profile        `json:"profile"`
	Params     customs.Params         `json:"params"`
	Open       bool                   `json:"open"`
	Inspectors []InspectorResponse    `json:"inspectors"`
	Operators  []customs.Operator     `json:"operators"`
	Pending    []declaration.Document `json:"pending"`
}

type DeclarantResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type SubmitResponse struct {
	Declaration declaration.Document `json:"declaration"`
	OfficeID    uuid.UUID            `json:"officeId"`
}

type ScreenResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func inspectorResponse(i *customs.Inspector) InspectorResponse {
	return InspectorResponse{ID: i.ID(), Name: i.Name(), Rank: i.Rank(), Post: i.Post(), InReview: i.InReview()}
}

func officeResponse(o *customs.Office, now time.Time) OfficeResponse {
	profile := o.Profile()
	inspectors := o.Inspectors()
	pending := o.PendingDeclarations()

	out := OfficeResponse{
		ID:         o.ID(),
		Profile:    profile,
		Params:     o.Params(),
		Open:       profile.IsOpen(now),
		Inspectors: make([]InspectorResponse, 0, len(inspectors)),
		Operators:  o.Operators(),
		Pending:    make([]declaration.Document, 0, len(pending)),
	}
	for _, i := range inspectors {
		out.Inspectors = append(out.Inspectors, inspectorResponse(i))
	}
	for _, p := range pending {
		out.Pending = append(out.Pending, p.Document())
	}
	return out
}
