// Package api exposes the customs desk over HTTP.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OpenNSW/customs/internal/customs"
	"github.com/OpenNSW/customs/internal/declaration"
	"github.com/OpenNSW/customs/internal/desk"
)

const dossierLinkTTL = 15 * time.Minute

// Handler serves the customs REST API.
type Handler struct {
	desk   *desk.Service
	health func() error
	now    func() time.Time
}

// NewHandler creates a handler. health reports whether the backing database is
// reachable and may be nil.
func NewHandler(d *desk.Service, health func() error) *Handler {
	if health == nil {
		health = func() error { return nil }
	}
	return &Handler{desk: d, health: health, now: time.Now}
}

// NewRouter registers every route on a new gin engine. Metrics are served from gatherer.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", h.HandleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")

	offices := v1.Group("/offices")
	offices.POST("", h.HandleCreateOffice)
	offices.GET("", h.HandleListOffices)
	offices.GET("/:officeID", h.HandleGetOffice)
	offices.PUT("/:officeID", h.HandleUpdateOffice)
	offices.DELETE("/:officeID", h.HandleCloseOffice)
	offices.POST("/:officeID/inspectors", h.HandleAddInspector)
	offices.POST("/:officeID/operators", h.HandleAddOperator)
	offices.POST("/:officeID/screen/:declarationID", h.HandleScreen)

	declarants := v1.Group("/declarants")
	declarants.POST("", h.HandleRegisterDeclarant)
	declarants.GET("/:declarantID/declarations", h.HandleListDeclarantDeclarations)

	declarations := v1.Group("/declarations")
	declarations.POST("", h.HandleCreateDeclaration)
	declarations.GET("/:id", h.HandleGetDeclaration)
	declarations.PUT("/:id", h.HandleEditDeclaration)
	declarations.POST("/:id/submit", h.HandleSubmitDeclaration)
	declarations.GET("/:id/assessments", h.HandleListAssessments)
	declarations.GET("/:id/dossier", h.HandleDossierLink)

	v1.GET("/archive/:key", h.HandleArchive)

	inspectors := v1.Group("/inspectors/:inspectorID")
	inspectors.POST("/fetch/:declarationID", h.HandleFetch)
	inspectors.PUT("/declarations/:id", h.HandleCorrect)
	inspectors.POST("/declarations/:id/assess", h.HandleAssess)
	inspectors.POST("/declarations/:id/requeue", h.HandleRequeue)
	inspectors.POST("/declarations/:id/finalize", h.HandleFinalize)

	return r
}

// HandleHealth handles GET /health
func (h *Handler) HandleHealth(c *gin.Context) {
	if err := h.health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleCreateOffice handles POST /api/v1/offices
// Request body: OfficeRequest
// Response: OfficeResponse
func (h *Handler) HandleCreateOffice(c *gin.Context) {
	var req OfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	o, err := h.desk.CreateOffice(c.Request.Context(), req.Profile, req.Params)
	if err != nil {
		writeDomainError(c, "create office", err)
		return
	}
	c.JSON(http.StatusCreated, officeResponse(o, h.now()))
}

// HandleListOffices handles GET /api/v1/offices
// Optional query params: offset, limit
func (h *Handler) HandleListOffices(c *gin.Context) {
	offset, limit, ok := pagination(c)
	if !ok {
		return
	}
	now := h.now()
	offices := h.desk.Offices()
	out := make([]OfficeResponse, 0, len(offices))
	for _, o := range offices {
		out = append(out, officeResponse(o, now))
	}
	c.JSON(http.StatusOK, page(out, offset, limit))
}

// HandleGetOffice handles GET /api/v1/offices/:officeID
func (h *Handler) HandleGetOffice(c *gin.Context) {
	id, ok := pathID(c, "officeID")
	if !ok {
		return
	}
	o, err := h.desk.Office(id)
	if err != nil {
		writeDomainError(c, "get office", err)
		return
	}
	c.JSON(http.StatusOK, officeResponse(o, h.now()))
}

// HandleUpdateOffice handles PUT /api/v1/offices/:officeID
func (h *Handler) HandleUpdateOffice(c *gin.Context) {
	id, ok := pathID(c, "officeID")
	if !ok {
		return
	}
	var req OfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	o, err := h.desk.UpdateOffice(c.Request.Context(), id, req.Profile, req.Params)
	if err != nil {
		writeDomainError(c, "update office", err)
		return
	}
	c.JSON(http.StatusOK, officeResponse(o, h.now()))
}

// HandleCloseOffice handles DELETE /api/v1/offices/:officeID
// Offices with pending or in-review declarations are refused with 409.
func (h *Handler) HandleCloseOffice(c *gin.Context) {
	id, ok := pathID(c, "officeID")
	if !ok {
		return
	}
	if err := h.desk.CloseOffice(c.Request.Context(), id); err != nil {
		writeDomainError(c, "close office", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleAddInspector handles POST /api/v1/offices/:officeID/inspectors
func (h *Handler) HandleAddInspector(c *gin.Context) {
	id, ok := pathID(c, "officeID")
	if !ok {
		return
	}
	var req InspectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	i, err := h.desk.AddInspector(c.Request.Context(), id, req.Name, req.Post, req.Rank)
	if err != nil {
		writeDomainError(c, "add inspector", err)
		return
	}
	c.JSON(http.StatusCreated, inspectorResponse(i))
}

// HandleAddOperator handles POST /api/v1/offices/:officeID/operators
func (h *Handler) HandleAddOperator(c *gin.Context) {
	id, ok := pathID(c, "officeID")
	if !ok {
		return
	}
	var req OperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	op, err := h.desk.AddOperator(c.Request.Context(), id, req.Name, req.Post)
	if err != nil {
		writeDomainError(c, "add operator", err)
		return
	}
	c.JSON(http.StatusCreated, op)
}

// HandleScreen handles POST /api/v1/offices/:officeID/screen/:declarationID?flow=IMPORT|EXPORT
// A banned declaration is reported in the body, not as an error status.
func (h *Handler) HandleScreen(c *gin.Context) {
	officeID, ok := pathID(c, "officeID")
	if !ok {
		return
	}
	declarationID, ok := pathID(c, "declarationID")
	if !ok {
		return
	}
	flow := customs.TradeFlow(strings.ToUpper(c.Query("flow")))
	if flow != customs.FlowImport && flow != customs.FlowExport {
		writeJSONError(c, http.StatusBadRequest, "flow query parameter must be IMPORT or EXPORT")
		return
	}
	err := h.desk.Screen(c.Request.Context(), officeID, declarationID, flow)
	var banned *customs.InvalidFieldError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, ScreenResponse{Allowed: true})
	case errors.As(err, &banned):
		c.JSON(http.StatusOK, ScreenResponse{Allowed: false, Reason: banned.Error()})
	default:
		writeDomainError(c, "screen declaration", err)
	}
}

// HandleRegisterDeclarant handles POST /api/v1/declarants
func (h *Handler) HandleRegisterDeclarant(c *gin.Context) {
	var req DeclarantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	d, err := h.desk.RegisterDeclarant(c.Request.Context(), req.Name)
	if err != nil {
		writeDomainError(c, "register declarant", err)
		return
	}
	c.JSON(http.StatusCreated, DeclarantResponse{ID: d.ID(), Name: d.Name()})
}

// HandleListDeclarantDeclarations handles GET /api/v1/declarants/:declarantID/declarations
// Optional query params: offset, limit
func (h *Handler) HandleListDeclarantDeclarations(c *gin.Context) {
	id, ok := pathID(c, "declarantID")
	if !ok {
		return
	}
	offset, limit, ok := pagination(c)
	if !ok {
		return
	}
	d, err := h.desk.Declarant(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, "get declarant", err)
		return
	}
	c.JSON(http.StatusOK, page(d.Declarations(), offset, limit))
}

// HandleCreateDeclaration handles POST /api/v1/declarations
// Request body: CreateDeclarationRequest
func (h *Handler) HandleCreateDeclaration(c *gin.Context) {
	var req CreateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	draft, err := h.desk.CreateDraft(c.Request.Context(), req.DeclarantID, req.Patch)
	if err != nil {
		writeDomainError(c, "create declaration", err)
		return
	}
	c.JSON(http.StatusCreated, draft.Document())
}

// HandleGetDeclaration handles GET /api/v1/declarations/:id
func (h *Handler) HandleGetDeclaration(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.desk.GetDeclaration(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, "get declaration", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// HandleEditDeclaration handles PUT /api/v1/declarations/:id
// Request body: declaration.Patch. Only drafts can be edited.
func (h *Handler) HandleEditDeclaration(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch declaration.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	draft, err := h.desk.EditDraft(c.Request.Context(), id, patch)
	if err != nil {
		writeDomainError(c, "edit declaration", err)
		return
	}
	c.JSON(http.StatusOK, draft.Document())
}

// HandleSubmitDeclaration handles POST /api/v1/declarations/:id/submit
func (h *Handler) HandleSubmitDeclaration(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, o, err := h.desk.Submit(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, "submit declaration", err)
		return
	}
	c.JSON(http.StatusAccepted, SubmitResponse{Declaration: p.Document(), OfficeID: o.ID()})
}

// HandleListAssessments handles GET /api/v1/declarations/:id/assessments
func (h *Handler) HandleListAssessments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	assessments, err := h.desk.Assessments(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, "list assessments", err)
		return
	}
	c.JSON(http.StatusOK, assessments)
}

// HandleDossierLink handles GET /api/v1/declarations/:id/dossier
// Redirects to the archived dossier of a finalized declaration.
func (h *Handler) HandleDossierLink(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	url, err := h.desk.DossierURL(c.Request.Context(), id, dossierLinkTTL)
	if err != nil {
		writeDomainError(c, "link dossier", err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// HandleArchive handles GET /api/v1/archive/:key
// Serves dossiers written by the local filesystem driver; key is <declarationID>.json.
func (h *Handler) HandleArchive(c *gin.Context) {
	raw, found := strings.CutSuffix(c.Param("key"), ".json")
	if !found {
		writeJSONError(c, http.StatusBadRequest, "key must be <declarationID>.json")
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid key format")
		return
	}
	d, err := h.desk.Dossier(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, "read dossier", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// HandleFetch handles POST /api/v1/inspectors/:inspectorID/fetch/:declarationID
func (h *Handler) HandleFetch(c *gin.Context) {
	inspectorID, ok := pathID(c, "inspectorID")
	if !ok {
		return
	}
	declarationID, ok := pathID(c, "declarationID")
	if !ok {
		return
	}
	d, err := h.desk.Fetch(c.Request.Context(), inspectorID, declarationID)
	if err != nil {
		writeDomainError(c, "fetch declaration", err)
		return
	}
	c.JSON(http.StatusOK, d.Document())
}

// HandleCorrect handles PUT /api/v1/inspectors/:inspectorID/declarations/:id
// Request body: declaration.Patch
func (h *Handler) HandleCorrect(c *gin.Context) {
	inspectorID, ok := pathID(c, "inspectorID")
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch declaration.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	d, err := h.desk.Correct(c.Request.Context(), inspectorID, id, patch)
	if err != nil {
		writeDomainError(c, "correct declaration", err)
		return
	}
	c.JSON(http.StatusOK, d.Document())
}

// HandleAssess handles POST /api/v1/inspectors/:inspectorID/declarations/:id/assess
func (h *Handler) HandleAssess(c *gin.Context) {
	inspectorID, ok := pathID(c, "inspectorID")
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.desk.Assess(c.Request.Context(), inspectorID, id)
	if err != nil {
		writeDomainError(c, "assess declaration", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// HandleRequeue handles POST /api/v1/inspectors/:inspectorID/declarations/:id/requeue
func (h *Handler) HandleRequeue(c *gin.Context) {
	inspectorID, ok := pathID(c, "inspectorID")
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, o, err := h.desk.Requeue(c.Request.Context(), inspectorID, id)
	if err != nil {
		writeDomainError(c, "requeue declaration", err)
		return
	}
	c.JSON(http.StatusOK, SubmitResponse{Declaration: p.Document(), OfficeID: o.ID()})
}

// HandleFinalize handles POST /api/v1/inspectors/:inspectorID/declarations/:id/finalize
// Request body: FinalizeRequest with verdict APPROVE or REJECT
func (h *Handler) HandleFinalize(c *gin.Context) {
	inspectorID, ok := pathID(c, "inspectorID")
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	verdict, err := customs.ParseVerdict(req.Verdict)
	if err != nil {
		writeDomainError(c, "finalize declaration", err)
		return
	}
	out, err := h.desk.Finalize(c.Request.Context(), inspectorID, id, verdict)
	if err != nil {
		writeDomainError(c, "finalize declaration", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

