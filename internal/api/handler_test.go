package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenNSW/customs/internal/archive"
	"github.com/OpenNSW/customs/internal/archive/drivers"
	"github.com/OpenNSW/customs/internal/customs"
	"github.com/OpenNSW/customs/internal/database"
	"github.com/OpenNSW/customs/internal/declaration"
	"github.com/OpenNSW/customs/internal/desk"
	"github.com/OpenNSW/customs/internal/metrics"
	"github.com/OpenNSW/customs/internal/processor"
	"github.com/OpenNSW/customs/internal/sentinel"
	"github.com/OpenNSW/customs/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, health func() error) *gin.Engine {
	t.Helper()
	return setupRouterWithArchive(t, health, nil)
}

func setupRouterWithArchive(t *testing.T, health func() error, arc desk.Archive) *gin.Engine {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	repo := store.New(db)
	require.NoError(t, repo.Migrate(context.Background()))

	reg := prometheus.NewRegistry()
	d := desk.New(processor.New(nil), repo, arc, nil, metrics.New(reg))
	return NewRouter(NewHandler(d, health), reg)
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var completeDeclaration = map[string]any{
	"productName":        "Apple",
	"productCode":        "0808",
	"productPrice":       100.0,
	"productQuantity":    3,
	"productWeight":      12.5,
	"productDescription": "Green apples",
	"transportType":      "truck",
	"transportName":      "Volvo FH",
	"senderName":         "Orchard Ltd",
	"receiverName":       "Market Inc",
	"destination":        "DE",
	"departure":          "PL",
}

// submitDeclaration registers a declarant, creates a complete draft and submits it.
func submitDeclaration(t *testing.T, r http.Handler) uuid.UUID {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/declarants", DeclarantRequest{Name: "Alice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	declarant := decode[DeclarantResponse](t, w)

	body := map[string]any{"declarantId": declarant.ID}
	for k, v := range completeDeclaration {
		body[k] = v
	}
	w = do(t, r, http.MethodPost, "/api/v1/declarations", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[declaration.Snapshot](t, w)
	assert.Equal(t, declaration.StateDraft, draft.State)

	w = do(t, r, http.MethodPost, "/api/v1/declarations/"+draft.ID.String()+"/submit", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	return draft.ID
}

func TestHealth(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		r := setupRouter(t, nil)
		w := do(t, r, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Database Down", func(t *testing.T) {
		r := setupRouter(t, func() error { return errors.New("database ping failed") })
		w := do(t, r, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "database ping failed")
	})
}

func TestDeclarationFlow(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/offices", OfficeRequest{
		Profile: customs.Profile{Name: "Riga Freeport"},
		Params:  customs.Params{Fee: customs.ProgressiveFlat([]float64{50, 100, 200}, []float64{5, 10, 15})},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	office := decode[OfficeResponse](t, w)
	require.NotNil(t, office.Profile.WorkHours)
	assert.Equal(t, "09:00", office.Profile.WorkHours.Open)

	w = do(t, r, http.MethodPost, "/api/v1/offices/"+office.ID.String()+"/inspectors", InspectorRequest{Name: "Ivan", Rank: "Major"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inspector := decode[InspectorResponse](t, w)

	id := submitDeclaration(t, r)

	w = do(t, r, http.MethodGet, "/api/v1/declarations/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, declaration.StatePending, decode[declaration.Snapshot](t, w).State)

	w = do(t, r, http.MethodGet, "/api/v1/offices/"+office.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[OfficeResponse](t, w).Pending, 1)

	base := "/api/v1/inspectors/" + inspector.ID.String()
	w = do(t, r, http.MethodPost, base+"/fetch/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fetched := decode[declaration.Snapshot](t, w)
	assert.Equal(t, declaration.StateInspecting, fetched.State)
	require.NotNil(t, fetched.InspectedBy)
	assert.Equal(t, inspector.ID, *fetched.InspectedBy)

	w = do(t, r, http.MethodPut, base+"/declarations/"+id.String(), map[string]any{"productPrice": 150.0, "departure": "LT"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, base+"/declarations/"+id.String()+"/assess", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	a := decode[customs.TaxAssessment](t, w)
	assert.Equal(t, 2, a.IncorrectFields)
	assert.Equal(t, 30.0, a.Price)

	w = do(t, r, http.MethodPost, base+"/declarations/"+id.String()+"/finalize", FinalizeRequest{Verdict: "reject"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Declaration declaration.Snapshot `json:"declaration"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, declaration.StateRejected, out.Declaration.State)
	assert.Equal(t, "LT", out.Declaration.Departure)

	w = do(t, r, http.MethodGet, "/api/v1/declarations/"+id.String()+"/assessments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]customs.TaxAssessment](t, w), 1)

	w = do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `customs_declaration_verdicts_total{state="REJECTED"} 1`)
}

func TestErrorMapping(t *testing.T) {
	r := setupRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/v1/offices", OfficeRequest{Profile: customs.Profile{Name: "Valga"}})
	require.Equal(t, http.StatusCreated, w.Code)
	office := decode[OfficeResponse](t, w)

	t.Run("Malformed ID", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/declarations/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown Declaration", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/declarations/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Unknown Inspector", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/inspectors/"+uuid.NewString()+"/fetch/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Incomplete Draft", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/declarants", DeclarantRequest{Name: "Bob"})
		declarant := decode[DeclarantResponse](t, w)
		w = do(t, r, http.MethodPost, "/api/v1/declarations", map[string]any{"declarantId": declarant.ID, "productName": "Pear"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		draft := decode[declaration.Snapshot](t, w)

		w = do(t, r, http.MethodPost, "/api/v1/declarations/"+draft.ID.String()+"/submit", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "productCode")
	})

	t.Run("Submitted Declaration Is Not Editable", func(t *testing.T) {
		id := submitDeclaration(t, r)
		w := do(t, r, http.MethodPut, "/api/v1/declarations/"+id.String(), map[string]any{"productName": "Pear"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Bad Verdict", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/offices/"+office.ID.String()+"/inspectors", InspectorRequest{Name: "Ivan"})
		inspector := decode[InspectorResponse](t, w)
		w = do(t, r, http.MethodPost, "/api/v1/inspectors/"+inspector.ID.String()+"/declarations/"+uuid.NewString()+"/finalize", FinalizeRequest{Verdict: "MAYBE"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing Body Fields", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/declarants", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid Fee", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/offices", map[string]any{"params": map[string]any{"fee": map[string]any{"kind": "PROGRESSIVE_FLAT", "thresholds": []float64{1}}}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListOffices(t *testing.T) {
	r := setupRouter(t, nil)
	for _, name := range []string{"Riga", "Valga", "Narva"} {
		w := do(t, r, http.MethodPost, "/api/v1/offices", OfficeRequest{Profile: customs.Profile{Name: name}})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(t, r, http.MethodGet, "/api/v1/offices?offset=1&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[PageResponse[OfficeResponse]](t, w)
	assert.Equal(t, 3, got.Total)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, 1, got.Offset)

	w = do(t, r, http.MethodGet, "/api/v1/offices?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreen(t *testing.T) {
	r := setupRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/v1/offices", OfficeRequest{
		Params: customs.Params{BannedImportOrigins: []string{"pl"}},
	})
	office := decode[OfficeResponse](t, w)
	id := submitDeclaration(t, r)
	path := "/api/v1/offices/" + office.ID.String() + "/screen/" + id.String()

	w = do(t, r, http.MethodPost, path+"?flow=import", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[ScreenResponse](t, w)
	assert.False(t, got.Allowed)
	assert.Contains(t, got.Reason, "departure")

	w = do(t, r, http.MethodPost, path+"?flow=EXPORT", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[ScreenResponse](t, w).Allowed)

	w = do(t, r, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArchive(t *testing.T) {
	driver, err := drivers.NewLocalFSDriver(t.TempDir(), "/api/v1/archive")
	require.NoError(t, err)
	r := setupRouterWithArchive(t, nil, archive.NewArchiver(driver))

	w := do(t, r, http.MethodPost, "/api/v1/offices", OfficeRequest{Profile: customs.Profile{Name: "Narva"}})
	require.Equal(t, http.StatusCreated, w.Code)
	office := decode[OfficeResponse](t, w)
	w = do(t, r, http.MethodPost, "/api/v1/offices/"+office.ID.String()+"/inspectors", InspectorRequest{Name: "Ivan"})
	require.Equal(t, http.StatusCreated, w.Code)
	inspector := decode[InspectorResponse](t, w)

	id := submitDeclaration(t, r)

	w = do(t, r, http.MethodGet, "/api/v1/declarations/"+id.String()+"/dossier", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "not archived before finalize")

	base := "/api/v1/inspectors/" + inspector.ID.String()
	w = do(t, r, http.MethodPost, base+"/fetch/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, base+"/declarations/"+id.String()+"/finalize", FinalizeRequest{Verdict: "APPROVE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Receipt *archive.Receipt `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotNil(t, out.Receipt)
	assert.Equal(t, "/api/v1/archive/"+archive.Key(id), out.Receipt.URL)

	t.Run("Receipt URL Serves Dossier", func(t *testing.T) {
		w := do(t, r, http.MethodGet, out.Receipt.URL, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got struct {
			Declaration declaration.Snapshot `json:"declaration"`
			OfficeID    uuid.UUID            `json:"officeId"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, id, got.Declaration.ID)
		assert.Equal(t, declaration.StateApproved, got.Declaration.State)
		assert.Equal(t, office.ID, got.OfficeID)
	})

	t.Run("Dossier Link Redirects", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/declarations/"+id.String()+"/dossier", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, out.Receipt.URL, w.Header().Get("Location"))
	})

	t.Run("Unknown Key", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/archive/"+archive.Key(uuid.New()), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Malformed Key", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/archive/"+id.String()+".txt", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = do(t, r, http.MethodGet, "/api/v1/archive/not-a-uuid.json", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("No Archive Configured", func(t *testing.T) {
		bare := setupRouter(t, nil)
		w := do(t, bare, http.MethodGet, "/api/v1/archive/"+archive.Key(id), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCloseOffice(t *testing.T) {
	r := setupRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/v1/offices", OfficeRequest{Profile: customs.Profile{Name: "Valga"}})
	require.Equal(t, http.StatusCreated, w.Code)
	office := decode[OfficeResponse](t, w)
	path := "/api/v1/offices/" + office.ID.String()

	id := submitDeclaration(t, r)
	w = do(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "office still holds a pending declaration")

	w = do(t, r, http.MethodGet, "/api/v1/declarations/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, declaration.StatePending, decode[declaration.Snapshot](t, w).State)

	w = do(t, r, http.MethodPost, path+"/inspectors", InspectorRequest{Name: "Ivan"})
	inspector := decode[InspectorResponse](t, w)
	base := "/api/v1/inspectors/" + inspector.ID.String()
	w = do(t, r, http.MethodPost, base+"/fetch/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, base+"/declarations/"+id.String()+"/finalize", FinalizeRequest{Verdict: "REJECT"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = do(t, r, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(&declaration.NotFoundError{ID: uuid.New()}))
	assert.Equal(t, http.StatusConflict, statusFor(&processor.CannotBorrowOfficeError{ID: uuid.New()}))
	assert.Equal(t, http.StatusConflict, statusFor(&customs.AlreadyExistsError{Kind: "inspector", ID: uuid.New()}))
	assert.Equal(t, http.StatusConflict, statusFor(sentinel.ErrInvalidState))
	assert.Equal(t, http.StatusConflict, statusFor(&processor.OfficeBusyError{ID: uuid.New(), Pending: 1}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk full")))
}
