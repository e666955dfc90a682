package customs

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenNSW/customs/internal/sentinel"
)

func TestAssess(t *testing.T) {
	insp := NewInspector("Ivan", "Inspector", "Lieutenant")
	original := insp.Fetch(pendingDeclaration(t))

	t.Run("No Corrections", func(t *testing.T) {
		tax := insp.Assess(original, original, Flat(10))
		assert.Equal(t, 0, tax.IncorrectFields)
		assert.Equal(t, 0.0, tax.Price)
	})

	t.Run("Two Corrected Fields", func(t *testing.T) {
		corrected := original
		corrected.Edit().
			SetProductPrice(200).
			SetProductName("Apple").
			SetProductCode("234")

		tax := insp.Assess(original, corrected, Flat(10))
		assert.Equal(t, 2, tax.IncorrectFields)
		assert.InDelta(t, 20.0, tax.Price, 1e-12)
		assert.Equal(t, insp.ID(), tax.InspectorID)
		assert.Equal(t, corrected.ID(), tax.DeclarationID)
		assert.Equal(t, corrected.SignedBy(), tax.PayerID)
		assert.NotEqual(t, uuid.Nil, tax.ID)
	})

	t.Run("Fee Priced On Corrected Price", func(t *testing.T) {
		corrected := original
		corrected.Edit().SetProductPrice(40)

		tax := Assess(insp.ID(), original, corrected, ProgressiveFlat([]float64{50, 100}, []float64{5, 10}))
		assert.Equal(t, 1, tax.IncorrectFields)
		assert.Equal(t, 10.0, tax.Price)
	})

	t.Run("Float Noise Below Epsilon Is Ignored", func(t *testing.T) {
		corrected := original
		corrected.Edit().SetProductWeight(original.ProductWeight() + epsilon/4)

		tax := Assess(insp.ID(), original, corrected, Flat(1))
		assert.Equal(t, 0, tax.IncorrectFields)
	})

	t.Run("Every Field Counts", func(t *testing.T) {
		corrected := original
		corrected.Edit().
			SetProductName("Pear").
			SetProductCode("999").
			SetProductPrice(10).
			SetProductQuantity(9).
			SetProductWeight(1).
			SetProductDescription("Ripe pears").
			SetTransportType("rail").
			SetTransportName("DB Cargo").
			SetSenderName("Farm").
			SetReceiverName("Shop").
			SetDestination("FR").
			SetDeparture("ES")

		tax := Assess(insp.ID(), original, corrected, Percentage(0.5))
		assert.Equal(t, 12, tax.IncorrectFields)
		assert.InDelta(t, 60.0, tax.Price, 1e-9)
	})
}

func TestParams_Screen(t *testing.T) {
	params := Params{
		Fee:                  Flat(10),
		BannedImportProducts: []string{"ivory"},
		BannedExportProducts: []string{"123"},
		BannedImportOrigins:  []string{"XX"},
		BannedExportOrigins:  []string{"de"},
	}
	require.NoError(t, params.Validate())
	d := pendingDeclaration(t)

	t.Run("Clean Import", func(t *testing.T) {
		assert.NoError(t, params.Screen(FlowImport, d))
	})

	t.Run("Banned Export Product Code", func(t *testing.T) {
		err := params.Screen(FlowExport, d)
		var invalid *InvalidFieldError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "productCode", invalid.Field)
	})

	t.Run("Banned Export Destination", func(t *testing.T) {
		p := params
		p.BannedExportProducts = nil
		err := p.Screen(FlowExport, d)
		var invalid *InvalidFieldError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "destination", invalid.Field)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidField))
	})

	t.Run("Banned Import Product Name", func(t *testing.T) {
		p := params
		p.BannedImportProducts = []string{"APPLE"}
		err := p.Screen(FlowImport, d)
		var invalid *InvalidFieldError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "productName", invalid.Field)
	})

	t.Run("Unknown Flow", func(t *testing.T) {
		assert.Error(t, params.Screen("TRANSIT", d))
	})

	t.Run("Blank Ban Entry", func(t *testing.T) {
		p := params
		p.BannedImportOrigins = []string{" "}
		assert.True(t, errors.Is(p.Validate(), sentinel.ErrInvalidField))
	})
}
