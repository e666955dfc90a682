package customs

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenNSW/customs/internal/sentinel"
)

func TestFeeSchedule_Calculate(t *testing.T) {
	t.Run("Zero Value Is Flat Zero", func(t *testing.T) {
		var f FeeSchedule
		assert.Equal(t, 0.0, f.Calculate(1000))
	})

	t.Run("Flat", func(t *testing.T) {
		assert.Equal(t, 10.0, Flat(10).Calculate(0))
		assert.Equal(t, 10.0, Flat(10).Calculate(1e6))
	})

	t.Run("Percentage", func(t *testing.T) {
		assert.InDelta(t, 15.0, Percentage(0.15).Calculate(100), 1e-9)
	})

	t.Run("Progressive Flat Last Match Wins", func(t *testing.T) {
		f := ProgressiveFlat([]float64{50, 100}, []float64{5, 10})
		assert.Equal(t, 10.0, f.Calculate(40))
		assert.Equal(t, 10.0, f.Calculate(60))
		assert.Equal(t, 0.0, f.Calculate(150))
		assert.Equal(t, 0.0, f.Calculate(100))
	})

	t.Run("Progressive Flat Ignores Unpaired Thresholds", func(t *testing.T) {
		f := ProgressiveFlat([]float64{50, 100, 200}, []float64{5, 10})
		assert.Equal(t, 10.0, f.Calculate(90))
		assert.Equal(t, 0.0, f.Calculate(150))
	})
}

func TestFeeSchedule_Validate(t *testing.T) {
	assert.NoError(t, Flat(1).Validate())
	assert.NoError(t, FeeSchedule{}.Validate())

	err := FeeSchedule{Kind: FeeProgressiveFlat, Thresholds: []float64{1}, Fees: nil}.Validate()
	assert.True(t, errors.Is(err, sentinel.ErrInvalidField))

	err = FeeSchedule{Kind: "TIERED"}.Validate()
	assert.True(t, errors.Is(err, sentinel.ErrInvalidField))
}

func TestFeeSchedule_JSON(t *testing.T) {
	f := ProgressiveFlat([]float64{50, 100}, []float64{5, 10})
	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"PROGRESSIVE_FLAT","thresholds":[50,100],"fees":[5,10]}`, string(data))

	var back FeeSchedule
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, f, back)
	assert.Equal(t, "ProgressiveFlat([50 100], [5 10])", back.String())
}
