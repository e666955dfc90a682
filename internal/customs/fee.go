package customs

import "fmt"

// FeeKind selects how a FeeSchedule computes the per-field fee.
type FeeKind string

const (
	FeeFlat            FeeKind = "FLAT"
	FeePercentage      FeeKind = "PERCENTAGE"
	FeeProgressiveFlat FeeKind = "PROGRESSIVE_FLAT"
)

// FeeSchedule maps a product price to the fee charged for every incorrect field.
// The zero value is Flat(0).
type FeeSchedule struct {
	Kind       FeeKind   `json:"kind" toml:"kind"`
	Value      float64   `json:"value,omitempty" toml:"value,omitempty"`
	Thresholds []float64 `json:"thresholds,omitempty" toml:"thresholds,omitempty"`
	Fees       []float64 `json:"fees,omitempty" toml:"fees,omitempty"`
}

// Flat charges the same amount whatever the price.
func Flat(amount float64) FeeSchedule {
	return FeeSchedule{Kind: FeeFlat, Value: amount}
}

// Percentage charges rate * price.
func Percentage(rate float64) FeeSchedule {
	return FeeSchedule{Kind: FeePercentage, Value: rate}
}

// ProgressiveFlat charges fees[i] for prices below thresholds[i]. Pairs are walked in
// order and every match overwrites the result, so the last matching pair wins.
func ProgressiveFlat(thresholds, fees []float64) FeeSchedule {
	return FeeSchedule{
		Kind:       FeeProgressiveFlat,
		Thresholds: append([]float64(nil), thresholds...),
		Fees:       append([]float64(nil), fees...),
	}
}

// Calculate returns the fee for the given product price.
func (f FeeSchedule) Calculate(price float64) float64 {
	switch f.Kind {
	case FeePercentage:
		return f.Value * price
	case FeeProgressiveFlat:
		fee := 0.0
		n := min(len(f.Thresholds), len(f.Fees))
		for i := 0; i < n; i++ {
			if price < f.Thresholds[i] {
				fee = f.Fees[i]
			}
		}
		return fee
	default:
		return f.Value
	}
}

// Validate checks a schedule read from configuration or a request body.
func (f FeeSchedule) Validate() error {
	switch f.Kind {
	case "", FeeFlat, FeePercentage:
		return nil
	case FeeProgressiveFlat:
		if len(f.Thresholds) != len(f.Fees) {
			return &InvalidFieldError{
				Field:  "fee",
				Reason: fmt.Sprintf("%d thresholds but %d fees", len(f.Thresholds), len(f.Fees)),
			}
		}
		return nil
	default:
		return &InvalidFieldError{Field: "fee.kind", Value: string(f.Kind), Reason: "unknown fee kind"}
	}
}

// String renders the schedule for logs.
func (f FeeSchedule) String() string {
	switch f.Kind {
	case FeePercentage:
		return fmt.Sprintf("Percentage(%g)", f.Value)
	case FeeProgressiveFlat:
		return fmt.Sprintf("ProgressiveFlat(%v, %v)", f.Thresholds, f.Fees)
	default:
		return fmt.Sprintf("Flat(%g)", f.Value)
	}
}
