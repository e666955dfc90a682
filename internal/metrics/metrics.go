package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for declaration routing and review.
type Metrics struct {
	// Dispatches by outcome ("queued", "failed")
	Dispatches *prometheus.CounterVec

	// Declarations taken into review
	Fetches prometheus.Counter

	// Declarations sent back to a pending pool
	Requeues prometheus.Counter

	// Final verdicts by state ("APPROVED", "REJECTED")
	Verdicts *prometheus.CounterVec

	// Tax assessments by whether any field was corrected
	Assessments *prometheus.CounterVec

	// Assessed prices
	AssessedPrice prometheus.Histogram
}

// New registers every metric on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customs_declaration_dispatches_total",
			Help: "Total declarations dispatched to an office pool by outcome",
		}, []string{"outcome"}),

		Fetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "customs_declaration_fetches_total",
			Help: "Total declarations taken into review by an inspector",
		}),

		Requeues: factory.NewCounter(prometheus.CounterOpts{
			Name: "customs_declaration_requeues_total",
			Help: "Total declarations sent back from review to a pending pool",
		}),

		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customs_declaration_verdicts_total",
			Help: "Total finalized declarations by state",
		}, []string{"state"}),

		Assessments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customs_tax_assessments_total",
			Help: "Total tax assessments by whether corrections were found",
		}, []string{"corrected"}),

		AssessedPrice: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "customs_tax_assessment_price",
			Help:    "Distribution of assessed tax prices",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}),
	}
}

// IncrementDispatch records a dispatch outcome.
func (m *Metrics) IncrementDispatch(outcome string) {
	if m != nil {
		m.Dispatches.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementFetch() {
	if m != nil {
		m.Fetches.Inc()
	}
}

func (m *Metrics) IncrementRequeue() {
	if m != nil {
		m.Requeues.Inc()
	}
}

// IncrementVerdict records a finalized declaration by its terminal state.
func (m *Metrics) IncrementVerdict(state string) {
	if m != nil {
		m.Verdicts.WithLabelValues(state).Inc()
	}
}

// ObserveAssessment records an assessment and its price.
func (m *Metrics) ObserveAssessment(incorrectFields int, price float64) {
	if m == nil {
		return
	}
	corrected := "false"
	if incorrectFields > 0 {
		corrected = "true"
	}
	m.Assessments.WithLabelValues(corrected).Inc()
	m.AssessedPrice.Observe(price)
}
