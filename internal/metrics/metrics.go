package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for the points protocols. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ledgerMovements  *prometheus.CounterVec
	ledgerPoints     *prometheus.CounterVec
	unknownCategory  *prometheus.CounterVec
	attachOutcomes   *prometheus.CounterVec
	pointsMerged     prometheus.Counter
	referralsAwarded prometheus.Counter
	conflictRetries  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ledgerMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_ledger_movements_total",
			Help: "Count of ledger records appended by category.",
		}, []string{"category"}),
		ledgerPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_ledger_points_total",
			Help: "Sum of absolute points moved by category and direction.",
		}, []string{"category", "direction"}),
		unknownCategory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_ledger_unknown_category_total",
			Help: "Ledger movements whose category fell back to the manual balance.",
		}, []string{"category"}),
		attachOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_attach_phone_total",
			Help: "Phone attach attempts by resulting status.",
		}, []string{"status"}),
		pointsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loyalty_merge_points_moved_total",
			Help: "Points transferred from superseded accounts during merges.",
		}),
		referralsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loyalty_referrals_awarded_total",
			Help: "Referral awards committed.",
		}),
		conflictRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_conflict_retries_total",
			Help: "Transactions re-run after a uniqueness conflict, by operation.",
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ledgerMovements,
			m.ledgerPoints,
			m.unknownCategory,
			m.attachOutcomes,
			m.pointsMerged,
			m.referralsAwarded,
			m.conflictRetries,
		)
	}
	return m
}

func (m *Metrics) ObserveLedgerMovement(category string, amount int64) {
	if m == nil {
		return
	}
	direction := "credit"
	if amount < 0 {
		direction = "debit"
		amount = -amount
	}
	m.ledgerMovements.WithLabelValues(category).Inc()
	m.ledgerPoints.WithLabelValues(category, direction).Add(float64(amount))
}

func (m *Metrics) ObserveUnknownCategory(category string) {
	if m == nil {
		return
	}
	m.unknownCategory.WithLabelValues(category).Inc()
}

func (m *Metrics) ObserveAttach(status string, merged int64) {
	if m == nil {
		return
	}
	m.attachOutcomes.WithLabelValues(status).Inc()
	if merged > 0 {
		m.pointsMerged.Add(float64(merged))
	}
}

func (m *Metrics) ObserveReferral() {
	if m == nil {
		return
	}
	m.referralsAwarded.Inc()
}

func (m *Metrics) ObserveConflictRetry(operation string) {
	if m == nil {
		return
	}
	m.conflictRetries.WithLabelValues(operation).Inc()
}
