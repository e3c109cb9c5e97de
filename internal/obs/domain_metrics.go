package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout attempts by terminal result
	// (completed, pending_action, declined, validation_failed, conflict, error).
	CheckoutTotal *prometheus.CounterVec
	// PaymentAuthorizeTotal counts gateway authorization outcomes.
	PaymentAuthorizeTotal *prometheus.CounterVec
	// PointsRedeemedTotal accumulates eco points redeemed across orders.
	PointsRedeemedTotal prometheus.Counter
	// PointsGrantedTotal accumulates eco points granted across orders.
	PointsGrantedTotal prometheus.Counter
	// ReferralBonusTotal counts referral bonuses granted.
	ReferralBonusTotal prometheus.Counter
	// OrderCarbonKg observes the total carbon footprint per completed order.
	OrderCarbonKg *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout invocations by terminal result.",
		}, []string{"result"}))
		PaymentAuthorizeTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_authorize_total",
			Help:      "Count of payment gateway authorization outcomes.",
		}, []string{"provider", "result"}))
		PointsRedeemedTotal = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eco_points_redeemed_total",
			Help:      "Total eco points redeemed against orders.",
		}))
		PointsGrantedTotal = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eco_points_granted_total",
			Help:      "Total eco points granted for completed orders.",
		}))
		ReferralBonusTotal = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "referral_bonus_total",
			Help:      "Count of referral bonuses granted to referrers.",
		}))
		OrderCarbonKg = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_carbon_kg",
			Help:      "Total carbon footprint of completed orders in kg CO2e.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100},
		}, []string{"zone"}))
	})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
