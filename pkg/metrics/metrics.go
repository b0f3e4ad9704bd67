package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SharesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "familyvault", Name: "shares_created_total", Help: "Number of share grants created, by permission."},
		[]string{"permission"},
	)
	SharesRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "familyvault", Name: "shares_revoked_total", Help: "Number of share grants revoked by their owner."},
	)
	AuthzDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "familyvault", Name: "authz_decisions_total", Help: "Document access decisions by outcome and deny reason."},
		[]string{"outcome", "reason"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "familyvault", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "familyvault", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(SharesCreated)
	reg.MustRegister(SharesRevoked)
	reg.MustRegister(AuthzDecisions)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
