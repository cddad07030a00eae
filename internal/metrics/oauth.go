package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OAuth endpoint Prometheus metrics. These live in a standalone package to
// avoid import cycles between the engine and HTTP packages.

var (
	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_tokens_issued_total",
		Help: "Tokens emitidos por grant type",
	}, []string{"grant_type"})

	EndpointErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_endpoint_errors_total",
		Help: "Errores por endpoint y código de error OAuth",
	}, []string{"endpoint", "error"})

	EndpointLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oauth_endpoint_latency_ms",
		Help:    "Latencia de cada endpoint en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"endpoint"})

	TokensRevoked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_tokens_revoked_total",
		Help: "Tokens invalidados via RFC 7009",
	}, []string{"token_hint"})
)

// Register registers the oauth metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{TokensIssued, EndpointErrors, EndpointLatency, TokensRevoked} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
