package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del orquestador y del gate. Viven en un paquete aparte para que
// manager y authz no dependan de los paquetes HTTP.

var (
	// Inconsistencies cuenta operaciones donde el provider cambió y el store local no.
	Inconsistencies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "manager_inconsistency_total",
		Help: "Operaciones con el identity provider aplicado y el store local fallido",
	}, []string{"op"})

	// ProviderCallDuration mide las llamadas al identity provider.
	ProviderCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "manager_idp_call_duration_seconds",
		Help:    "Latencia de las llamadas al identity provider",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "result"})

	// AuthzDecisions cuenta decisiones del gate por superficie y resultado.
	AuthzDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "manager_authz_decisions_total",
		Help: "Decisiones del gate de autorización",
	}, []string{"surface", "result"}) // result: allow|deny

	// RateLimited cuenta requests rechazados por rate limit.
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "manager_rate_limited_total",
		Help: "Requests rechazados por el rate limiter",
	})
)

// Register registra las métricas en el registry dado (o el default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{Inconsistencies, ProviderCallDuration, AuthzDecisions, RateLimited} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// ObserveProviderCall registra la latencia de una llamada al provider.
func ObserveProviderCall(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ProviderCallDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}

// RecordAuthz registra una decisión del gate.
func RecordAuthz(surface string, allowed bool) {
	result := "deny"
	if allowed {
		result = "allow"
	}
	AuthzDecisions.WithLabelValues(surface, result).Inc()
}
