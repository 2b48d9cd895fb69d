package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_registrations_total",
			Help: "Total number of registration attempts.",
		},
		[]string{"result"},
	)

	ActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_activations_total",
			Help: "Total number of account activation attempts.",
		},
		[]string{"result"},
	)

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_tokens_issued_total",
			Help: "Total number of tokens issued, by flow.",
		},
		[]string{"flow", "result"},
	)

	GuardChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_guard_checks_total",
			Help: "Total number of authenticated request checks.",
		},
		[]string{"result"},
	)

	EmailsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_emails_sent_total",
			Help: "Total number of transactional emails sent.",
		},
		[]string{"template", "result"},
	)
)

var registerOnce sync.Once

// MustRegister exposes all collectors on the default registry with a constant service label.
func MustRegister(serviceName string) {
	registerOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer)
		reg.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			RegistrationsTotal,
			ActivationsTotal,
			LoginsTotal,
			TokensIssuedTotal,
			GuardChecksTotal,
			EmailsSentTotal,
		)
	})
}

func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
