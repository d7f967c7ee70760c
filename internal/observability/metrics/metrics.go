package metrics

import "github.com/prometheus/client_golang/prometheus"

const serviceName = "vaanikaam"

// The service label is baked in at construction, so call sites take only the
// per-event labels and work before MustRegister has run.
var (
	HTTPRequestsTotal = counterVec(
		"http_requests_total",
		"Total number of HTTP requests.",
		"method", "path", "status",
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Duration of HTTP requests.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
		[]string{"method", "path"},
	)

	RegistrationsTotal = counterVec(
		"auth_registrations_total",
		"Total number of phone-verified registration attempts.",
		"result",
	)

	LoginsTotal = counterVec(
		"auth_logins_total",
		"Total number of password login attempts.",
		"result",
	)

	OtpIssuedTotal = counterVec(
		"auth_otp_issued_total",
		"Total number of OTP challenges issued.",
		"purpose",
	)

	OtpVerifiedTotal = counterVec(
		"auth_otp_verified_total",
		"Total number of OTP verification attempts.",
		"purpose", "outcome",
	)

	PasswordResetsTotal = counterVec(
		"auth_password_resets_total",
		"Total number of password reset attempts.",
		"result",
	)

	TokensIssuedTotal = counterVec(
		"auth_tokens_issued_total",
		"Total number of session tokens issued.",
		"flow", "result",
	)
)

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        name,
		Help:        help,
		ConstLabels: prometheus.Labels{"service": serviceName},
	}, labels)
}

func MustRegister() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		RegistrationsTotal,
		LoginsTotal,
		OtpIssuedTotal,
		OtpVerifiedTotal,
		PasswordResetsTotal,
		TokensIssuedTotal,
	)
}
