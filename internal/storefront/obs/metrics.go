// Package obs registers the Prometheus metrics for the auth subsystem.
package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_login_attempts_total",
			Help: "Login attempts by result (success, invalid, blocked, error).",
		},
		[]string{"result"},
	)

	otpIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_otp_issued_total",
			Help: "One-time passcodes issued by purpose.",
		},
		[]string{"purpose"},
	)

	otpVerified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_otp_verified_total",
			Help: "One-time passcode verification outcomes.",
		},
		[]string{"purpose", "result"},
	)

	blockNotifications = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_block_notifications_total",
			Help: "Blocked events fanned out to live status streams.",
		},
	)

	liveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_status_subscriptions",
			Help: "Currently open user-status stream subscriptions.",
		},
	)
)

// Init registers the metrics in the default registry. Call once at startup;
// the counters work unregistered, so tests can skip this.
func Init() {
	prometheus.MustRegister(
		loginAttempts,
		otpIssued,
		otpVerified,
		blockNotifications,
		liveSubscriptions,
	)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

func LoginAttempt(result string) { loginAttempts.WithLabelValues(result).Inc() }

func OTPIssued(purpose string) { otpIssued.WithLabelValues(purpose).Inc() }

func OTPVerified(purpose, result string) { otpVerified.WithLabelValues(purpose, result).Inc() }

func BlockNotified(n int) { blockNotifications.Add(float64(n)) }

func SubscriptionOpened() { liveSubscriptions.Inc() }

func SubscriptionClosed() { liveSubscriptions.Dec() }
