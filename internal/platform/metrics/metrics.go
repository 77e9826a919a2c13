package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Logins           *prometheus.CounterVec
	TokenRefreshes   *prometheus.CounterVec
	PermissionChecks *prometheus.CounterVec
	ArticlesCreated  prometheus.Counter
	ImagesUploaded   prometheus.Counter
}

// New creates all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics on the given registerer. Tests pass a fresh
// registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_token_refreshes_total",
			Help: "Refresh token rotations by result",
		}, []string{"result"}),
		PermissionChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_permission_checks_total",
			Help: "Permission graph checks by decision",
		}, []string{"decision"}),
		ArticlesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_articles_created_total",
			Help: "Total number of articles created",
		}),
		ImagesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_images_uploaded_total",
			Help: "Total number of images uploaded to object storage",
		}),
	}
}
