package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			// Enable OpenMetrics format for better compatibility
			EnableOpenMetrics: true,

			// Continue serving metrics even if some collectors fail
			ErrorHandling: promhttp.ContinueOnError,
		},
	)
}
