package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every metric the sidecar exports. Nil until InitRegistry.
var Registry *prometheus.Registry

// InitRegistry creates the registry with the Go runtime and process
// collectors. Call once at startup when metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func IsEnabled() bool {
	return Registry != nil
}

// NewRecorder returns a registered Collector when metrics are enabled, and
// Nop otherwise.
func NewRecorder() (Recorder, error) {
	if !IsEnabled() {
		return Nop{}, nil
	}
	c := NewCollector()
	if err := c.Register(Registry); err != nil {
		return nil, err
	}
	return c, nil
}
