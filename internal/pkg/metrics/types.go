package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry defines the interface for metrics collection
type Registry interface {
	// HTTP Metrics
	RecordHTTPRequest(method, path, statusCode string, duration float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()

	// Link Metrics
	IncLinksCreated(custom bool)
	IncLinksResolved()
	IncLinkLookupFailures(reason string)

	// Prometheus-specific methods
	GetRegistry() *prometheus.Registry
	GetHandler() http.Handler
}

// NoOpRegistry provides a no-op implementation for when metrics are disabled
type NoOpRegistry struct{}

func NewNoOpRegistry() Registry {
	return &NoOpRegistry{}
}

func (n *NoOpRegistry) RecordHTTPRequest(method, path, statusCode string, duration float64) {}
func (n *NoOpRegistry) IncHTTPRequestsInFlight()                                            {}
func (n *NoOpRegistry) DecHTTPRequestsInFlight()                                            {}
func (n *NoOpRegistry) IncLinksCreated(custom bool)                                         {}
func (n *NoOpRegistry) IncLinksResolved()                                                   {}
func (n *NoOpRegistry) IncLinkLookupFailures(reason string)                                 {}
func (n *NoOpRegistry) GetRegistry() *prometheus.Registry                                   { return nil }
func (n *NoOpRegistry) GetHandler() http.Handler                                            { return nil }

// Common label names as constants
const (
	LabelMethod     = "method"
	LabelPath       = "path"
	LabelStatusCode = "status_code"
	LabelCodeKind   = "code_kind"
	LabelReason     = "reason"
)

// Label values for code_kind and reason.
const (
	CodeKindCustom    = "custom"
	CodeKindGenerated = "generated"

	ReasonNotFound = "not_found"
	ReasonExpired  = "expired"
)
