package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Strategy      string  `json:"strategy"`
	CollectorType string  `json:"collector_type"`
	WriterType    string  `json:"writer_type"`
	Runs          int     `json:"runs"`
	LastRun       *Result `json:"last_run,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ServiceState{
		Strategy:      s.config.Strategy.String(),
		CollectorType: componentType(s.collector, "collector"),
		WriterType:    componentType(s.writer, "writer"),
		Runs:          s.runs,
		LastRun:       s.lastRun,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "sorter"
}

func componentType(v any, fallback string) string {
	if comp, ok := v.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return fallback
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
