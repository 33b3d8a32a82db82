package bootstrap

import (
	"fmt"
	"io"
	"time"

	"github.com/kbukum/gotasks/observability"
)

// InfrastructureInfo describes a backing resource such as a database or listener.
type InfrastructureInfo struct {
	Name    string
	Type    string // e.g. "database", "server"
	Details string
	Port    int
}

// RouteInfo represents a registered HTTP route.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// ClientInfo represents an outbound dependency.
type ClientInfo struct {
	Name   string
	Target string
	Type   string // "http", etc.
}

// Summary collects what a service started with and renders it once ready.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
	routes          []RouteInfo
	clients         []ClientInfo
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackInfrastructure records a backing resource.
func (s *Summary) TrackInfrastructure(name, componentType, details string, port int) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name:    name,
		Type:    componentType,
		Details: details,
		Port:    port,
	})
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{Method: method, Path: path, Handler: handler})
}

// TrackClient records an outbound dependency.
func (s *Summary) TrackClient(name, target, clientType string) {
	s.clients = append(s.clients, ClientInfo{Name: name, Target: target, Type: clientType})
}

// Render writes the summary followed by the given health results.
func (s *Summary) Render(w io.Writer, health []observability.Health) {
	fmt.Fprintf(w, "\n🚀 %s %s started in %.2fs\n\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.infrastructure) > 0 {
		fmt.Fprintf(w, "📊 Infrastructure\n")
		for i, inf := range s.infrastructure {
			details := inf.Details
			if inf.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			fmt.Fprintf(w, "   %s %s [%s]: %s\n", branch(i, len(s.infrastructure)), inf.Name, inf.Type, details)
		}
	}

	if len(s.clients) > 0 {
		fmt.Fprintf(w, "\n🔌 Clients\n")
		for i, c := range s.clients {
			fmt.Fprintf(w, "   %s %s → %s (%s)\n", branch(i, len(s.clients)), c.Name, c.Target, c.Type)
		}
	}

	if len(s.routes) > 0 {
		fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", branch(i, len(s.routes)), r.Method, r.Path, r.Handler)
		}
	}

	if len(health) > 0 {
		fmt.Fprintf(w, "\n🏥 Health Check\n")
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = " (" + h.Message + ")"
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n", branch(i, len(health)), healthIcon(h.Status), h.Name, h.Status, msg)
		}
	}

	fmt.Fprintf(w, "\n")
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status observability.HealthStatus) string {
	switch status {
	case observability.HealthStatusUp:
		return "✅"
	case observability.HealthStatusDegraded:
		return "⚠️"
	case observability.HealthStatusDown:
		return "❌"
	default:
		return "❓"
	}
}
