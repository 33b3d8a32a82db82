package server

import (
	"sort"
	"strings"

	"github.com/kbukum/gotasks/logger"
)

// systemPaths are the routes registered by RegisterDefaultEndpoints.
var systemPaths = map[string]bool{
	"/health": true,
	"/info":   true,
}

// Route is a registered endpoint as shown in the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// Routes returns all registered routes: API routes first by path, then
// system routes.
func (s *Server) Routes() []Route {
	ginRoutes := s.engine.Routes()
	sort.Slice(ginRoutes, func(i, j int) bool {
		iSys := systemPaths[ginRoutes[i].Path]
		jSys := systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if ginRoutes[i].Path != ginRoutes[j].Path {
			return ginRoutes[i].Path < ginRoutes[j].Path
		}
		return methodOrder(ginRoutes[i].Method) < methodOrder(ginRoutes[j].Method)
	})

	routes := make([]Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: formatHandlerName(r.Handler),
		})
	}
	return routes
}

// LogRoutes writes one debug line per registered route.
func (s *Server) LogRoutes() {
	for _, r := range s.Routes() {
		s.log.Debug("Route registered", map[string]interface{}{
			"method":         r.Method,
			logger.FieldPath: r.Path,
			"handler":        r.Handler,
		})
	}
}

// formatHandlerName shortens Gin's handler names:
// "github.com/kbukum/gotasks/task.(*Handler).Create-fm" becomes "Handler.Create".
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")

	// Closures: "endpoint.Health.func1" -> "health"
	if strings.Contains(name, ".func") {
		parts := strings.Split(name, ".")
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				return strings.ToLower(parts[i])
			}
		}
	}

	if pkg, rest, ok := strings.Cut(name, "."); ok && rest != "" && strings.ToLower(pkg) == pkg {
		name = rest
	}
	return name
}

// methodOrder returns a sort key for HTTP methods (GET first, DELETE last).
func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
