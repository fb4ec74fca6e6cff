package auth

import (
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LoginRoute is where unauthenticated navigation is sent.
const LoginRoute = "/login"

// Decision is the outcome of evaluating the route table.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Target  string `json:"target,omitempty"`
}

// Allow permits the navigation.
func Allow() Decision { return Decision{Allowed: true} }

// Redirect sends the caller elsewhere.
func Redirect(target string) Decision { return Decision{Target: target} }

// RouteRule lists the roles blocked from a route and where they are sent.
type RouteRule struct {
	Route    string
	Blocked  []domain.Role
	Redirect string
}

func (r RouteRule) blocks(role domain.Role) bool {
	for _, b := range r.Blocked {
		if b == role {
			return true
		}
	}
	return false
}

// Prefix rules end with "/*" and match the route itself and everything below it.
var routeRules = []RouteRule{
	{Route: "/dashboard", Blocked: []domain.Role{domain.RoleAdmin}, Redirect: "/admin"},
	{Route: "/my-tickets", Blocked: []domain.Role{domain.RoleAdmin, domain.RoleIT}, Redirect: "/admin"},
	{Route: "/submit-ticket", Blocked: []domain.Role{domain.RoleIT}, Redirect: "/dashboard"},
	{Route: "/open-tickets", Blocked: []domain.Role{domain.RoleAdmin, domain.RoleDoctor, domain.RoleNurse, domain.RoleStaff}, Redirect: "/dashboard"},
	{Route: "/system-status", Blocked: []domain.Role{domain.RoleAdmin, domain.RoleDoctor, domain.RoleNurse, domain.RoleStaff}, Redirect: "/dashboard"},
	{Route: "/my-assigned-tickets", Blocked: []domain.Role{domain.RoleDoctor, domain.RoleNurse, domain.RoleStaff}, Redirect: "/dashboard"},
	{Route: "/admin", Blocked: []domain.Role{domain.RoleDoctor, domain.RoleNurse, domain.RoleStaff, domain.RoleIT}, Redirect: "/dashboard"},
	{Route: "/ticket/*"},
	{Route: "/protected/*"},
}

// RouteRules returns a copy of the static table.
func RouteRules() []RouteRule {
	out := make([]RouteRule, len(routeRules))
	copy(out, routeRules)
	return out
}

// ProtectedRoutes lists the route patterns the page gate intercepts.
func ProtectedRoutes() []string {
	out := make([]string, 0, len(routeRules))
	for _, rule := range routeRules {
		out = append(out, rule.Route)
	}
	return out
}

// Authorize evaluates the route table. An empty role means unauthenticated.
func Authorize(route string, role domain.Role) Decision {
	rule, protected := lookupRule(normalizeRoute(route))
	if !protected {
		return Allow()
	}
	if role == "" {
		return Redirect(LoginRoute)
	}
	if rule.blocks(role) {
		return Redirect(rule.Redirect)
	}
	return Allow()
}

func lookupRule(route string) (RouteRule, bool) {
	for _, rule := range routeRules {
		if prefix, ok := strings.CutSuffix(rule.Route, "/*"); ok {
			if route == prefix || strings.HasPrefix(route, prefix+"/") {
				return rule, true
			}
			continue
		}
		if route == rule.Route {
			return rule, true
		}
	}
	return RouteRule{}, false
}

func normalizeRoute(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	route = strings.TrimSpace(route)
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
	}
	return strings.ToLower(route)
}
