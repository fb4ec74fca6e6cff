package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestAuthorizeTable(t *testing.T) {
	for _, rule := range RouteRules() {
		route := rule.Route
		if len(route) > 2 && route[len(route)-2:] == "/*" {
			route = route[:len(route)-2] + "/TCK-2025-0001"
		}
		for _, role := range domain.Roles {
			got := Authorize(route, role)
			if rule.blocks(role) {
				assert.Equal(t, Redirect(rule.Redirect), got, "%s as %s", route, role)
			} else {
				assert.Equal(t, Allow(), got, "%s as %s", route, role)
			}
		}
		assert.Equal(t, Redirect(LoginRoute), Authorize(route, ""), "%s unauthenticated", route)
	}
}

func TestAuthorizeExamples(t *testing.T) {
	cases := []struct {
		route string
		role  domain.Role
		want  Decision
	}{
		{"/dashboard", domain.RoleAdmin, Redirect("/admin")},
		{"/dashboard", domain.RoleNurse, Allow()},
		{"/my-tickets", domain.RoleIT, Redirect("/admin")},
		{"/submit-ticket", domain.RoleIT, Redirect("/dashboard")},
		{"/submit-ticket", domain.RoleDoctor, Allow()},
		{"/open-tickets", domain.RoleIT, Allow()},
		{"/open-tickets", domain.RoleAdmin, Redirect("/dashboard")},
		{"/admin", domain.RoleIT, Redirect("/dashboard")},
		{"/admin/", domain.RoleAdmin, Allow()},
		{"/admin?tab=users", domain.RoleStaff, Redirect("/dashboard")},
		{"/ticket/abc", domain.RoleStaff, Allow()},
		{"/ticket/abc", "", Redirect(LoginRoute)},
		{"/protected/x/y", "", Redirect(LoginRoute)},
		{"/login", "", Allow()},
		{"/unknown", domain.RoleNurse, Allow()},
		{"/unknown", "", Allow()},
		{"/tickets", "", Allow()},
	}
	for _, tc := range cases {
		t.Run(tc.route+"/"+string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.want, Authorize(tc.route, tc.role))
		})
	}
}

func TestProtectedRoutesMirrorTable(t *testing.T) {
	routes := ProtectedRoutes()
	assert.Len(t, routes, len(RouteRules()))
	assert.Contains(t, routes, "/ticket/*")
}
