// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"fmt"
	"sort"
	"strconv"
)

// Role ids as assigned by the backend.
const (
	RoleSuperAdmin       = 1
	RoleSecretary        = 2
	RoleGeneralSecretary = 3
	RoleDGI              = 4
	RoleDDPI             = 5
	RoleApplicant        = 6
)

// DefaultLoginPath is where failed checks send the user.
const DefaultLoginPath = "/login"

var roleNames = map[int]string{
	RoleSuperAdmin:       "Super administrateur",
	RoleSecretary:        "Secrétariat",
	RoleGeneralSecretary: "Secrétaire général",
	RoleDGI:              "DGI",
	RoleDDPI:             "DDPI",
	RoleApplicant:        "Demandeur",
}

// RoleName returns the display name of a role.
func RoleName(id int) string {
	if name, ok := roleNames[id]; ok {
		return name
	}
	return "Rôle " + strconv.Itoa(id)
}

// KnownRole reports whether id is a role the backend issues.
func KnownRole(id int) bool {
	_, ok := roleNames[id]
	return ok
}

// DefaultRoutes maps each role to its landing destination.
func DefaultRoutes() map[int]string {
	return map[int]string{
		RoleSuperAdmin:       "/superadmin",
		RoleSecretary:        "/secretariat",
		RoleGeneralSecretary: "/sg",
		RoleDGI:              "/dgi",
		RoleDDPI:             "/ddpi",
		RoleApplicant:        "/demandeur",
	}
}

// Router resolves where a user lands after login.
type Router struct {
	routes    map[int]string
	loginPath string
}

// NewRouter builds a router from the defaults with overrides applied.
// Overrides with an empty destination are ignored.
func NewRouter(loginPath string, overrides map[int]string) *Router {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	routes := DefaultRoutes()
	for id, dest := range overrides {
		if dest != "" {
			routes[id] = dest
		}
	}
	return &Router{routes: routes, loginPath: loginPath}
}

// Destination returns the landing destination for roleID.
// Unknown roles land on the login destination.
func (r *Router) Destination(roleID int) string {
	if dest, ok := r.routes[roleID]; ok {
		return dest
	}
	return r.loginPath
}

// LoginPath returns the login destination.
func (r *Router) LoginPath() string {
	return r.loginPath
}

// RoleFor returns the role whose landing destination is dest.
func (r *Router) RoleFor(dest string) (int, bool) {
	for id, d := range r.routes {
		if d == dest {
			return id, true
		}
	}
	return 0, false
}

// Routes returns the table sorted by role id, formatted for display.
func (r *Router) Routes() []string {
	ids := make([]int, 0, len(r.routes))
	for id := range r.routes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, fmt.Sprintf("%d %-22s %s", id, RoleName(id), r.routes[id]))
	}
	return out
}
