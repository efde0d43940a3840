// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strconv"
	"strings"

	"github.com/mmiapp/mmiapp-tui/internal/auth"
)

// Paths of the screens that are not role dashboards.
const (
	PathDemandes      = "/demandes"
	PathNotifications = "/notifications"
	PathUpload        = "/demandes/nouvelle/eau-minerale"
	PathAdminGate     = "/admin/code"
	PathAdmin         = "/admin"
)

type screenID int

const (
	screenLogin screenID = iota
	screenDashboard
	screenDemandes
	screenDemande
	screenNotifications
	screenUpload
	screenAdminGate
	screenAdmin
)

func (s screenID) String() string {
	switch s {
	case screenLogin:
		return "login"
	case screenDashboard:
		return "dashboard"
	case screenDemandes:
		return "demandes"
	case screenDemande:
		return "demande"
	case screenNotifications:
		return "notifications"
	case screenUpload:
		return "upload"
	case screenAdminGate:
		return "admin-gate"
	case screenAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// route is a resolved path.
type route struct {
	id   screenID
	path string
	role int // dashboard owner
	item int // demande id
}

// resolve maps a path to a screen. Unknown paths resolve to login.
func resolve(router *auth.Router, path string) route {
	if path == router.LoginPath() {
		return route{id: screenLogin, path: path}
	}
	if role, ok := router.RoleFor(path); ok {
		return route{id: screenDashboard, path: path, role: role}
	}

	switch path {
	case PathDemandes:
		return route{id: screenDemandes, path: path}
	case PathNotifications:
		return route{id: screenNotifications, path: path}
	case PathUpload:
		return route{id: screenUpload, path: path}
	case PathAdminGate:
		return route{id: screenAdminGate, path: path}
	case PathAdmin:
		return route{id: screenAdmin, path: path}
	}

	if rest, ok := strings.CutPrefix(path, PathDemandes+"/"); ok {
		if id, err := strconv.Atoi(rest); err == nil && id > 0 {
			return route{id: screenDemande, path: path, item: id}
		}
	}
	return route{id: screenLogin, path: router.LoginPath()}
}

// demandePath returns the detail path of demande id.
func demandePath(id int) string {
	return PathDemandes + "/" + strconv.Itoa(id)
}

// requiredRoles lists the roles allowed on a screen. Empty means any
// signed-in user.
func (r route) requiredRoles() []int {
	switch r.id {
	case screenDashboard:
		return []int{r.role}
	case screenUpload:
		return []int{auth.RoleApplicant}
	case screenAdminGate, screenAdmin:
		return []int{auth.RoleSuperAdmin}
	}
	return nil
}

// protected reports whether the screen needs a valid session.
func (r route) protected() bool {
	return r.id != screenLogin
}
