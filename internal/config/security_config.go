// config/security_config.go
package config

import "camrent-web/internal/domain"

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No session needed
	SecuritySession                      // A live session cookie is required
)

// RoutePolicy is the access rule for one named BFF route. Roles narrows a
// session route to the dashboards that offer the action; an empty list
// admits any signed-in role. The backend re-checks everything.
type RoutePolicy struct {
	Level SecurityLevel
	Roles []domain.Role
}

var (
	staffDesk  = []domain.Role{domain.RoleStaff, domain.RoleManager, domain.RoleOwner}
	management = []domain.Role{domain.RoleManager, domain.RoleOwner}
)

// RouteSecurity maps BFF route names to their policy.
var RouteSecurity = map[string]RoutePolicy{
	// Public
	"healthz": {Level: SecurityPublic},
	"metrics": {Level: SecurityPublic},
	"login":   {Level: SecurityPublic},

	// Session
	"logout":  {Level: SecuritySession},
	"session": {Level: SecuritySession},
	"cart":    {Level: SecuritySession},

	// Bookings
	"bookings.list":     {Level: SecuritySession},
	"bookings.get":      {Level: SecuritySession},
	"bookings.assign":   {Level: SecuritySession, Roles: staffDesk},
	"bookings.contract": {Level: SecuritySession, Roles: management},
	"bookings.complete": {Level: SecuritySession, Roles: staffDesk},

	// Inspections
	"inspections.list":   {Level: SecuritySession},
	"inspections.create": {Level: SecuritySession, Roles: staffDesk},
	"branches.list":      {Level: SecuritySession},
	"staff.list":         {Level: SecuritySession, Roles: staffDesk},

	// Disputes
	"disputes.byBooking": {Level: SecuritySession},
	"disputes.get":       {Level: SecuritySession},
	"disputes.create":    {Level: SecuritySession, Roles: staffDesk},
	"disputes.addItem":   {Level: SecuritySession, Roles: staffDesk},
	"disputes.resolve":   {Level: SecuritySession, Roles: staffDesk},
	"disputes.reject":    {Level: SecuritySession, Roles: staffDesk},
}

// GetRoutePolicy returns the policy for a named route
func GetRoutePolicy(route string) RoutePolicy {
	if p, exists := RouteSecurity[route]; exists {
		return p
	}
	// Default to requiring a session for unknown routes
	return RoutePolicy{Level: SecuritySession}
}

// Allows reports whether role may call the route.
func (p RoutePolicy) Allows(role domain.Role) bool {
	if len(p.Roles) == 0 {
		return true
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
