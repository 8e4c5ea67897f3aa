// Package policy decides, for every navigation, whether a page may be rendered
// for the current identity or where the caller must be sent instead.
package policy

import (
	"strings"

	"github.com/myrewards/loyalty-system/internal/core/domain"
)

// PageClass groups pages by who may see them.
type PageClass string

const (
	Public            PageClass = "public"
	AuthenticatedUser PageClass = "authenticated"
	AdminOnly         PageClass = "admin"
)

type Action string

const (
	Render   Action = "render"
	Redirect Action = "redirect"
	// Loading means the identity is not resolved yet; show a placeholder and
	// ask again.
	Loading Action = "loading"
)

// Reason explains a Redirect.
type Reason string

const (
	ReasonSignInRequired Reason = "sign_in_required"
	ReasonAccessDenied   Reason = "access_denied"
	ReasonRoleHome       Reason = "role_home"
)

const (
	NoticeAuthRequired = "authentication required"
	NoticeAccessDenied = "access denied"
)

// Decision is the outcome of one navigation.
type Decision struct {
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
	Reason Reason `json:"reason,omitempty"`
	Notice string `json:"notice,omitempty"`
}

// Routes are the well-known destinations of redirects.
type Routes struct {
	SignIn string
	Home   string
	Admin  string
	// SignUp is the other public page besides SignIn.
	SignUp string
}

func DefaultRoutes() Routes {
	return Routes{SignIn: "/login", SignUp: "/signup", Home: "/", Admin: "/admin"}
}

type Resolver struct {
	routes Routes
}

func NewResolver(routes Routes) *Resolver {
	def := DefaultRoutes()
	if routes.SignIn == "" {
		routes.SignIn = def.SignIn
	}
	if routes.SignUp == "" {
		routes.SignUp = def.SignUp
	}
	if routes.Home == "" {
		routes.Home = def.Home
	}
	if routes.Admin == "" {
		routes.Admin = def.Admin
	}
	return &Resolver{routes: routes}
}

func (r *Resolver) Routes() Routes {
	return r.routes
}

// Resolve evaluates the navigation table for id visiting a page of class page.
// The admin capability is read from id.IsAdmin only, which the auth layer fills
// from the verified token claim.
func (r *Resolver) Resolve(id domain.Identity, page PageClass) Decision {
	switch {
	case id.State == domain.IdentityUnresolved:
		if page == Public {
			return Decision{Action: Render}
		}
		return Decision{Action: Loading}

	case !id.IsIdentified():
		if page == Public {
			return Decision{Action: Render}
		}
		d := Decision{Action: Redirect, Target: r.routes.SignIn, Reason: ReasonSignInRequired}
		if page == AdminOnly {
			d.Notice = NoticeAuthRequired
		}
		return d

	case id.IsAdmin:
		if page == AdminOnly {
			return Decision{Action: Render}
		}
		return Decision{Action: Redirect, Target: r.routes.Admin, Reason: ReasonRoleHome}

	default:
		switch page {
		case AuthenticatedUser:
			return Decision{Action: Render}
		case AdminOnly:
			return Decision{Action: Redirect, Target: r.routes.Home, Reason: ReasonAccessDenied, Notice: NoticeAccessDenied}
		default:
			return Decision{Action: Redirect, Target: r.routes.Home, Reason: ReasonRoleHome}
		}
	}
}

// Classify maps a front-end path to its page class.
func (r *Resolver) Classify(path string) PageClass {
	p := strings.TrimSuffix(path, "/")
	if p == "" {
		return AuthenticatedUser
	}
	if p == r.routes.SignIn || p == r.routes.SignUp {
		return Public
	}
	admin := strings.TrimSuffix(r.routes.Admin, "/")
	if p == admin || strings.HasPrefix(p, admin+"/") {
		return AdminOnly
	}
	return AuthenticatedUser
}
