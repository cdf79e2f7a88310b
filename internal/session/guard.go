package session

// Guard makes route-level authorization decisions from the session store.
// The decisions are a UX convenience only; the backend independently
// enforces authorization on every call.
type Guard struct {
	store *Store
}

// NewGuard creates a guard reading the given store.
func NewGuard(store *Store) *Guard {
	return &Guard{store: store}
}

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed    bool
	RedirectTo string
	// ClearSession is set when an expired or half-written session was
	// detected and should be wiped before redirecting.
	ClearSession bool
}

// RequireAuth gates routes that need any authenticated user. An absent or
// expired token clears the session and redirects to the login route.
func (g *Guard) RequireAuth() Decision {
	snap := g.store.Current()
	switch snap.State {
	case Authenticated:
		return Decision{Allowed: true}
	case Expired:
		return Decision{RedirectTo: "/login", ClearSession: true}
	default:
		return Decision{RedirectTo: "/login"}
	}
}

// RequireStaff gates admin/moderator routes. Authenticated non-staff users
// are sent back to the home route rather than login.
func (g *Guard) RequireStaff() Decision {
	auth := g.RequireAuth()
	if !auth.Allowed {
		return auth
	}
	if !g.store.Roles().HasStaff() {
		return Decision{RedirectTo: "/"}
	}
	return Decision{Allowed: true}
}

// RequireAdmin gates admin-only routes.
func (g *Guard) RequireAdmin() Decision {
	auth := g.RequireAuth()
	if !auth.Allowed {
		return auth
	}
	if !g.store.Roles().HasAdmin() {
		return Decision{RedirectTo: "/"}
	}
	return Decision{Allowed: true}
}
