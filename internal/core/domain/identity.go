package domain

// IdentityState is the authentication state of the caller of a request.
type IdentityState string

const (
	// IdentityUnresolved means the authentication check has not finished yet.
	IdentityUnresolved IdentityState = "unresolved"
	IdentityAnonymous  IdentityState = "anonymous"
	IdentityIdentified IdentityState = "identified"
)

// Identity is the explicit session value passed to every entry point.
// IsAdmin is only ever populated from a verified token claim.
type Identity struct {
	State   IdentityState `json:"state"`
	UserID  string        `json:"user_id,omitempty"`
	Email   string        `json:"email,omitempty"`
	IsAdmin bool          `json:"is_admin"`
}

func Unresolved() Identity {
	return Identity{State: IdentityUnresolved}
}

func Anonymous() Identity {
	return Identity{State: IdentityAnonymous}
}

func Identified(userID, email string, isAdmin bool) Identity {
	return Identity{State: IdentityIdentified, UserID: userID, Email: email, IsAdmin: isAdmin}
}

// IsIdentified reports whether the caller is signed in.
func (i Identity) IsIdentified() bool {
	return i.State == IdentityIdentified && i.UserID != ""
}

// ProfileStatus describes how complete the profile part of a Session is.
type ProfileStatus string

const (
	ProfileLoaded ProfileStatus = "ok"
	// ProfileMissing: the account exists but its profile document has not been
	// written (or synced) yet.
	ProfileMissing ProfileStatus = "missing"
	// ProfileUnavailable: the profile store could not be reached.
	ProfileUnavailable ProfileStatus = "unavailable"
)

// Session merges a verified identity with its (possibly absent) profile.
type Session struct {
	Identity      Identity      `json:"identity"`
	Profile       *UserProfile  `json:"profile,omitempty"`
	ProfileStatus ProfileStatus `json:"profile_status"`
}
