package auth

const (
	ScopeOpenID       = "openid"
	ScopeProfile      = "profile"
	ScopeEmail        = "email"
	ScopeCourseRead   = "courses:read"
	ScopeCourseWrite  = "courses:write"
	ScopeProgressSync = "progress:write"
)

// AllScopes defines the full set of scopes requested by the embedding page
// and API clients.
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
	ScopeCourseRead,
	ScopeCourseWrite,
	ScopeProgressSync,
}
