package contextkeys

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// AuthUserID is the context key for the authenticated user's external auth identifier.
	AuthUserID contextKey = "authUserID"
	// UserEmail is the context key for the authenticated user's email.
	UserEmail contextKey = "userEmail"
)
