package session

// Session defines a public type used by goSessions APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	SessionID string
	UserID    string
	Username  string

	// RefreshToken is the signed session token held server-side for the
	// refresh strategy. It never appears in responses to resource servers.
	RefreshToken string

	CreatedAt int64
	ExpiresAt int64
}
