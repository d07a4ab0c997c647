package goSessions

import "context"

// UserRecord is the full account record returned by [UserProvider]. It is
// the only type in the public API that carries the password hash, and it
// never crosses an Engine boundary outward.
type UserRecord struct {
	UserID       string
	Email        string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    int64
	UpdatedAt    int64
}

// Identity is the credential-free projection of a [UserRecord]. Every Engine
// operation that reports an authenticated user returns an Identity; the
// password hash has no field to leak through.
type Identity struct {
	UserID   string
	Email    string
	Username string
	Role     string
}

// AuthToken is the token pair material returned to callers after authorize
// and refresh. The session token itself stays server-side in the session
// blob; callers only see the access token and its expiry.
type AuthToken struct {
	AccessToken string `json:"at"`
	ExpiresAt   int64  `json:"at_expiry"`
}

// LoginResult is returned by [Engine.Login], [Engine.Register], and
// [Engine.Refresh].
type LoginResult struct {
	Identity  Identity
	SessionID string
	Token     AuthToken
}

// RegisterRequest is the input for [Engine.Register]. Role defaults to
// [AccountConfig.DefaultRole] when empty.
type RegisterRequest struct {
	Email    string
	Username string
	Password string
	Role     string
}

// UserProvider is the interface that callers must implement to integrate
// goSessions with their user database.
//
// GetUserByEmail and GetUserByID return [ErrUserNotFound] for unknown users.
// CreateUser returns [ErrProviderDuplicateIdentifier] when the email or
// username is already taken.
//
//	Docs: docs/engine.md, docs/usage.md
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
}

// CreateUserInput is the input for [UserProvider.CreateUser].
type CreateUserInput struct {
	Email        string
	Username     string
	PasswordHash string
	Role         string
}

func (u UserRecord) identity() Identity {
	return Identity{
		UserID:   u.UserID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
	}
}
