package goSessions

import "errors"

var (
	// ErrUnauthorized is an exported constant or variable used by the session engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the session engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is an exported constant or variable used by the session engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists is an exported constant or variable used by the session engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountCreationDisabled is an exported constant or variable used by the session engine.
	ErrAccountCreationDisabled = errors.New("account creation disabled")
	// ErrSessionNotFound is an exported constant or variable used by the session engine.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCreationFailed is an exported constant or variable used by the session engine.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrTokenInvalid is an exported constant or variable used by the session engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is an exported constant or variable used by the session engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenNotActive is an exported constant or variable used by the session engine.
	ErrTokenNotActive = errors.New("session token not active")
	// ErrRefreshReuse is an exported constant or variable used by the session engine.
	ErrRefreshReuse = errors.New("session token reuse detected")
	// ErrEngineNotReady is an exported constant or variable used by the session engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrProviderDuplicateIdentifier is an exported constant or variable used by the session engine.
	ErrProviderDuplicateIdentifier = errors.New("provider duplicate identifier")
)
