package goSessions

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventRegisterSuccess    = "register_success"
	auditEventRegisterFailure    = "register_failure"
	auditEventRegisterDuplicate  = "register_duplicate"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshInvalid     = "refresh_invalid"
	auditEventRefreshReuse       = "refresh_reuse_detected"
	auditEventSessionCreated     = "session_created"
	auditEventSessionInvalidated = "session_invalidated"
	auditEventLogoutSession      = "logout_session"
)

// AuditErrorCode defines a public type used by goSessions APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRefreshReuse       AuditErrorCode = "refresh_reuse"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrTokenNotActive     AuditErrorCode = "token_not_active"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrSessionCreation    AuditErrorCode = "session_creation_failed"
	auditErrCreationDisabled   AuditErrorCode = "account_creation_disabled"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["user_agent"] = ua
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrRefreshReuse):
		return auditErrRefreshReuse
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenNotActive):
		return auditErrTokenNotActive
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrAccountExists), errors.Is(err, ErrProviderDuplicateIdentifier):
		return auditErrDuplicate
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreation
	case errors.Is(err, ErrAccountCreationDisabled):
		return auditErrCreationDisabled
	default:
		return auditErrInternal
	}
}
