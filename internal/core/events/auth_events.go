package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserLoggedIn   = "auth.user_logged_in"
	EventTypeUserRegistered = "auth.user_registered"
	EventTypeTokensRevoked  = "auth.tokens_revoked"
	EventTypeRoleAssigned   = "rbac.role_assigned"
)

type UserLoggedInEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

func NewUserLoggedInEvent(userID int64, email, ipAddress, userAgent string) *UserLoggedInEvent {
	return &UserLoggedInEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserLoggedIn,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":    userID,
				"email":      email,
				"ip_address": ipAddress,
				"user_agent": userAgent,
			},
		},
		UserID:    userID,
		Email:     email,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

type UserRegisteredEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

func NewUserRegisteredEvent(userID int64, email string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserRegistered,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"email":   email,
			},
		},
		UserID: userID,
		Email:  email,
	}
}

type TokensRevokedEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Reason string `json:"reason"`
}

func NewTokensRevokedEvent(userID int64, reason string) *TokensRevokedEvent {
	return &TokensRevokedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTokensRevoked,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"reason":  reason,
			},
		},
		UserID: userID,
		Reason: reason,
	}
}

type RoleAssignedEvent struct {
	BaseEvent
	UserID int64 `json:"user_id"`
	RoleID int64 `json:"role_id"`
}

func NewRoleAssignedEvent(userID, roleID int64) *RoleAssignedEvent {
	return &RoleAssignedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRoleAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"role_id": roleID,
			},
		},
		UserID: userID,
		RoleID: roleID,
	}
}
