package identity

import (
	"github.com/memberportal/backend/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type name used in events
const AggregateTypeUser = "User"

const (
	EventTypeUserRegistered    = "UserRegistered"
	EventTypeUserStatusChanged = "UserStatusChanged"
)

// UserRegisteredEvent is published when a member signs up
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email    string `json:"email"`
	Username string `json:"username"`
}

func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID, u.TenantID),
		Email:           u.Email,
		Username:        u.Username,
	}
}

// UserStatusChangedEvent is published when an admin suspends or reactivates a user
type UserStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus UserStatus `json:"old_status"`
	NewStatus UserStatus `json:"new_status"`
}

func NewUserStatusChangedEvent(u *User, old UserStatus) *UserStatusChangedEvent {
	return &UserStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserStatusChanged, AggregateTypeUser, u.ID, u.TenantID),
		OldStatus:       old,
		NewStatus:       u.Status,
	}
}
