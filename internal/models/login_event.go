package models

import "time"

// Login event results recorded for every login evaluation.
const (
	LoginEventSuccess       = "SUCCESS"
	LoginEventFail          = "FAIL"
	LoginEventLocked        = "LOCKED"
	LoginEventSuspended     = "SUSPENDED"
	LoginEventAutoUnsuspend = "AUTO_UNSUSPEND"
)

// LoginEvent is one row of the login audit trail.
type LoginEvent struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Result    string    `json:"result"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminLog records an administrative action against an account. The acting
// admin is always passed in explicitly by the caller.
type AdminLog struct {
	ID          int64     `json:"id"`
	AdminEmail  string    `json:"admin_email"`
	TargetEmail string    `json:"target_email"`
	Action      string    `json:"action"` // e.g. "SUSPEND", "CHANGE_ROLE", "FORCE_LOGOUT", "CLEAR_TOKENS"
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
