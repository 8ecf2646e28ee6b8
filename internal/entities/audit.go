package entities

import "time"

type AuditEventType string

const (
	AuditEventAuth AuditEventType = "auth"
)

// Auth audit actions
const (
	AuditActionSignUp  = "sign_up"
	AuditActionSignIn  = "sign_in"
	AuditActionSignOut = "sign_out"
	AuditActionRevoke  = "revoke_sessions"
	AuditActionDisable = "disable_account"
	AuditActionEnable  = "enable_account"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    string         `gorm:"index;size:128" json:"user_id,omitempty"`
	Email     string         `gorm:"index;size:255" json:"email,omitempty"`
	EventType AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action    string         `gorm:"size:100" json:"action"` // e.g., "sign_in", "sign_up"
	IPAddress string         `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string         `gorm:"size:500" json:"user_agent,omitempty"`
	Status    AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg  string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
