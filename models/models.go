package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report represents a citizen-submitted issue report
type Report struct {
	ID         int64      `json:"id"`
	Location   string     `json:"location"`
	Photo      string     `json:"photo,omitempty"`
	UserID     int64      `json:"user_id"`
	Status     Status     `json:"status_id"`
	Comment    string     `json:"comment,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Categories []Category `json:"categories,omitempty"`
}

// StatusLabel returns the user-facing label of the report's current status
func (r *Report) StatusLabel() string {
	return r.Status.Label()
}

// Category is seeded reference data for report classification
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"category"`
}

// ReportDetail is the optional one-to-one technical extension of a report,
// created by admins/curators at most once per report
type ReportDetail struct {
	ID                   int64               `json:"id"`
	ReportID             int64               `json:"report_id"`
	TechnicalDescription string              `json:"technical_description,omitempty"`
	Priority             string              `json:"priority"`
	ResolutionNotes      string              `json:"resolution_notes,omitempty"`
	EstimatedCost        decimal.NullDecimal `json:"estimated_cost,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// Report detail priorities
const (
	PriorityLow    = "baixa"
	PriorityMedium = "media"
	PriorityHigh   = "alta"
)

// ValidPriority reports whether p is a known report detail priority
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// User represents a registered user. Points is a derived value, recomputed
// from the user's reports and never edited directly.
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Telephone string    `json:"telephone,omitempty"`
	Role      Role      `json:"role_id"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeviceToken is a push notification destination registered by a user.
// Only active tokens are eligible notification targets.
type DeviceToken struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Token      string     `json:"token"`
	Platform   string     `json:"platform"`
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// UpdateReportRequest carries the mutable fields of an existing report
type UpdateReportRequest struct {
	Location    *string `json:"location"`
	Comment     *string `json:"comment"`
	CategoryIDs []int64 `json:"category_id"`
}

// UpdateStatusRequest carries a requested status transition
type UpdateStatusRequest struct {
	StatusID int64 `json:"status_id" binding:"required"`
}

// CreateReportDetailRequest carries the fields of a new report detail
type CreateReportDetailRequest struct {
	TechnicalDescription string              `json:"technical_description"`
	Priority             string              `json:"priority"`
	ResolutionNotes      string              `json:"resolution_notes"`
	EstimatedCost        decimal.NullDecimal `json:"estimated_cost"`
}

// UpdateReportDetailRequest carries partial updates to a report detail
type UpdateReportDetailRequest struct {
	TechnicalDescription *string              `json:"technical_description"`
	Priority             *string              `json:"priority"`
	ResolutionNotes      *string              `json:"resolution_notes"`
	EstimatedCost        *decimal.NullDecimal `json:"estimated_cost"`
}

// RegisterDeviceTokenRequest registers or refreshes a push token
type RegisterDeviceTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=android ios"`
}

// DeviceTokenRequest names an existing push token
type DeviceTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterRequest carries the fields of a new user account
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Telephone string `json:"telephone"`
	Password  string `json:"password" binding:"required,min=8"`
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	RoleID int64 `json:"role_id" binding:"required"`
}
