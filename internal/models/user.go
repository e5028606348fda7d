// internal/models/user.go
package models

import "time"

// InteractionKind distinguishes entries in a user's recent history.
type InteractionKind string

const (
	InteractionView  InteractionKind = "view"
	InteractionSave  InteractionKind = "save"
	InteractionApply InteractionKind = "apply"
)

// InteractionEvent is one entry of the bounded recent-interaction history.
type InteractionEvent struct {
	Kind       InteractionKind `json:"kind"`
	JobID      string          `json:"jobId"`
	Categories []string        `json:"categories,omitempty"`
	Keywords   []string        `json:"keywords,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// UserProfile is the read-only per-user input to scoring. The engine never
// mutates it.
type UserProfile struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`

	DesiredCategories []string `json:"desiredCategories"`
	MinimumSalary     int      `json:"minimumSalary"`
	LocationCodes     []string `json:"locationCodes"`
	Skills            []string `json:"skills"`
	Keywords          []string `json:"keywords"`

	History []InteractionEvent `json:"history,omitempty"`
}

// ApplicationRecord marks one application a user submitted to a company.
// Consumed only by duplicate control.
type ApplicationRecord struct {
	UserID    string    `json:"userId"`
	CompanyID string    `json:"companyId"`
	AppliedAt time.Time `json:"appliedAt"`
}
