package worker

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Role represents a worker role.
type Role string

const (
	RoleCaseworker Role = "CASEWORKER"
	RoleDirector   Role = "DIRECTOR"
	RoleClerk      Role = "CLERK"
)

// Status represents worker status.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Zone values used by the municipality.
const (
	ZoneUrban    = "URBAN"
	ZoneOutlying = "OUTLYING"
)

// Worker is a municipal staff member who can receive cases.
type Worker struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	Zone      *string   `json:"zone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (w *Worker) IsActive() bool {
	return w.Status == StatusActive
}

func (w *Worker) IsCaseworker() bool {
	return w.Role == RoleCaseworker
}

// Assignable reports whether w may receive cases, by batch or by hand.
func (w *Worker) Assignable() bool {
	return w.IsActive() && w.IsCaseworker()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email is not a valid address")
	}
	return nil
}

func ValidateRole(role Role) error {
	switch role {
	case RoleCaseworker, RoleDirector, RoleClerk:
		return nil
	default:
		return errors.New("invalid role")
	}
}

func ValidateStatus(status Status) error {
	switch status {
	case StatusActive, StatusInactive:
		return nil
	default:
		return errors.New("invalid status")
	}
}

func ValidateZone(zone string) error {
	switch zone {
	case ZoneUrban, ZoneOutlying:
		return nil
	default:
		return errors.New("invalid zone")
	}
}
