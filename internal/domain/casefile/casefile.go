package casefile

import (
	"strings"
	"time"

	"github.com/querellas/casecore/internal/domain/state"
)

// Case is a complaint or a dispatch order. Its current state lives in the
// case history, never on the case itself.
type Case struct {
	ID               int64        `json:"id"`
	Module           state.Module `json:"module"`
	Reference        string       `json:"reference"`
	Address          string       `json:"address"`
	Description      string       `json:"description,omitempty"`
	Category         *string      `json:"category,omitempty"`
	Zone             *string      `json:"zone,omitempty"`
	AssignedWorkerID *int64       `json:"assignedWorkerId,omitempty"`
	AssignedByID     *int64       `json:"assignedById,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Assign points the case at workerID.
func (c *Case) Assign(workerID int64, assignedBy *int64, at time.Time) {
	c.AssignedWorkerID = &workerID
	c.AssignedByID = assignedBy
	c.UpdatedAt = at.UTC()
}

// Touch refreshes the last-updated timestamp.
func (c *Case) Touch(at time.Time) {
	c.UpdatedAt = at.UTC()
}

// TagFilter restricts a search to cases sharing the given tags. A nil tag
// matches anything.
type TagFilter struct {
	Category *string
	Zone     *string
}

// Matches reports whether c carries every tag set on f.
func (f TagFilter) Matches(c *Case) bool {
	if f.Category != nil && (c.Category == nil || *c.Category != *f.Category) {
		return false
	}
	if f.Zone != nil && (c.Zone == nil || *c.Zone != *f.Zone) {
		return false
	}
	return true
}

// SameAddress compares addresses after lowercasing both, like SQL lower().
// It is not Unicode case folding: "ſ" and "s" differ.
func SameAddress(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}

// WindowQuery selects cases of one module by address, tags and creation time.
// From and To are inclusive.
type WindowQuery struct {
	Module    state.Module
	Address   string
	Tags      TagFilter
	From      time.Time
	To        time.Time
	ExcludeID int64
}

// Matches applies the query predicate to a single case.
func (q WindowQuery) Matches(c *Case) bool {
	if c.ID == q.ExcludeID || c.Module != q.Module {
		return false
	}
	if !SameAddress(c.Address, q.Address) {
		return false
	}
	if c.CreatedAt.Before(q.From) || c.CreatedAt.After(q.To) {
		return false
	}
	return q.Tags.Matches(c)
}
