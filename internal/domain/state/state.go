package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Module partitions cases and their state graphs.
type Module string

const (
	ModuleComplaint Module = "COMPLAINT"
	ModuleDispatch  Module = "DISPATCH"
)

// InitialStateName is the state every case starts in.
const InitialStateName = "RECEIVED"

// Modules lists every known module.
func Modules() []Module {
	return []Module{ModuleComplaint, ModuleDispatch}
}

// ParseModule converts a raw module name, ignoring case.
func ParseModule(raw string) (Module, error) {
	m := Module(strings.ToUpper(strings.TrimSpace(raw)))
	switch m {
	case ModuleComplaint, ModuleDispatch:
		return m, nil
	default:
		return "", fmt.Errorf("unknown module %q", raw)
	}
}

// NormalizeName canonicalizes a state name for storage and lookup.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// SameName compares state names the way the engine does.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// State is a node of a module's transition graph.
type State struct {
	ID        int64     `json:"id"`
	Module    Module    `json:"module"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transition is a permitted move between two states of the same module.
type Transition struct {
	ID          int64  `json:"id"`
	Module      Module `json:"module"`
	FromStateID int64  `json:"fromStateId"`
	ToStateID   int64  `json:"toStateId"`
}

// HistoryEntry records that a case entered a state. Entries are never
// updated or deleted; the newest one is the case's current state.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	EntryID   uuid.UUID `json:"entryId"`
	Module    Module    `json:"module"`
	CaseID    int64     `json:"caseId"`
	StateID   int64     `json:"stateId"`
	StateName string    `json:"stateName"`
	Reason    string    `json:"reason"`
	ActorID   *int64    `json:"actorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewHistoryEntry builds an entry for st stamped with at.
func NewHistoryEntry(caseID int64, st *State, reason string, actorID *int64, at time.Time) *HistoryEntry {
	return &HistoryEntry{
		EntryID:   uuid.New(),
		Module:    st.Module,
		CaseID:    caseID,
		StateID:   st.ID,
		StateName: st.Name,
		Reason:    reason,
		ActorID:   actorID,
		CreatedAt: at.UTC(),
	}
}

// Newer reports whether e sorts before other in descending history order.
func (e *HistoryEntry) Newer(other *HistoryEntry) bool {
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.After(other.CreatedAt)
	}
	return e.ID > other.ID
}

// NoStateName keys cases without any history entry in per-state counts.
const NoStateName = "NO_STATE"

// Period bounds case creation time. Nil bounds are open and both bounds
// are inclusive.
type Period struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside p.
func (p Period) Contains(t time.Time) bool {
	if p.From != nil && t.Before(*p.From) {
		return false
	}
	if p.To != nil && t.After(*p.To) {
		return false
	}
	return true
}
