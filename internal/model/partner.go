package model

import (
	"time"

	"github.com/google/uuid"
)

// ManualStatus is the persisted manual open/closed override.
// Rows imported without the flag are ManualUnset.
type ManualStatus int

const (
	ManualUnset ManualStatus = iota
	ManualOpen
	ManualClosed
)

// ManualStatusOf maps a boolean flag to its explicit status.
func ManualStatusOf(open bool) ManualStatus {
	if open {
		return ManualOpen
	}
	return ManualClosed
}

func (s ManualStatus) String() string {
	switch s {
	case ManualOpen:
		return "open"
	case ManualClosed:
		return "closed"
	default:
		return "unset"
	}
}

// Partner is a restaurant account.
type Partner struct {
	ID        uuid.UUID
	Name      string
	Manual    ManualStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ManuallyOpen collapses the manual status to a boolean; unset reads as open.
func (p *Partner) ManuallyOpen() bool {
	return p.Manual != ManualClosed
}
