package quotes

import (
	"errors"
	"fmt"

	"github.com/flyttio/priskalk/internal/pricing"
)

// Status is the workflow state of a quote.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusViewed    Status = "viewed"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusConverted Status = "converted"
)

// legal workflow edges: draft→sent→viewed→accepted/declined→converted.
// A customer may accept or decline straight from sent (mail clients that
// block tracking never report viewed).
var transitions = map[Status][]Status{
	StatusDraft:    {StatusSent},
	StatusSent:     {StatusViewed, StatusAccepted, StatusDeclined},
	StatusViewed:   {StatusAccepted, StatusDeclined},
	StatusAccepted: {StatusConverted},
}

// ErrNotFound is returned when a quote id does not exist.
var ErrNotFound = errors.New("quote not found")

// ErrBadTransition is returned for a workflow edge that does not exist.
var ErrBadTransition = errors.New("illegal status transition")

// Quote is one persisted quote record. Breakdown is the authoritative price:
// it is written once at creation and read back verbatim, never recomputed.
type Quote struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"companyId"`
	Customer  string `json:"customer"`

	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`

	Request   pricing.QuoteRequest   `json:"request"`
	Breakdown pricing.PriceBreakdown `json:"breakdown"`

	Status    Status `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// ValidStatus reports whether s names a known workflow state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSent, StatusViewed, StatusAccepted, StatusDeclined, StatusConverted:
		return true
	}
	return false
}

// CanTransition reports whether the workflow allows moving from one status to
// another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func badTransition(from, to Status) error {
	return fmt.Errorf("%s -> %s: %w", from, to, ErrBadTransition)
}
