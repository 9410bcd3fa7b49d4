package medevac

import (
	"fmt"

	"github.com/warp/medevac-engine/generic"
)

// =============================================================================
// CABLE TRACKER - Business-day timing of funding cables
// =============================================================================

const (
	CableStatusNotApplicable = "N/A"
	CableStatusSent          = "Sent"
)

// Cable is the in/sent date pair of one funding stage.
type Cable struct {
	InDate   generic.TimePoint
	SentDate generic.TimePoint
}

// Status is "N/A" without an in date, "Sent" once sent, and otherwise the
// business days elapsed between the in date and today.
func (c Cable) Status(today generic.TimePoint) string {
	if c.InDate.IsZero() {
		return CableStatusNotApplicable
	}
	if c.SentDate.IsSet() {
		return CableStatusSent
	}
	return fmt.Sprintf("%d business days", generic.BusinessDaysBetween(c.InDate, today))
}

// ResponseTime is the business days from in to sent, or 0 until both are set.
func (c Cable) ResponseTime() int {
	if c.InDate.IsZero() || c.SentDate.IsZero() {
		return 0
	}
	return generic.BusinessDaysBetween(c.InDate, c.SentDate)
}

// ActiveCable picks the cable of the latest stage that has been received:
// the last extension, then the amendment, then initial funding. A stage
// without an in date is skipped.
func ActiveCable(r *CaseRecord) Cable {
	if ext := r.LastExtension(); ext != nil && ext.FundingCableInDate.IsSet() {
		return Cable{InDate: ext.FundingCableInDate, SentDate: ext.FundingCableOutDate}
	}
	if a := r.Amendment(); a != nil && a.CableInDate.IsSet() {
		return Cable{InDate: a.CableInDate, SentDate: a.CableSentDate}
	}
	return Cable{InDate: r.FundingCableInDate, SentDate: r.FundingCableSentDate}
}
