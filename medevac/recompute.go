package medevac

import (
	"github.com/warp/medevac-engine/generic"
)

// =============================================================================
// RECOMPUTE ENGINE - Record in, derived fields out
// =============================================================================
//
// Recompute is called in full after every edit. It reads only the record it
// is given, copies nothing back into it, and returns the same output for the
// same (record, now, post table).

// Engine binds the read-only post table used for region lookup.
type Engine struct {
	posts *PostTable
}

func NewEngine(posts *PostTable) *Engine {
	return &Engine{posts: posts}
}

// Recompute derives every secondary field of the case. The only errors are
// contract violations in the record shape.
func (e *Engine) Recompute(r *CaseRecord, now generic.TimePoint) (DerivedFields, error) {
	if err := CheckContract(r); err != nil {
		return DerivedFields{}, err
	}

	var posts *PostTable
	if e != nil {
		posts = e.posts
	}

	funding := AggregateFunding(r)
	cable := ActiveCable(r)
	effective := EffectivePeriod(r)
	validation := Validate(r, funding.InitialFundingTotal)

	return DerivedFields{
		ObligationNumber:       r.ObligationNumber,
		MedevacStatus:          ResolveStatus(r),
		CableStatus:            cable.Status(now),
		EmployeeResponseTime:   cable.ResponseTime(),
		EffectiveStartDate:     effective.Start,
		EffectiveEndDate:       effective.End,
		CurrentMedevacLocation: CurrentMedevacLocation(r),
		Region:                 posts.Region(r.HomePost),
		NumberOfAmendments:     len(r.Amendments),
		ExtensionDuration:      ExtensionDuration(r, effective.End),

		TotalPerDiemPatient:    funding.TotalPerDiemPatient,
		InitialFundingTotal:    funding.InitialFundingTotal,
		ExtensionFundingTotals: funding.ExtensionFundingTotals,
		TotalExtensionFunding:  funding.TotalExtensionFunding,
		AmendmentFundingTotal:  funding.AmendmentFundingTotal,
		TotalObligation:        funding.TotalObligation,
		ClosedAmount:           funding.ClosedAmount,
		DeobligationAmount:     funding.DeobligationAmount,

		CompletionPercentage: validation.CompletionPercentage,
		MissingFields:        validation.Missing,
		Warnings:             validation.Warnings,
		IsValid:              validation.IsValid,
		CanSubmit:            validation.CanSubmit,
	}, nil
}

// Recompute runs the engine without a post table; Region is always "".
func Recompute(r *CaseRecord, now generic.TimePoint) (DerivedFields, error) {
	return (*Engine)(nil).Recompute(r, now)
}

// Merge returns a copy of the record with the derived per-extension totals
// written back, ready to be stored next to its DerivedFields.
func Merge(r *CaseRecord, d DerivedFields) CaseRecord {
	out := r.Clone()
	for i := range out.Extensions {
		if i < len(d.ExtensionFundingTotals) {
			out.Extensions[i].ExtensionFundingTotal = d.ExtensionFundingTotals[i]
		}
	}
	return out
}
