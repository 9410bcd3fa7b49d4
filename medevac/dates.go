package medevac

import "github.com/warp/medevac-engine/generic"

// =============================================================================
// DATE RESOLVER - Effective period across initial, amendment and extensions
// =============================================================================

// EffectiveStartDate is the amended start when one is set, else the initial start.
func EffectiveStartDate(r *CaseRecord) generic.TimePoint {
	if a := r.Amendment(); a != nil && a.AmendedStartDate.IsSet() {
		return a.AmendedStartDate
	}
	return r.InitialStartDate
}

// EffectiveEndDate is the latest of the initial end, the amended end and every
// extension end. Zero when none is set.
func EffectiveEndDate(r *CaseRecord) generic.TimePoint {
	candidates := make([]generic.TimePoint, 0, 2+len(r.Extensions))
	candidates = append(candidates, r.InitialEndDate)
	if a := r.Amendment(); a != nil {
		candidates = append(candidates, a.AmendedEndDate)
	}
	for _, ext := range r.Extensions {
		candidates = append(candidates, ext.ExtensionEndDate)
	}
	return generic.Latest(candidates...)
}

// EffectivePeriod pairs the effective start and end dates.
func EffectivePeriod(r *CaseRecord) generic.Period {
	return generic.NewPeriod(EffectiveStartDate(r), EffectiveEndDate(r))
}

// ExtensionDuration is the number of whole days the extensions push the
// effective end past the initial end.
func ExtensionDuration(r *CaseRecord, effectiveEnd generic.TimePoint) int {
	if len(r.Extensions) == 0 || effectiveEnd.IsZero() || r.InitialEndDate.IsZero() {
		return 0
	}
	return generic.AbsDaysBetween(effectiveEnd, r.InitialEndDate)
}

// CurrentMedevacLocation is the most recent location on record.
func CurrentMedevacLocation(r *CaseRecord) string {
	if ext := r.LastExtension(); ext != nil && ext.MedevacLocation != "" {
		return ext.MedevacLocation
	}
	if a := r.Amendment(); a != nil && a.AmendedLocation != "" {
		return a.AmendedLocation
	}
	return r.InitialMedevacLocation
}
