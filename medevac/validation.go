package medevac

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/warp/medevac-engine/generic"
)

// =============================================================================
// VALIDATION SCORER - Required-field completion and submit readiness
// =============================================================================

// RequiredField names a field and how to read it from a record.
type RequiredField struct {
	Name string
	Get  func(r *CaseRecord) any
}

// FieldGroup is one logical form section.
type FieldGroup struct {
	Name   string
	Fields []RequiredField
}

func firstPerDiem(r *CaseRecord) PerDiem {
	if len(r.PerDiems) == 0 {
		return PerDiem{}
	}
	return r.PerDiems[0]
}

// RequiredFieldGroups is the fixed set of fields a case must fill in before
// it can be submitted.
var RequiredFieldGroups = []FieldGroup{
	{
		Name: "basicInfo",
		Fields: []RequiredField{
			{Name: "patientName", Get: func(r *CaseRecord) any { return r.PatientName }},
			{Name: "agencyType", Get: func(r *CaseRecord) any { return string(r.AgencyType) }},
			{Name: "medevacType", Get: func(r *CaseRecord) any { return string(r.MedevacType) }},
			{Name: "travelerType", Get: func(r *CaseRecord) any { return string(r.TravelerType) }},
			{Name: "route", Get: func(r *CaseRecord) any { return string(r.Route) }},
			{Name: "homePost", Get: func(r *CaseRecord) any { return r.HomePost }},
			{Name: "initialMedevacLocation", Get: func(r *CaseRecord) any { return r.InitialMedevacLocation }},
		},
	},
	{
		Name: "funding",
		Fields: []RequiredField{
			{Name: "initialStartDate", Get: func(r *CaseRecord) any { return r.InitialStartDate }},
			{Name: "initialEndDate", Get: func(r *CaseRecord) any { return r.InitialEndDate }},
			{Name: "fundingCableInDate", Get: func(r *CaseRecord) any { return r.FundingCableInDate }},
			{Name: "bdEmployee", Get: func(r *CaseRecord) any { return string(r.BDEmployee) }},
			{Name: "perDiemRate", Get: func(r *CaseRecord) any { return firstPerDiem(r).Rate }},
			{Name: "perDiemDays", Get: func(r *CaseRecord) any { return firstPerDiem(r).Days }},
		},
	},
}

// IsComplete decides whether a field value counts as filled in: a non-blank
// string, a finite positive number, a set date, or any other non-nil value.
func IsComplete(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case int:
		return x > 0
	case int64:
		return x > 0
	case float64:
		return !math.IsNaN(x) && !math.IsInf(x, 0) && x > 0
	case decimal.Decimal:
		return x.IsPositive()
	case generic.TimePoint:
		return x.IsSet()
	default:
		return true
	}
}

// Validation is the outcome of scoring a record.
type Validation struct {
	CompletionPercentage int
	Missing              []string
	Warnings             []string
	IsValid              bool
	CanSubmit            bool
}

// Validation warnings. They block submission but never fail a recompute.
const (
	WarnInitialEndBeforeStart = "initialEndDate is before initialStartDate"
	WarnAmendedEndBeforeStart = "amendedEndDate is before amendedStartDate"
	WarnActualEndBeforeStart  = "actualEndDate is before actualStartDate"
	WarnExtensionEndEarly     = "extensionEndDate is before the previous end date"
	WarnCommentsTooLong       = "comments exceed 1000 characters"
	WarnTooManyPerDiems       = "more than 4 per-diem entries"
)

func warnings(r *CaseRecord) []string {
	var out []string
	if generic.NewPeriod(r.InitialStartDate, r.InitialEndDate).Inverted() {
		out = append(out, WarnInitialEndBeforeStart)
	}
	if a := r.Amendment(); a != nil && generic.NewPeriod(a.AmendedStartDate, a.AmendedEndDate).Inverted() {
		out = append(out, WarnAmendedEndBeforeStart)
	}
	if generic.NewPeriod(r.ActualStartDate, r.ActualEndDate).Inverted() {
		out = append(out, WarnActualEndBeforeStart)
	}

	previous := r.InitialEndDate
	if a := r.Amendment(); a != nil {
		previous = generic.Latest(previous, a.AmendedEndDate)
	}
	for _, ext := range r.Extensions {
		if ext.ExtensionEndDate.IsZero() {
			continue
		}
		if previous.IsSet() && ext.ExtensionEndDate.Before(previous) {
			out = append(out, WarnExtensionEndEarly)
			break
		}
		previous = ext.ExtensionEndDate
	}

	if utf8.RuneCountInString(r.Comments) > MaxCommentLength {
		out = append(out, WarnCommentsTooLong)
	}
	if len(r.PerDiems) > MaxPerDiemEntries {
		out = append(out, WarnTooManyPerDiems)
	}
	return out
}

// Validate scores a record. initialFundingTotal is passed in so the
// aggregator is not run twice during a recompute.
func Validate(r *CaseRecord, initialFundingTotal decimal.Decimal) Validation {
	total, complete := 0, 0
	var missing []string
	for _, g := range RequiredFieldGroups {
		for _, f := range g.Fields {
			total++
			if IsComplete(f.Get(r)) {
				complete++
			} else {
				missing = append(missing, f.Name)
			}
		}
	}

	v := Validation{Missing: missing, Warnings: warnings(r)}
	if total > 0 {
		v.CompletionPercentage = int(math.Round(100 * float64(complete) / float64(total)))
	}
	v.IsValid = len(v.Missing) == 0 && len(v.Warnings) == 0
	v.CanSubmit = v.IsValid && strings.TrimSpace(r.PatientName) != "" && initialFundingTotal.IsPositive()
	return v
}
